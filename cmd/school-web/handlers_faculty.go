package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/faculty"
)

// handleFaculty serves the collection route: GET lists, POST creates.
func (a *app) handleFaculty(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := a.faculty.List()
		if err != nil {
			log.Error().Err(err).Msg("Failed to list faculty records")
			httpError(w, http.StatusInternalServerError, "failed to list faculty")
			return
		}
		respondJSON(w, http.StatusOK, records)

	case http.MethodPost:
		var rec faculty.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := a.faculty.Create(r.Header.Get("Authorization"), rec)
		if err != nil {
			a.writeFacultyError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, created)

	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleFacultyItem serves /api/faculty/{id}: GET, PUT, DELETE.
func (a *app) handleFacultyItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/faculty/")
	if id == "" || strings.Contains(id, "/") {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := a.faculty.Get(id)
		if err != nil {
			a.writeFacultyError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rec)

	case http.MethodPut:
		var rec faculty.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		updated, err := a.faculty.Update(r.Header.Get("Authorization"), id, rec)
		if err != nil {
			a.writeFacultyError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := a.faculty.Delete(r.Header.Get("Authorization"), id); err != nil {
			a.writeFacultyError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *app) writeFacultyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
		httpError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrNotConfigured):
		log.Error().Msg("Faculty write attempted but admin credentials are not configured")
		httpError(w, http.StatusInternalServerError, "admin login not configured")
	case errors.Is(err, faculty.ErrNotFound):
		httpError(w, http.StatusNotFound, "faculty record not found")
	case errors.Is(err, faculty.ErrInvalidID), errors.Is(err, faculty.ErrInvalidRole), errors.Is(err, faculty.ErrDuplicateID):
		httpError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Faculty operation failed")
		httpError(w, http.StatusInternalServerError, "faculty operation failed")
	}
}
