package main

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/media"
)

// Multipart form memory threshold; larger parts spill to temp files.
const maxMultipartMemory = 32 << 20 // 32 MiB

func (a *app) handleMedia(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleMediaList(w, r)
	case http.MethodPost:
		a.handleMediaUpload(w, r)
	case http.MethodDelete:
		a.handleMediaDelete(w, r)
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *app) handleMediaList(w http.ResponseWriter, r *http.Request) {
	if a.media == nil {
		httpError(w, http.StatusInternalServerError, "media host not configured")
		return
	}

	records, err := a.media.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list media records")
		httpError(w, http.StatusInternalServerError, "failed to list media")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// handleMediaUpload accepts a multipart form (file, type, title, category,
// description, optional replaceId) with Basic-Auth credentials. Policy and
// authorization live in the media guard; this handler only shapes the request.
func (a *app) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	if a.media == nil {
		httpError(w, http.StatusInternalServerError, "media host not configured")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	record, err := a.media.Upload(r.Context(), r.Header.Get("Authorization"), media.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Type:        r.FormValue("type"),
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Size:        header.Size,
		ReplaceID:   r.FormValue("replaceId"),
		Body:        file,
	})
	if err != nil {
		a.writeMediaError(w, err, "upload")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (a *app) handleMediaDelete(w http.ResponseWriter, r *http.Request) {
	if a.media == nil {
		httpError(w, http.StatusInternalServerError, "media host not configured")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httpError(w, http.StatusBadRequest, "missing id")
		return
	}

	if err := a.media.Delete(r.Context(), r.Header.Get("Authorization"), id); err != nil {
		a.writeMediaError(w, err, "delete")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *app) writeMediaError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
		httpError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrNotConfigured):
		log.Error().Msg("Media operation attempted but admin credentials are not configured")
		httpError(w, http.StatusInternalServerError, "admin login not configured")
	case errors.Is(err, media.ErrUnsupportedType):
		httpError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrTooLarge):
		httpError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, media.ErrNotFound):
		httpError(w, http.StatusNotFound, "media item not found")
	default:
		log.Error().Err(err).Str("op", op).Msg("Media operation failed")
		httpError(w, http.StatusInternalServerError, "media operation failed")
	}
}
