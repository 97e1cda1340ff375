package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/content"
)

// contentWriteRequest is the PUT /api/content body. Data is kept raw so the
// store can validate and format it.
type contentWriteRequest struct {
	Section    string          `json:"section"`
	Subsection string          `json:"subsection"`
	Data       json.RawMessage `json:"data"`
}

func (a *app) handleContent(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleContentGet(w, r)
	case http.MethodPut:
		a.handleContentPut(w, r)
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleContentGet returns the stored document for a section/subsection pair,
// or JSON null when nothing has been written yet. Reads are public.
func (a *app) handleContentGet(w http.ResponseWriter, r *http.Request) {
	key, err := content.ResolveKey(r.URL.Query().Get("section"), r.URL.Query().Get("subsection"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid section or subsection")
		return
	}

	data, err := a.content.Read(key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to read content")
		httpError(w, http.StatusInternalServerError, "failed to read content")
		return
	}
	if data == nil {
		respondJSON(w, http.StatusOK, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleContentPut replaces a document wholesale. Requires an admin session.
func (a *app) handleContentPut(w http.ResponseWriter, r *http.Request) {
	if !auth.CurrentlyAuthenticated(r) {
		httpError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req contentWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, err := content.ResolveKey(req.Section, req.Subsection)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid section or subsection")
		return
	}
	if !content.WriteAllowed(key) {
		log.Warn().Str("key", key).Msg("Write to non-allow-listed content key rejected")
		httpError(w, http.StatusForbidden, "content key not writable")
		return
	}

	if err := content.ValidateSchema(key, req.Data); err != nil {
		httpError(w, http.StatusBadRequest, "document does not match expected shape: "+err.Error())
		return
	}

	if err := a.content.Write(key, req.Data); err != nil {
		switch {
		case errors.Is(err, content.ErrNotObject):
			httpError(w, http.StatusBadRequest, "document must be a JSON object")
		case errors.Is(err, content.ErrTooLarge):
			httpError(w, http.StatusRequestEntityTooLarge, "document exceeds size limit")
		default:
			log.Error().Err(err).Str("key", key).Msg("Failed to write content")
			httpError(w, http.StatusInternalServerError, "failed to write content")
		}
		return
	}

	log.Info().Str("key", key).Msg("Content updated")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
