package main

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/gallery"
)

func (a *app) handleGallery(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleGalleryList(w, r)
	case http.MethodDelete:
		a.handleGalleryDelete(w, r)
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *app) handleGalleryList(w http.ResponseWriter, _ *http.Request) {
	items, err := a.gallery.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list gallery items")
		httpError(w, http.StatusInternalServerError, "failed to list gallery")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// handleGalleryDelete removes a legacy gallery item and returns the full
// renumbered list so the caller sees the post-compaction state.
func (a *app) handleGalleryDelete(w http.ResponseWriter, r *http.Request) {
	if !auth.CurrentlyAuthenticated(r) {
		httpError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httpError(w, http.StatusBadRequest, "missing id")
		return
	}

	items, err := a.gallery.Delete(id)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			httpError(w, http.StatusNotFound, "gallery item not found")
			return
		}
		log.Error().Err(err).Str("id", id).Msg("Failed to delete gallery item")
		httpError(w, http.StatusInternalServerError, "failed to delete gallery item")
		return
	}

	log.Info().Str("id", id).Msg("Gallery item deleted")
	respondJSON(w, http.StatusOK, items)
}
