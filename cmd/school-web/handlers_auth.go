package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
)

// handleLogin verifies admin credentials from a JSON body and, on success,
// issues the session cookie.
func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.verifier.Verify(creds.Username, creds.Password); err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			log.Error().Msg("Login attempted but admin credentials are not configured")
			httpError(w, http.StatusInternalServerError, "admin login not configured")
			return
		}
		log.Warn().Str("username", creds.Username).Msg("Failed login attempt")
		httpError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	auth.IssueSession(w, r)
	log.Info().Str("username", creds.Username).Msg("Admin login")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleLogout clears the session cookie. Always succeeds, even without a session.
func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	auth.RevokeSession(w, r)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleSession reports whether the request carries a valid admin session.
func (a *app) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"isAdmin": auth.CurrentlyAuthenticated(r)})
}
