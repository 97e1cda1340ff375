package auth

import (
	"crypto/subtle"
	"net/http"
	"time"
)

// Session cookie parameters. The cookie carries a fixed marker value, not a
// per-user token: possession of the marker is the entire session state and
// there is no server-side session table to consult or revoke against.
const (
	// SessionCookieName is the admin session cookie.
	SessionCookieName = "dps_admin_session"

	// sessionMarker is the exact value a valid session cookie carries.
	sessionMarker = "authenticated"

	// SessionMaxAge is the fixed session lifetime.
	SessionMaxAge = 8 * time.Hour
)

// IssueSession sets the admin session cookie on the response.
// SameSite is always Strict and Secure tracks the request transport; there
// is no debug override.
func IssueSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionMarker,
		Path:     "/",
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
	})
}

// RevokeSession deletes the admin session cookie.
func RevokeSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
	})
}

// CurrentlyAuthenticated reports whether the request carries a session
// cookie with exactly the expected marker value. Any other value — tampered,
// truncated, stale encoding — is no session at all.
func CurrentlyAuthenticated(r *http.Request) bool {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(sessionMarker)) == 1
}

// requestIsSecure reports whether the request arrived over TLS, either
// directly or via a terminating proxy that set X-Forwarded-Proto.
func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}
