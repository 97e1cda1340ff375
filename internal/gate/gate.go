// Package gate is the request gate in front of every route: a fixed
// per-request pipeline of pattern denylist, per-client rate limiting, and
// route-level auth checks. Ordering is deliberate — malicious input is
// rejected before it can consume a rate-limit slot, and rate limiting runs
// before any auth work.
package gate

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/ratelimit"
)

// Route prefixes the gate cares about.
const (
	AdminUIPrefix  = "/admin/"
	AdminAPIPrefix = "/api/admin/"
	LoginPath      = "/api/admin/login"
	LoginPagePath  = "/admin/login"
	HealthPath     = "/healthz"
)

// Gate holds the per-request check pipeline state.
type Gate struct {
	global  *ratelimit.Limiter
	authEP  *ratelimit.Limiter
	isAdmin func(*http.Request) bool
}

// New creates a Gate. global applies to every request; authEP is the
// stricter window applied to the login endpoint specifically.
func New(global, authEP *ratelimit.Limiter) *Gate {
	return &Gate{
		global:  global,
		authEP:  authEP,
		isAdmin: auth.CurrentlyAuthenticated,
	}
}

// Middleware wraps next with the gate pipeline:
// pattern check -> rate check -> route auth check -> forward.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		securityHeaders(w)

		// --- PATTERN_CHECK ---
		// Runs first so blocked requests never consume a rate slot.
		target := r.URL.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		decoded, err := url.QueryUnescape(target)
		if err != nil {
			decoded = target
		}
		if matchesBlockedPattern(target) || matchesBlockedPattern(decoded) {
			log.Warn().
				Str("ip", clientIP(r)).
				Str("method", r.Method).
				Str("target", target).
				Msg("Blocked request: malicious pattern")
			reject(w, http.StatusForbidden, "forbidden")
			return
		}

		// --- RATE_CHECK ---
		if r.URL.Path != HealthPath {
			limiter := g.global
			if r.URL.Path == LoginPath {
				limiter = g.authEP
			}
			d, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Error().Err(err).Msg("Rate-limit counter store failed; allowing request")
			}
			if !d.Allowed {
				retry := int(d.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
				log.Warn().
					Str("ip", clientIP(r)).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				reject(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Max()))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
		}

		// --- ROUTE_AUTH_CHECK ---
		if strings.HasPrefix(r.URL.Path, AdminUIPrefix) && r.URL.Path != LoginPagePath {
			if !g.isAdmin(r) {
				// Browsers get a redirect to the login page, not a bare 401.
				http.Redirect(w, r, LoginPagePath, http.StatusSeeOther)
				return
			}
		}
		// The Referer check covers only the admin API: those endpoints act on
		// the ambient session cookie, so a cross-site page could ride it.
		// /api/content and /api/gallery writes carry the same cookie but SameSite=Strict keeps
		// it off cross-site requests; /api/media and /api/faculty writes need
		// an explicit Basic-Auth header no cross-site page can attach.
		if strings.HasPrefix(r.URL.Path, AdminAPIPrefix) {
			if !refererAllowed(r) {
				log.Warn().
					Str("ip", clientIP(r)).
					Str("referer", r.Header.Get("Referer")).
					Str("path", r.URL.Path).
					Msg("Blocked request: cross-origin referer on admin API")
				reject(w, http.StatusForbidden, "forbidden")
				return
			}
		}

		// --- FORWARD ---
		next.ServeHTTP(w, r)
	})
}

// refererAllowed accepts requests with no Referer (native/API clients) and
// requests whose Referer origin matches the serving host.
func refererAllowed(r *http.Request) bool {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// clientIP extracts the client address, honoring the first X-Forwarded-For
// hop when the server sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func securityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// reject short-circuits with a static JSON error body.
func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
