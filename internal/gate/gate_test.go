package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dpsweb/school-web/internal/auth"
	"github.com/dpsweb/school-web/internal/ratelimit"
)

// countingStore counts Incr calls so tests can assert blocked requests never
// reach rate accounting.
type countingStore struct {
	inner ratelimit.CounterStore
	calls int
}

func (c *countingStore) Incr(ctx context.Context, key string, ttl time.Duration) (int, error) {
	c.calls++
	return c.inner.Incr(ctx, key, ttl)
}

func newTestGate(max int) (*Gate, *countingStore) {
	store := &countingStore{inner: ratelimit.NewMemoryStore()}
	// Pin the clock so no test straddles a window boundary.
	base := time.Unix(1700000010, 0)
	clock := ratelimit.WithClock(func() time.Time { return base })
	global := ratelimit.New(store, "global", max, time.Minute, clock)
	authEP := ratelimit.New(store, "auth", max, time.Minute, clock)
	return New(global, authEP), store
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- Pattern Check Tests ---

func TestGate_BlocksTraversal(t *testing.T) {
	g, store := newTestGate(100)
	h := g.Middleware(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/content?section=../etc&subsection=passwd", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403 for traversal, got %d", method, rr.Code)
		}
	}
	if store.calls != 0 {
		t.Errorf("expected blocked requests to skip rate accounting, got %d Incr calls", store.calls)
	}
}

func TestGate_BlocksSQLInjection(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	targets := []string{
		"/api/content?section=home&subsection=x%20UNION%20SELECT%20password",
		"/api/gallery?id=img-1;DROP%20TABLE%20students",
		"/api/content?section=home'%20OR%201=1",
	}
	for _, target := range targets {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", target, rr.Code)
		}
	}
}

func TestGate_BlocksScriptInjection(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	targets := []string{
		"/api/content?section=%3Cscript%3Ealert(1)%3C/script%3E",
		"/api/content?section=javascript:alert(1)",
		"/api/content?section=x%22%20onerror=alert(1)",
		"/api/content?section=%00",
	}
	for _, target := range targets {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", target, rr.Code)
		}
	}
}

func TestGate_AllowsCleanRequest(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/content?section=home&subsection=hero", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for clean request, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("expected X-RateLimit-Remaining header on forwarded request")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on response")
	}
}

// --- Rate Check Tests ---

func TestGate_RateLimitBoundary(t *testing.T) {
	g, _ := newTestGate(3)
	h := g.Middleware(okHandler())

	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/content?section=home&subsection=hero", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/content?section=home&subsection=hero", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past limit, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}

	// A different client is unaffected.
	req = httptest.NewRequest(http.MethodGet, "/api/content?section=home&subsection=hero", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected other client allowed, got %d", rr.Code)
	}
}

func TestGate_LoginWindowIndependentOfGeneralTraffic(t *testing.T) {
	// One shared store behind both limiters, wired like the server: a wide
	// global window and a strict login window. General traffic must never
	// consume login attempts, and vice versa.
	store := &countingStore{inner: ratelimit.NewMemoryStore()}
	base := time.Unix(1700000010, 0)
	clock := ratelimit.WithClock(func() time.Time { return base })
	g := New(
		ratelimit.New(store, "global", 300, time.Minute, clock),
		ratelimit.New(store, "auth", 5, time.Minute, clock),
	)
	h := g.Middleware(okHandler())

	for i := 1; i <= 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/content?section=home&subsection=hero", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("general request %d: expected 200, got %d", i, rr.Code)
		}
	}

	// The client's first-ever login attempt has the full strict window.
	req := httptest.NewRequest(http.MethodPost, LoginPath, nil)
	req.RemoteAddr = "198.51.100.7:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first login attempt: expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Errorf("expected 4 login attempts remaining, got %q", got)
	}

	// Exhaust the login window; general traffic stays far from its ceiling.
	for i := 2; i <= 5; i++ {
		req := httptest.NewRequest(http.MethodPost, LoginPath, nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("login attempt %d: expected 200, got %d", i, rr.Code)
		}
	}
	req = httptest.NewRequest(http.MethodPost, LoginPath, nil)
	req.RemoteAddr = "198.51.100.7:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("login attempt 6: expected 429, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/content?section=home&subsection=hero", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("general request after login exhaustion: expected 200, got %d", rr.Code)
	}
}

func TestGate_HealthBypassesRateLimit(t *testing.T) {
	g, store := newTestGate(1)
	h := g.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("healthz request %d: expected 200, got %d", i, rr.Code)
		}
	}
	if store.calls != 0 {
		t.Errorf("expected healthz to skip rate accounting, got %d Incr calls", store.calls)
	}
}

// --- Route Auth Tests ---

func TestGate_AdminUIRedirectsWithoutSession(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != LoginPagePath {
		t.Errorf("expected redirect to %q, got %q", LoginPagePath, loc)
	}
}

func TestGate_AdminUIPassesWithSession(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	issue := httptest.NewRecorder()
	auth.IssueSession(issue, httptest.NewRequest(http.MethodPost, "/api/admin/login", nil))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	for _, c := range issue.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 with valid session, got %d", rr.Code)
	}
}

func TestGate_LoginPageReachableWithoutSession(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, LoginPagePath, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected login page reachable, got %d", rr.Code)
	}
}

func TestGate_CrossOriginRefererRejected(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "http://school.example/api/admin/login", nil)
	req.Header.Set("Referer", "http://evil.example/phish")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for cross-origin referer, got %d", rr.Code)
	}
}

func TestGate_SameOriginAndAbsentRefererAllowed(t *testing.T) {
	g, _ := newTestGate(100)
	h := g.Middleware(okHandler())

	// Same origin.
	req := httptest.NewRequest(http.MethodPost, "http://school.example/api/admin/login", nil)
	req.Header.Set("Referer", "http://school.example/admin/login")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for same-origin referer, got %d", rr.Code)
	}

	// Absent referer (native/API client).
	req = httptest.NewRequest(http.MethodPost, "http://school.example/api/admin/login", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for absent referer, got %d", rr.Code)
	}
}

// --- Helper Tests ---

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := clientIP(req); got != "192.0.2.1" {
		t.Errorf("expected 192.0.2.1, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.5" {
		t.Errorf("expected first forwarded hop, got %q", got)
	}
}
