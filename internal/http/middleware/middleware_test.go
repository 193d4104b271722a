package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gestaozabele/farmdesk/internal/auth"
)

type memoryBackend struct {
	store *auth.MemoryStore
}

func (b memoryBackend) Bind(http.ResponseWriter, *http.Request) auth.SessionStore { return b.store }

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func withSession(t *testing.T, s auth.Session, h http.Handler) http.Handler {
	t.Helper()
	store := auth.NewMemoryStore()
	if s.Authenticated {
		if err := store.Save(context.Background(), s); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}
	manager := auth.NewManager(auth.DeferredProvider{})
	return Session(manager, memoryBackend{store: store})(h)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	var subject string
	protected := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := serve(withSession(t, auth.Session{}, protected), httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"AUTH"`) {
		t.Fatalf("expected AUTH code, body=%s", rec.Body.String())
	}

	s := auth.Session{UserID: "u-1", Role: auth.RoleViewer, Authenticated: true}
	rec = serve(withSession(t, s, protected), httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if subject != "u-1" {
		t.Fatalf("expected subject u-1 got %q", subject)
	}

	// sem middleware de sessão também recusa
	rec = serve(protected, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session middleware got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name       string
		have, need auth.Role
		status     int
	}{
		{"viewer lê", auth.RoleViewer, auth.RoleViewer, http.StatusOK},
		{"viewer não edita", auth.RoleViewer, auth.RoleUser, http.StatusForbidden},
		{"user lê", auth.RoleUser, auth.RoleViewer, http.StatusOK},
		{"admin edita", auth.RoleAdmin, auth.RoleUser, http.StatusOK},
		{"user não administra", auth.RoleUser, auth.RoleAdmin, http.StatusForbidden},
		{"papel exigido desconhecido", auth.RoleAdmin, auth.Role("superuser"), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := auth.Session{UserID: "u-1", Role: tc.have, Authenticated: true}
			h := withSession(t, s, RequireRole(tc.need)(http.HandlerFunc(okHandler)))
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}

	anon := withSession(t, auth.Session{}, RequireRole(auth.RoleViewer)(http.HandlerFunc(okHandler)))
	if code := serve(anon, httptest.NewRequest(http.MethodGet, "/", nil)).Code; code != http.StatusForbidden {
		t.Fatalf("expected 403 for anonymous got %d", code)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://painel.farmdesk.io", "*.wpd.fr"})(http.HandlerFunc(okHandler))

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"https://painel.farmdesk.io", true},
		{"https://dash.wpd.fr", true},
		{"https://wpd.fr", false},
		{"https://evil.example", false},
		{"", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		rec := serve(h, req)
		got := rec.Header().Get("Access-Control-Allow-Origin")
		if tc.allowed {
			if got != tc.origin {
				t.Fatalf("origin %q: expected allow header, got %q", tc.origin, got)
			}
			if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
				t.Fatalf("origin %q: PATCH missing from allowed methods", tc.origin)
			}
		} else if got != "" {
			t.Fatalf("origin %q: expected no allow header, got %q", tc.origin, got)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://painel.farmdesk.io")
	if code := serve(h, req).Code; code != http.StatusNoContent {
		t.Fatalf("expected 204 on preflight got %d", code)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatalf("expected burst of 2 for key a")
	}
	if limiter.Allow("a") {
		t.Fatalf("expected third request for key a to be limited")
	}
	if !limiter.Allow("b") {
		t.Fatalf("expected key b to have its own bucket")
	}
	if limiter.Size() != 2 {
		t.Fatalf("expected 2 buckets got %d", limiter.Size())
	}

	h := IPRateLimit(NewRateLimiter(0.001, 1))(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if code := serve(h, req).Code; code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	rec := serve(h, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	if code := serve(h, other).Code; code != http.StatusOK {
		t.Fatalf("expected 200 for another ip got %d", code)
	}
}

func TestUserRateLimitSkipsAnonymous(t *testing.T) {
	h := UserRateLimit(NewRateLimiter(0.001, 1))(http.HandlerFunc(okHandler))
	for i := 0; i < 3; i++ {
		if code := serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code; code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, code)
		}
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("falhou")
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"INTERNAL"`) {
		t.Fatalf("expected INTERNAL code, body=%s", rec.Body.String())
	}
}
