package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corkboard/corkboard/internal/config"
	"github.com/corkboard/corkboard/internal/domain/user"
	"github.com/corkboard/corkboard/internal/middleware"
	"github.com/corkboard/corkboard/internal/service"
)

func newTestAuthSvc() *service.AuthService {
	cfg := config.Auth{
		Enabled:     true,
		TokenSecret: "test-secret-key-for-middleware",
		TokenExpiry: time.Hour,
		BcryptCost:  4,
	}
	// nil store is fine: a malformed or mis-signed token fails signature
	// verification before the store is ever consulted.
	return service.NewAuthService(nil, &cfg)
}

func TestAuth_Disabled_InjectsLocalUser(t *testing.T) {
	handler := middleware.Auth(nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := middleware.UserFromContext(r.Context())
		if u == nil {
			t.Fatal("expected default user in context")
		}
		if !u.Admin {
			t.Error("default local user should be admin")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuth_Enabled_NoHeader_Returns401(t *testing.T) {
	handler := middleware.Auth(newTestAuthSvc(), true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_PublicPathsSkipAuth(t *testing.T) {
	handler := middleware.Auth(newTestAuthSvc(), true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/health/ready", "/api/v1/auth/login", "/api/v1/auth/register"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("path %s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestAuth_InvalidBearerToken_Returns401(t *testing.T) {
	handler := middleware.Auth(newTestAuthSvc(), true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	req.Header.Set("Authorization", "Bearer invalid.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_MalformedAuthorizationHeader(t *testing.T) {
	handler := middleware.Auth(newTestAuthSvc(), true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", http.NoBody)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// The WebSocket endpoint accepts the token as a query parameter, since
// browsers cannot set headers on upgrade requests.
func TestAuth_WSQueryToken(t *testing.T) {
	handler := middleware.Auth(newTestAuthSvc(), true)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// A bad query token is still a 401, which proves it was looked at.
	req := httptest.NewRequest(http.MethodGet, "/ws?token=bad.token", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad ws query token: status = %d, want 401", rec.Code)
	}

	// Anywhere else the query parameter is ignored.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/projects?token=bad.token", http.NoBody)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("non-ws query token: status = %d, want 401", rec.Code)
	}
}

func TestUserFromContext(t *testing.T) {
	if u := middleware.UserFromContext(t.Context()); u != nil {
		t.Errorf("empty context user = %v, want nil", u)
	}
	want := &user.User{ID: "user-1", Name: "Ada"}
	ctx := middleware.WithUser(t.Context(), want)
	if got := middleware.UserFromContext(ctx); got != want {
		t.Errorf("context user = %v, want %v", got, want)
	}
}
