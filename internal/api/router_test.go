package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/byJim/salinas-api/internal/api/handler"
	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/core/ports"
)

type fakeAuthService struct{}

func (fakeAuthService) Register(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return &ports.AuthResult{
		Account: &domain.Account{ID: "acc-1", Email: in.Email, Role: domain.RoleUser},
		Tokens:  domain.TokenPair{AccessToken: "good", RefreshToken: "refresh"},
	}, nil
}

func (fakeAuthService) SignIn(context.Context, string, string) (*ports.AuthResult, error) {
	return nil, domain.ErrInvalidCredentials
}

func (fakeAuthService) IssueTokens(context.Context, string) (domain.TokenPair, error) {
	return domain.TokenPair{}, nil
}

func (fakeAuthService) RotateTokens(context.Context, string) (domain.TokenPair, error) {
	return domain.TokenPair{}, domain.ErrSessionExpired
}

type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	if token != "good" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.Identity{AccountID: "acc-1", Email: "alice@example.com", Role: domain.RoleUser, SessionID: "sess-1"}, nil
}

func newTestRouter(limit float64, burst int) http.Handler {
	return NewRouter(Dependencies{
		AuthService:   fakeAuthService{},
		Authenticator: fakeAuthenticator{},
		Cookies: handler.CookieConfig{
			AccessName:  "salinas_access_token",
			RefreshName: "salinas_refresh_token",
			AccessTTL:   15 * time.Minute,
			RefreshTTL:  time.Hour,
		},
		RateLimit: limit,
		RateBurst: burst,
		Log:       zerolog.Nop(),
	})
}

func serve(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestRouter_Me(t *testing.T) {
	r := newTestRouter(0, 0)

	rec := serve(r, http.MethodGet, "/auth/me", "", map[string]string{"Authorization": "Bearer good"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	for _, header := range []map[string]string{nil, {"Authorization": "Bearer forged"}} {
		rec := serve(r, http.MethodGet, "/auth/me", "", header)
		if rec.Code != http.StatusUnauthorized || errorBody(t, rec) != "unauthorized" {
			t.Fatalf("expected bare 401, got %d %s", rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_ErrorsAreMapped(t *testing.T) {
	r := newTestRouter(0, 0)

	rec := serve(r, http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"nope"}`, nil)
	if rec.Code != http.StatusUnauthorized || errorBody(t, rec) != "invalid credentials" {
		t.Fatalf("expected 401 invalid credentials, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodPost, "/auth/refresh", `{"refresh_token":"old"}`, nil)
	if rec.Code != http.StatusUnauthorized || errorBody(t, rec) != "unauthorized" {
		t.Fatalf("expected 401 unauthorized, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(r, http.MethodPost, "/auth/refresh", "", nil)
	if rec.Code != http.StatusBadRequest || errorBody(t, rec) != "refresh token not found" {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RateLimitsCredentialEndpoints(t *testing.T) {
	r := newTestRouter(0.001, 1)
	body := `{"email":"a@example.com","password":"secret1","first_name":"A","last_name":"B"}`

	if rec := serve(r, http.MethodPost, "/auth/register", body, nil); rec.Code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d", rec.Code)
	}
	rec := serve(r, http.MethodPost, "/auth/register", body, nil)
	if rec.Code != http.StatusTooManyRequests || errorBody(t, rec) != "too many requests" {
		t.Fatalf("second request: expected 429, got %d %s", rec.Code, rec.Body.String())
	}

	// refresh is not throttled
	for i := 0; i < 3; i++ {
		if rec := serve(r, http.MethodPost, "/auth/refresh", `{"refresh_token":"x"}`, nil); rec.Code == http.StatusTooManyRequests {
			t.Fatalf("refresh must not be rate limited")
		}
	}
}

func TestErrThrottled_SameResponseForEveryRejection(t *testing.T) {
	err := errThrottled()
	if err.Code != http.StatusTooManyRequests || err.Message != "too many requests" {
		t.Fatalf("expected 429 too many requests, got %d %v", err.Code, err.Message)
	}
}

func TestRouter_OpsEndpoints(t *testing.T) {
	r := newTestRouter(0, 0)

	if rec := serve(r, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	if rec := serve(r, http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
	rec := serve(r, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("metrics: expected prometheus exposition, got %d", rec.Code)
	}
}
