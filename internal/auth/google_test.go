package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	sharedauth "github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/auth"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/users"
)

func fakeGoogle(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "access-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "123", "email": "jane@example.com", "verified_email": verified, "name": "Jane"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogle(t *testing.T, srv *httptest.Server, accounts Accounts) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "test")
	svc := NewGoogleService("client", "secret", "http://localhost/cb", "http://ui.example/done", accounts)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.userInfoURL = srv.URL + "/userinfo"
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func startLogin(t *testing.T, r http.Handler) string {
	t.Helper()
	start := httptest.NewRecorder()
	r.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if start.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", start.Code)
	}
	loc, err := url.Parse(start.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	q := loc.Query()
	if q.Get("state") == "" || q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		t.Fatalf("missing state or PKCE challenge in %s", loc)
	}
	return q.Get("state")
}

func TestGoogleCallbackStoresAccountAndIssuesToken(t *testing.T) {
	accounts := users.NewService(models.NewMemory())
	r := newTestGoogle(t, fakeGoogle(t, true), accounts)
	state := startLogin(t, r)

	cb := httptest.NewRecorder()
	r.ServeHTTP(cb, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=abc", nil))
	if cb.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d: %s", cb.Code, cb.Body.String())
	}
	done, err := url.Parse(cb.Header().Get("Location"))
	if err != nil || !strings.HasPrefix(done.String(), "http://ui.example/done") {
		t.Fatalf("unexpected ui redirect %q", cb.Header().Get("Location"))
	}
	claims, err := sharedauth.VerifyJWT(done.Query().Get("token"))
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "google:123" || claims.Email != "jane@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	u, err := accounts.GetByID(context.Background(), "google:123")
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if u.Email != "jane@example.com" {
		t.Fatalf("unexpected account %+v", u)
	}

	replay := httptest.NewRecorder()
	r.ServeHTTP(replay, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=abc", nil))
	if replay.Code != http.StatusBadRequest {
		t.Fatalf("expected state to be single use, got %d", replay.Code)
	}
}

func TestGoogleStartRequiresConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService("", "", "", "", nil)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://ui.example/done?x=1", "tok")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if got != "http://ui.example/done?token=tok&x=1" {
		t.Fatalf("unexpected url %s", got)
	}
	if _, err := appendToken("", "tok"); err == nil {
		t.Fatalf("expected error for empty redirect")
	}
}

func TestGoogleCallbackRejectsUnverifiedEmail(t *testing.T) {
	accounts := users.NewService(models.NewMemory())
	r := newTestGoogle(t, fakeGoogle(t, false), accounts)
	state := startLogin(t, r)

	cb := httptest.NewRecorder()
	r.ServeHTTP(cb, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=abc", nil))
	if cb.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", cb.Code)
	}
	if _, err := accounts.GetByID(context.Background(), "google:123"); err == nil {
		t.Fatalf("unverified account must not be stored")
	}
}

func TestGoogleCallbackReportsDeniedConsent(t *testing.T) {
	r := newTestGoogle(t, fakeGoogle(t, true), nil)
	cb := httptest.NewRecorder()
	r.ServeHTTP(cb, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?error=access_denied", nil))
	if cb.Code != http.StatusBadRequest || !strings.Contains(cb.Body.String(), "auth_denied") {
		t.Fatalf("expected auth_denied, got %d %s", cb.Code, cb.Body.String())
	}
}

func TestStateStoreExpiresAndSweeps(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := newStateStore(func() time.Time { return now })

	s.put("a", "va", time.Minute)
	if v, ok := s.consume("a"); !ok || v != "va" {
		t.Fatalf("expected fresh state to be accepted, got %q %v", v, ok)
	}
	if _, ok := s.consume("a"); ok {
		t.Fatalf("state must be single use")
	}

	s.put("b", "vb", time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok := s.consume("b"); ok {
		t.Fatalf("expected expired state to be rejected")
	}

	s.put("c", "vc", time.Minute)
	now = now.Add(2 * time.Minute)
	s.put("d", "vd", time.Minute)
	if s.len() != 1 {
		t.Fatalf("expected expired states to be swept, %d left", s.len())
	}
}
