package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/auth"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/config"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/metrics"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

func newDevRouter(t *testing.T, devQuery bool) (http.Handler, *models.Client) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "test")

	db := models.NewMemory()
	if _, err := db.User.Create(context.Background(), models.User{ID: "google:1", Email: "owner@example.com"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r := NewRouter(RouterDeps{
		Config:  config.Config{Env: "test", DevQuery: devQuery},
		DB:      db,
		Metrics: metrics.NewRegistry(),
	})
	return r, db
}

func postQuery(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"where":{}}`))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func countUsers(t *testing.T, db *models.Client) int64 {
	t.Helper()
	n, err := db.User.Count(context.Background(), store.CountArgs{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestDevQueryRejectsGuests(t *testing.T) {
	r, db := newDevRouter(t, true)

	resp := postQuery(r, "/api/v1/dev/query/User/deleteMany", map[string]string{"X-Guest-Id": "anyone"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest, got %d: %s", resp.Code, resp.Body.String())
	}
	if n := countUsers(t, db); n != 1 {
		t.Fatalf("guest request must not touch data, users=%d", n)
	}
}

func TestDevQueryAllowsSignedInUser(t *testing.T) {
	r, _ := newDevRouter(t, true)
	token, err := auth.SignJWT(auth.Claims{Sub: "google:1", Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	resp := postQuery(r, "/api/v1/dev/query/User/count", map[string]string{"Authorization": "Bearer " + token})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"data":1`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestDevQueryNotMountedByDefault(t *testing.T) {
	r, db := newDevRouter(t, false)
	token, err := auth.SignJWT(auth.Claims{Sub: "google:1", Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	resp := postQuery(r, "/api/v1/dev/query/User/deleteMany", map[string]string{"Authorization": "Bearer " + token})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when dev query is off, got %d", resp.Code)
	}
	if n := countUsers(t, db); n != 1 {
		t.Fatalf("users=%d", n)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", ":9000": ":9000", "3000": ":3000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
