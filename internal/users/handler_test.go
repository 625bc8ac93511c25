package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/auth"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "test")

	svc := NewService(models.NewMemory())
	h := NewHandler(svc)
	r := gin.New()
	api := r.Group("/api/v1", middleware.Auth("test"))
	h.RegisterRoutes(api)
	owner := api.Group("", middleware.RequireUser(), h.EnsureAccount())
	owner.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })
	owner.PUT("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, svc
}

func bearer(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token, err := auth.SignJWT(claims)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return "Bearer " + token
}

func TestMeForGuest(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["userId"] != "guest:g1" || body["guest"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestEnsureAccountCreatesUserOnWrite(t *testing.T) {
	r, svc := newTestRouter(t)
	token := bearer(t, auth.Claims{Sub: "u1", Email: "u1@example.com", Name: "U One"})

	get := httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil)
	get.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, get)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on read, got %d", resp.Code)
	}
	if _, err := svc.GetByID(context.Background(), "u1"); err == nil {
		t.Fatalf("reads must not create users")
	}

	put := httptest.NewRequest(http.MethodPut, "/api/v1/probe", nil)
	put.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, put)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on write, got %d", resp.Code)
	}

	me := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	me.Header.Set("Authorization", token)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, me)
	var body map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["email"] != "u1@example.com" || body["name"] != "U One" {
		t.Fatalf("unexpected /me body: %v", body)
	}
}

func TestEnsureAccountNeedsEmail(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/probe", nil)
	req.Header.Set("Authorization", bearer(t, auth.Claims{Sub: "u2"}))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestDeleteMe(t *testing.T) {
	r, svc := newTestRouter(t)
	if _, err := svc.UpsertFromAuth(context.Background(), Identity{ID: "u3", Email: "u3@example.com"}); err != nil {
		t.Fatalf("UpsertFromAuth: %v", err)
	}
	token := bearer(t, auth.Claims{Sub: "u3"})
	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/me", nil)
		req.Header.Set("Authorization", token)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("expected %d, got %d", want, resp.Code)
		}
	}
}
