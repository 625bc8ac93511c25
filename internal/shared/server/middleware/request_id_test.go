package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDReusesValidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123.def_4")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123.def_4" || w.Header().Get("X-Request-Id") != "abc-123.def_4" {
		t.Fatalf("expected inbound id to be kept, got %q / %q", w.Body.String(), w.Header().Get("X-Request-Id"))
	}
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c)) })

	for _, bad := range []string{"", "has space", "line\nbreak", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if bad != "" {
			req.Header.Set("X-Request-Id", bad)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		got := w.Body.String()
		if got == bad || len(got) != 36 {
			t.Fatalf("expected generated uuid for %q, got %q", bad, got)
		}
	}
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"internal_error"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), `"msg":"http.panic"`) || !strings.Contains(buf.String(), "kaboom") {
		t.Fatalf("expected panic log, got %s", buf.String())
	}
}
