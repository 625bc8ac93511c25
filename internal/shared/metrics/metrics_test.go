package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

func TestRenderStoreOperations(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveStore("User", "create", 3*time.Millisecond, nil)
	reg.ObserveStore("User", "create", 40*time.Millisecond, nil)
	reg.ObserveStore("User", "findUnique", time.Millisecond, &store.KnownRequestError{Code: store.CodeNotFound})

	out := reg.Render()
	for _, want := range []string{
		"# TYPE store_operations_total counter",
		`store_operations_total{model="User",op="create",outcome="ok"} 2`,
		`store_operations_total{model="User",op="findUnique",outcome="not_found"} 1`,
		`store_operation_duration_ms_bucket{op="create",le="1"} 0`,
		`store_operation_duration_ms_bucket{op="create",le="5"} 1`,
		`store_operation_duration_ms_bucket{op="create",le="50"} 2`,
		`store_operation_duration_ms_bucket{op="create",le="+Inf"} 2`,
		`store_operation_duration_ms_sum{op="create"} 43`,
		`store_operation_duration_ms_count{op="create"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestStoreObserverWiredIntoClient(t *testing.T) {
	reg := NewRegistry()
	db := models.NewMemory(store.WithObserver(reg.StoreObserver()))
	ctx := context.Background()

	if _, err := db.User.Create(ctx, models.User{Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.User.Create(ctx, models.User{Email: "a@example.com"}); err == nil {
		t.Fatalf("expected unique violation")
	}
	out := reg.Render()
	if !strings.Contains(out, `store_operations_total{model="User",op="create",outcome="ok"} 1`) ||
		!strings.Contains(out, `store_operations_total{model="User",op="create",outcome="conflict"} 1`) {
		t.Fatalf("unexpected render:\n%s", out)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry()
	r := gin.New()
	r.Use(reg.Middleware())
	r.GET("/api/v1/resumes/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", reg.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/resumes/abc", nil))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	want := `http_requests_total{method="GET",route="/api/v1/resumes/:id",status="404"} 1`
	if !strings.Contains(resp.Body.String(), want) {
		t.Fatalf("missing %q in:\n%s", want, resp.Body.String())
	}
}
