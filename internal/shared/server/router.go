package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "github.com/dsonic0912/dsonic-resume-builder-sub000/internal/auth"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/resumes"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/services/health"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/config"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/metrics"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/middleware"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server/respond"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/users"
)

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config        config.Config
	DB            *models.Client
	Metrics       *metrics.Registry
	Health        *health.Service
	UserHandler   *users.Handler
	ResumeHandler *resumes.Handler
	GoogleAuth    *googleauth.GoogleService
	RateLimiter   *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	reg := deps.Metrics
	if reg == nil {
		reg = metrics.Default
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		reg.Middleware(),
		middleware.Auth(cfg.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.WriteRateLimitGroup: {Rate: cfg.WriteRatePerSecond, Burst: cfg.WriteBurst},
			},
			GroupFor: middleware.WriteGroupFor,
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", reg.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		st := deps.Health.Check(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	owner := api.Group("", middleware.RequireUser())
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
		owner.Use(deps.UserHandler.EnsureAccount())
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api, owner)
	}

	if cfg.DevQuery && deps.DB != nil {
		registerDevQuery(api.Group("/dev", middleware.RequireUser()), deps.DB)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
