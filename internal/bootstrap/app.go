package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "github.com/dsonic0912/dsonic-resume-builder-sub000/internal/auth"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/resumes"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/services/health"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/config"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/metrics"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/server"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/storage/db"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/storage/object"
	localstore "github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/storage/object/local"
	s3store "github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/storage/object/s3"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	SQL            *sql.DB
	Backend        string
	DB             *models.Client
	Store          object.ObjectStore
	Metrics        *metrics.Registry
	UsersService   *users.Service
	ResumesService *resumes.Service
	GoogleAuth     *googleauth.GoogleService
}

// Build prepares every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if cfg.Env == "production" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	app := &App{Config: cfg, Metrics: metrics.Default}

	if err := app.buildDB(ctx); err != nil {
		return nil, err
	}
	objects, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = objects

	app.UsersService = users.NewService(app.DB)
	app.ResumesService = resumes.NewService(app.DB, app.Store)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
	)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		DB:            app.DB,
		Metrics:       app.Metrics,
		Health:        health.NewService(app.DB, app.Backend),
		UserHandler:   users.NewHandler(app.UsersService),
		ResumeHandler: resumes.NewHandler(app.ResumesService),
		GoogleAuth:    app.GoogleAuth,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.SQL == nil {
		return nil
	}
	return a.SQL.Close()
}

func (a *App) buildDB(ctx context.Context) error {
	cfg := a.Config
	observer := store.WithObserver(a.Metrics.StoreObserver())

	if cfg.DatabaseURL == "" {
		if !isDevLike(cfg.Env) {
			return fmt.Errorf("DATABASE_URL is required")
		}
		telemetry.Warn("bootstrap.memory_store", map[string]any{"env": cfg.Env})
		a.DB = models.NewMemory(observer)
		a.Backend = "memory"
		return nil
	}

	target, err := db.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	dialect, err := store.ParseDialect(target.Dialect)
	if err != nil {
		return err
	}

	sqlDB, err := db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return err
	}
	if err := db.RunMigrations(ctx, sqlDB, target.Dialect); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	a.SQL = sqlDB
	a.Backend = target.Dialect
	a.DB = models.New(store.NewClient(store.NewSQLEngine(sqlDB, dialect, models.NewSchema()), observer))
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch env {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
