package main

// Load a resume fixture into the configured database:
//   go run ./cmd/seed -file cmd/seed/testdata/jane.yaml

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/bootstrap"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/config"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/users"
)

// fixture is one seeded account. The resume block uses the same field names as the JSON API.
type fixture struct {
	User struct {
		ID    string `yaml:"id"`
		Email string `yaml:"email"`
		Name  string `yaml:"name"`
	} `yaml:"user"`
	Resume map[string]any `yaml:"resume"`
}

type accounts interface {
	UpsertFromAuth(ctx context.Context, id users.Identity) (models.User, error)
}

type importer interface {
	Import(ctx context.Context, userID string, raw []byte) (models.Resume, error)
}

func main() {
	file := flag.String("file", "", "path to a YAML resume fixture")
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -file fixture.yaml")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("seed.bootstrap_failed", map[string]any{"err": err})
		os.Exit(1)
	}
	defer app.Close()
	if app.Backend == "memory" {
		telemetry.Warn("seed.memory_backend", map[string]any{"hint": "set DATABASE_URL to keep seeded data"})
	}

	resume, err := seedFile(ctx, app.UsersService, app.ResumesService, *file)
	if err != nil {
		telemetry.Error("seed.failed", map[string]any{"file": *file, "err": err})
		os.Exit(1)
	}
	telemetry.Info("seed.done", map[string]any{"file": *file, "resume_id": resume.ID, "user_id": *resume.UserID})
}

func seedFile(ctx context.Context, acc accounts, imp importer, path string) (models.Resume, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Resume{}, err
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return models.Resume{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if fx.Resume == nil {
		return models.Resume{}, fmt.Errorf("%s: missing resume block", path)
	}

	user, err := acc.UpsertFromAuth(ctx, users.Identity{ID: fx.User.ID, Email: fx.User.Email, Name: fx.User.Name})
	if err != nil {
		return models.Resume{}, fmt.Errorf("upsert user: %w", err)
	}

	// the import path validates against the resume JSON schema
	doc, err := json.Marshal(fx.Resume)
	if err != nil {
		return models.Resume{}, fmt.Errorf("encode resume: %w", err)
	}
	return imp.Import(ctx, user.ID, doc)
}
