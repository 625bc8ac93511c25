package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "OBJECT_STORE", "DATABASE_URL", "DEV_QUERY", "WRITE_BURST"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := FromViper(newViper())
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "dev" || cfg.DevQuery {
		t.Fatalf("expected dev env with dev query disabled, got %q %v", cfg.Env, cfg.DevQuery)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local object store, got %q", cfg.ObjectStoreType)
	}
	if cfg.WriteBurst != 20 || cfg.WriteRatePerSecond != 5 {
		t.Fatalf("unexpected write limits: %v/%d", cfg.WriteRatePerSecond, cfg.WriteBurst)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DATABASE_URL", " sqlite://data/app.db ")
	t.Setenv("WRITE_BURST", "3")
	t.Setenv("DEV_QUERY", "true")

	cfg := FromViper(newViper())
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3, got %q", cfg.ObjectStoreType)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.DatabaseURL != "sqlite://data/app.db" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.WriteBurst != 3 {
		t.Fatalf("expected burst 3, got %d", cfg.WriteBurst)
	}
	if !cfg.DevQuery {
		t.Fatalf("expected DEV_QUERY=true to enable dev query")
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CFG_TEST_A=from-file\nCFG_TEST_B=\"quoted\"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFG_TEST_A", "from-env")
	t.Setenv("CFG_TEST_B", "")
	os.Unsetenv("CFG_TEST_B")

	loadEnvFiles(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("CFG_TEST_A"); got != "from-env" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
	if got := os.Getenv("CFG_TEST_B"); got != "quoted" {
		t.Fatalf("expected value from file, got %q", got)
	}
}

func TestDevQueryIsOptIn(t *testing.T) {
	for _, env := range []string{"", "dev", "develop", "local"} {
		t.Setenv("ENV", env)
		t.Setenv("DEV_QUERY", "")
		os.Unsetenv("DEV_QUERY")

		if cfg := FromViper(newViper()); cfg.DevQuery {
			t.Fatalf("ENV=%q: dev query must stay off without DEV_QUERY", env)
		}
	}

	t.Setenv("DEV_QUERY", "false")
	if cfg := FromViper(newViper()); cfg.DevQuery {
		t.Fatalf("DEV_QUERY=false should keep dev query off")
	}
}
