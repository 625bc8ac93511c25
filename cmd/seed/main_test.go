package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/models"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/resumes"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/users"
)

func TestSeedFileLoadsFixture(t *testing.T) {
	ctx := context.Background()
	db := models.NewMemory()
	userSvc := users.NewService(db)
	resumeSvc := resumes.NewService(db, nil)

	r, err := seedFile(ctx, userSvc, resumeSvc, filepath.Join("testdata", "jane.yaml"))
	if err != nil {
		t.Fatalf("seedFile: %v", err)
	}
	if r.UserID == nil || *r.UserID != "seed:jane" {
		t.Fatalf("unexpected owner %v", r.UserID)
	}
	if len(r.Works) != 2 || len(r.Works[0].Tasks) != 2 {
		t.Fatalf("unexpected works %+v", r.Works)
	}
	if r.Contact == nil || len(r.Contact.Socials) != 1 {
		t.Fatalf("unexpected contact %+v", r.Contact)
	}

	// seeding twice replaces the tree instead of duplicating it
	again, err := seedFile(ctx, userSvc, resumeSvc, filepath.Join("testdata", "jane.yaml"))
	if err != nil {
		t.Fatalf("seedFile again: %v", err)
	}
	if again.ID != r.ID || len(again.Skills) != 3 {
		t.Fatalf("expected replaced resume, got %s with %d skills", again.ID, len(again.Skills))
	}
}

func TestSeedFileRejectsInvalidResume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	body := "user:\n  id: seed:bob\n  email: bob@example.com\nresume:\n  works:\n    - company: Acme\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	db := models.NewMemory()
	_, err := seedFile(context.Background(), users.NewService(db), resumes.NewService(db, nil), path)
	if err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSeedFileRequiresResume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("user:\n  id: seed:x\n  email: x@example.com\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	db := models.NewMemory()
	if _, err := seedFile(context.Background(), users.NewService(db), resumes.NewService(db, nil), path); err == nil {
		t.Fatalf("expected missing resume error")
	}
}
