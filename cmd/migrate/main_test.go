package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunUpAndDown(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "migrate.db")
	for _, cmd := range []string{"up", "status", "down", "up"} {
		if err := run(context.Background(), url, cmd); err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "migrate.db")
	err := run(context.Background(), url, "redo")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunRequiresDatabaseURL(t *testing.T) {
	if err := run(context.Background(), "", "up"); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}
