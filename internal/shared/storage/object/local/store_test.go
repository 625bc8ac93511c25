package local

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/storage/object"
)

func TestPutAndOpen(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	n, err := s.Put(ctx, "exports/u/a.json", "application/json", strings.NewReader(`{"name":"Jane"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 15 {
		t.Fatalf("expected 15 bytes, got %d", n)
	}
	if _, err := s.Put(ctx, "exports/u/a.json", "application/json", strings.NewReader(`{}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	rc, err := s.Open(ctx, "exports/u/a.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	if _, err := s.Put(ctx, "../escape.json", "", strings.NewReader("x")); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := s.Open(ctx, "../../etc/passwd"); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Open(context.Background(), "exports/none.json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}
