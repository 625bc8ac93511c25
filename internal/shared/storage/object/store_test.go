package object

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExportKey(t *testing.T) {
	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	key := ExportKey("user-1", "Jane Doe", at)
	if !strings.HasPrefix(key, "exports/") || !strings.HasSuffix(key, "/jane-doe-20240304T050607Z.json") {
		t.Fatalf("unexpected key %q", key)
	}
	if strings.Contains(key, "user-1") {
		t.Fatalf("expected user id to be hashed, got %q", key)
	}

	fallback := ExportKey("user-1", "../..", at)
	if !strings.HasSuffix(fallback, "/resume-20240304T050607Z.json") {
		t.Fatalf("expected fallback name, got %q", fallback)
	}
}

func TestCleanKey(t *testing.T) {
	good := map[string]string{
		"exports/a/b.json":  "exports/a/b.json",
		"/exports/a.json":   "exports/a.json",
		"exports/./a.json":  "exports/a.json",
		"exports/x/../a.js": "exports/a.js",
	}
	for in, want := range good {
		got, err := CleanKey(in)
		if err != nil || got != want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "..", "../etc/passwd", "a/../../b"} {
		if _, err := CleanKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CleanKey(%q) err = %v, want ErrInvalidKey", bad, err)
		}
	}
}
