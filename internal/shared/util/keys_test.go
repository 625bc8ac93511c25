package util

import (
	"strings"
	"testing"
)

func TestHashUserKey(t *testing.T) {
	id := "google:12345"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if len(got) != 64 || strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 hex characters, got %q", got)
	}
	if got == HashUserKey("google:12346") {
		t.Fatalf("expected distinct hashes")
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Jane Doe":            "jane-doe",
		"  Jane   Doe  ":      "jane-doe",
		"../..":               "",
		"a/b\\c":              "a-b-c",
		"Zoë Smith":           "zo-smith",
		"Senior Engineer, II": "senior-engineer-ii",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
	long := Slug(strings.Repeat("ab ", 40))
	if len(long) > maxSlugLen || strings.HasSuffix(long, "-") {
		t.Fatalf("unexpected long slug %q", long)
	}
}
