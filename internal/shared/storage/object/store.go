package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/util"
)

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore saves and retrieves blobs by key.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ExportKey names a resume export: exports/<hashed user>/<name>-<utc stamp>.json.
func ExportKey(userID, name string, at time.Time) string {
	base := util.Slug(name)
	if base == "" {
		base = "resume"
	}
	file := fmt.Sprintf("%s-%s.json", base, at.UTC().Format("20060102T150405Z"))
	return path.Join("exports", util.HashUserKey(userID), file)
}

// CleanKey rejects absolute keys and traversal.
func CleanKey(key string) (string, error) {
	clean := path.Clean(strings.TrimLeft(strings.TrimSpace(key), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
