package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("cache object not found")

// Object is an assembled page snapshot.
type Object struct {
	Body        []byte
	ContentType string
	Encoding    string
	UpdatedAt   time.Time
}

// Store keeps page snapshots. S3Store is used when a bucket is configured,
// MemoryStore otherwise.
type Store interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, key string, obj Object) error
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
	Delete(ctx context.Context, key string) error
}

// PageKey is the snapshot key for a page path rendered for a locale.
func PageKey(locale, path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		path = "index"
	}
	return "page/" + locale + "/" + path
}
