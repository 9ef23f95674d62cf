package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is the most recent successful response for a URL.
type Entry struct {
	URL       string          `json:"url"`
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	if e.FetchedAt.IsZero() || ttl <= 0 {
		return false
	}
	return now.Sub(e.FetchedAt) < ttl
}

// Cache holds fetched responses keyed by URL. Stale entries are kept and
// overwritten by the next successful fetch; only Delete removes them.
type Cache interface {
	Get(ctx context.Context, url string) (Entry, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, url string) error
}
