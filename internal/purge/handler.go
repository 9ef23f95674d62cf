package purge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nascp/portal/internal/cache"
	"github.com/nascp/portal/internal/lang"
)

const (
	purgeTimestampHeader = "X-Purge-Timestamp"
	endpointHeader       = "X-Endpoint-URL"
)

// Invalidator drops cached endpoint responses.
type Invalidator interface {
	Invalidate(ctx context.Context, url string) error
}

// Refresher re-renders and stores the page snapshot for a locale.
type Refresher interface {
	Refresh(ctx context.Context, locale string) error
}

// Handler answers PURGE requests sent after content changes upstream. It
// drops the cached response for one endpoint (or every endpoint when none
// is named), rebuilds the page snapshots, then purges the CDN.
type Handler struct {
	Fetcher    Invalidator
	Pages      Refresher
	Cache      cache.Store
	Endpoints  []string
	CDNPurge   string
	HTTPClient *http.Client
	Logger     *log.Logger
}

type purgePayload struct {
	URL string `json:"url"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	purgeTime := time.Now()
	if ts := strings.TrimSpace(r.Header.Get(purgeTimestampHeader)); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			http.Error(w, "invalid purge timestamp", http.StatusBadRequest)
			return
		}
		purgeTime = t
	}

	targets := h.Endpoints
	if u := readURL(r); u != "" {
		targets = []string{u}
	}

	ctx := r.Context()
	for _, u := range targets {
		if err := h.Fetcher.Invalidate(ctx, u); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
	for _, locale := range lang.Supported {
		if err := h.refreshLocale(ctx, locale, purgeTime); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
	h.Logger.Info("purged", "endpoints", len(targets), "at", purgeTime.Format(time.RFC3339))

	w.WriteHeader(http.StatusNoContent)
}

func readURL(r *http.Request) string {
	if v := r.URL.Query().Get("url"); v != "" {
		return v
	}
	if v := r.Header.Get(endpointHeader); v != "" {
		return v
	}
	if r.Body == nil {
		return ""
	}
	defer r.Body.Close()
	var payload purgePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		return strings.TrimSpace(payload.URL)
	}
	return ""
}

func (h *Handler) refreshLocale(ctx context.Context, locale string, purgeTime time.Time) error {
	key := cache.PageKey(locale, "/")
	updatedAt, err := h.Cache.UpdatedAt(ctx, key)
	if err == nil && updatedAt.After(purgeTime) {
		return nil
	}
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}

	if err := h.Cache.Delete(ctx, key); err != nil {
		return err
	}
	if err := h.Pages.Refresh(ctx, locale); err != nil {
		return fmt.Errorf("refresh %s: %w", locale, err)
	}
	return h.purgeCDN(ctx, localePath(locale))
}

func localePath(locale string) string {
	if locale == lang.DefaultLocale {
		return "/"
	}
	return "/" + strings.ToLower(locale) + "/"
}

func (h *Handler) purgeCDN(ctx context.Context, path string) error {
	if strings.TrimSpace(h.CDNPurge) == "" {
		return nil
	}
	base, err := url.Parse(h.CDNPurge)
	if err != nil {
		return err
	}
	base.Path = strings.TrimRight(base.Path, "/") + path
	req, err := http.NewRequestWithContext(ctx, "PURGE", base.String(), nil)
	if err != nil {
		return err
	}
	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cdn purge %s: HTTP %d", path, resp.StatusCode)
	}
	return nil
}
