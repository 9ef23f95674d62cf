package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/nascp/portal/internal/cache"
	"github.com/nascp/portal/internal/clock"
	"github.com/nascp/portal/internal/config"
	"github.com/nascp/portal/internal/dom"
	"github.com/nascp/portal/internal/lang"
	"github.com/nascp/portal/internal/lock"
	"github.com/nascp/portal/internal/page"
)

const (
	cacheStatusHeader   = "X-Portal-Cache"
	sectionStatusHeader = "X-Portal-Section"
	htmlContentType     = "text/html; charset=utf-8"
)

// Handler serves assembled pages, keeping snapshots in Cache for the
// configured page TTL. Snapshots with failed sections are served but never
// stored.
type Handler struct {
	Cfg    config.Config
	Cache  cache.Store
	Pages  *page.Assembler
	Locker lock.Locker
	Clock  clock.Clock
	Logger *log.Logger

	// BuildTimeout bounds each page assembly; zero means no bound.
	BuildTimeout time.Duration
}

var errNotStored = errors.New("page had failed sections")

func NewHandler(cfg config.Config, store cache.Store, pages *page.Assembler, locker lock.Locker, logger *log.Logger) *Handler {
	return &Handler{
		Cfg:    cfg,
		Cache:  store,
		Pages:  pages,
		Locker: locker,
		Clock:  clock.Real(),
		Logger: logger,

		BuildTimeout: cfg.BuildTimeout(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	info := ClassifyRequest(r)
	if info.Reason == "not-page" || info.Reason == "method-not-get" {
		http.NotFound(w, r)
		return
	}
	if !info.Cacheable {
		h.serveFresh(w, r, info.Locale)
		return
	}

	key := cache.PageKey(info.Locale, info.Path)
	obj, err := h.Cache.Get(r.Context(), key)
	if err == nil {
		if !h.isExpired(obj.UpdatedAt) {
			writeObject(w, obj, "HIT")
			return
		}
		if h.tryRefreshExpired(w, r, key, info) {
			return
		}
		writeObject(w, obj, "STALE")
		return
	}
	if !errors.Is(err, cache.ErrNotFound) {
		h.Logger.Warn("snapshot read failed", "key", key, "err", err)
		h.serveFresh(w, r, info.Locale)
		return
	}

	obj, ok := h.getWithLock(r.Context(), key, info)
	if ok {
		writeObject(w, obj, "MISS")
		return
	}

	h.serveFresh(w, r, info.Locale)
}

// ServeSection renders a single container. The response is the container's
// inner HTML.
func (h *Handler) ServeSection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	locale := lang.LocaleFromAcceptLanguage(r.Header.Get("Accept-Language"))
	if l, ok := supportedLocale(r.URL.Query().Get("lang")); ok {
		locale = l
	}

	doc, err := h.Pages.NewDocument()
	if err != nil {
		http.Error(w, "layout unavailable", http.StatusInternalServerError)
		return
	}
	ctx, cancel := h.buildContext(r.Context())
	defer cancel()
	res, err := h.Pages.RenderSection(ctx, doc, id, locale)
	var missing *dom.MissingContainerError
	if errors.Is(err, page.ErrUnknownSection) || errors.As(res.Err, &missing) {
		http.NotFound(w, r)
		return
	}
	c, err := doc.Lookup(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	status := "ok"
	if res.Err != nil {
		status = "failed"
	} else if res.Fallback {
		status = "fallback"
	}
	w.Header().Set("Content-Type", htmlContentType)
	w.Header().Set(sectionStatusHeader, status)
	w.WriteHeader(http.StatusOK)
	_ = c.RenderInner(w)
}

// Refresh renders the page for locale and stores it, unless another holder
// is already refreshing it.
func (h *Handler) Refresh(ctx context.Context, locale string) error {
	key := cache.PageKey(locale, "/")
	l, ok, err := h.Locker.TryLock(ctx, "lock:"+key, h.Cfg.LockTTL())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	defer l.Unlock(ctx)

	_, err = h.renderAndStore(ctx, key, locale)
	if errors.Is(err, errNotStored) {
		return nil
	}
	return err
}

func (h *Handler) serveFresh(w http.ResponseWriter, r *http.Request, locale string) {
	body, _, err := h.assemble(r.Context(), locale)
	if err != nil {
		h.Logger.Error("page assembly failed", "err", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	writeObject(w, cache.Object{Body: body, ContentType: htmlContentType}, "BYPASS")
}

func (h *Handler) getWithLock(ctx context.Context, key string, info RequestInfo) (cache.Object, bool) {
	lockKey := "lock:" + key
	deadline := h.Clock.Now().Add(h.Cfg.MaxLockWait())

	for {
		l, ok, err := h.Locker.TryLock(ctx, lockKey, h.Cfg.LockTTL())
		if err != nil {
			h.Logger.Warn("lock failed", "key", lockKey, "err", err)
			return cache.Object{}, false
		}
		if ok {
			defer l.Unlock(ctx)
			obj, err := h.Cache.Get(ctx, key)
			if err == nil {
				return obj, true
			}
			obj, err = h.renderAndStore(ctx, key, info.Locale)
			if err != nil && !errors.Is(err, errNotStored) {
				return cache.Object{}, false
			}
			return obj, true
		}

		obj, err := h.Cache.Get(ctx, key)
		if err == nil {
			return obj, true
		}

		if h.Clock.Now().After(deadline) {
			return cache.Object{}, false
		}
		select {
		case <-ctx.Done():
			return cache.Object{}, false
		case <-h.Clock.After(50 * time.Millisecond):
		}
	}
}

func (h *Handler) tryRefreshExpired(w http.ResponseWriter, r *http.Request, key string, info RequestInfo) bool {
	l, ok, err := h.Locker.TryLock(r.Context(), "lock:"+key, h.Cfg.LockTTL())
	if err != nil || !ok {
		return false
	}
	defer l.Unlock(r.Context())

	current, err := h.Cache.Get(r.Context(), key)
	if err == nil && !h.isExpired(current.UpdatedAt) {
		writeObject(w, current, "HIT")
		return true
	}

	fresh, err := h.renderAndStore(r.Context(), key, info.Locale)
	if err != nil {
		return false
	}
	writeObject(w, fresh, "REFRESH")
	return true
}

// renderAndStore assembles the page and stores it when every section
// rendered. With failed sections it returns the page and errNotStored.
func (h *Handler) renderAndStore(ctx context.Context, key, locale string) (cache.Object, error) {
	body, report, err := h.assemble(ctx, locale)
	if err != nil {
		return cache.Object{}, err
	}
	obj := cache.Object{
		Body:        body,
		ContentType: htmlContentType,
		UpdatedAt:   h.Clock.Now().UTC(),
	}
	if report.Failed() > 0 {
		return obj, errNotStored
	}
	if err := h.Cache.Put(ctx, key, obj); err != nil {
		h.Logger.Warn("snapshot write failed", "key", key, "err", err)
		return obj, nil
	}
	return obj, nil
}

func (h *Handler) buildContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.BuildTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.BuildTimeout)
}

// assemble builds the page within BuildTimeout. Sections that miss the
// deadline show their failure message, so the page is still written before
// the server's write timeout.
func (h *Handler) assemble(ctx context.Context, locale string) ([]byte, page.Report, error) {
	ctx, cancel := h.buildContext(ctx)
	defer cancel()
	return h.Pages.Page(ctx, locale)
}

func (h *Handler) isExpired(updatedAt time.Time) bool {
	if updatedAt.IsZero() {
		return true
	}
	ttl := h.Cfg.PageTTL()
	if ttl <= 0 {
		return false
	}
	return updatedAt.Add(ttl).Before(h.Clock.Now())
}

func writeObject(w http.ResponseWriter, obj cache.Object, cacheStatus string) {
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Encoding != "" {
		w.Header().Set("Content-Encoding", obj.Encoding)
	}
	w.Header().Set(cacheStatusHeader, cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Body)
}
