package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/nascp/portal/internal/cache"
	"github.com/nascp/portal/internal/clock"
	"github.com/nascp/portal/internal/upstream"
)

const (
	DefaultTimeout = 12 * time.Second
	DefaultBackoff = 200 * time.Millisecond
)

// Options controls a single Get call.
type Options struct {
	// Retries is the number of extra attempts after the first failure.
	Retries int
	// CacheTTL is how long a cached response is served without a network call.
	CacheTTL time.Duration
}

type Fetcher struct {
	client  *upstream.Client
	cache   cache.Cache
	clock   clock.Clock
	timeout time.Duration
	backoff time.Duration
	limiter *rate.Limiter
	logger  *log.Logger
	group   singleflight.Group
}

type Option func(*Fetcher)

func WithClock(c clock.Clock) Option {
	return func(f *Fetcher) { f.clock = c }
}

// WithTimeout sets the per-attempt wall-clock budget.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithBackoff sets the delay before the first retry. Each further retry waits
// twice as long as the previous one.
func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.backoff = d
		}
	}
}

// WithRateLimit caps outbound requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func New(client *upstream.Client, c cache.Cache, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  client,
		cache:   c,
		clock:   clock.Real(),
		timeout: DefaultTimeout,
		backoff: DefaultBackoff,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the JSON payload for url. A cached response younger than
// opts.CacheTTL is returned without touching the network. Otherwise the URL is
// fetched with up to opts.Retries retries; concurrent callers for the same URL
// share one fetch.
//
// The shared fetch is detached from the caller that started it and bounded
// by its own retry budget instead. A caller whose ctx ends stops waiting
// without failing the others.
func (f *Fetcher) Get(ctx context.Context, url string, opts Options) (json.RawMessage, error) {
	if payload, ok := f.cached(ctx, url, opts.CacheTTL); ok {
		return payload, nil
	}

	ch := f.group.DoChan(url, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.budget(opts))
		defer cancel()
		return f.fetch(fctx, url, opts)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.logger.Debug("shared in-flight fetch", "url", url)
		}
		return res.Val.(json.RawMessage), nil
	}
}

// budget is the longest a fetch with opts can take: every attempt timing
// out plus every backoff wait.
func (f *Fetcher) budget(opts Options) time.Duration {
	retries := max(opts.Retries, 0)
	waits := f.backoff * time.Duration(1<<retries-1)
	return time.Duration(retries+1)*f.timeout + waits
}

// Invalidate drops the cached response for url.
func (f *Fetcher) Invalidate(ctx context.Context, url string) error {
	return f.cache.Delete(ctx, url)
}

func (f *Fetcher) cached(ctx context.Context, url string, ttl time.Duration) (json.RawMessage, bool) {
	entry, err := f.cache.Get(ctx, url)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			f.logger.Warn("cache read failed", "url", url, "err", err)
		}
		return nil, false
	}
	if !entry.Fresh(f.clock.Now(), ttl) {
		return nil, false
	}
	return entry.Payload, true
}

func (f *Fetcher) fetch(ctx context.Context, url string, opts Options) (json.RawMessage, error) {
	retries := max(opts.Retries, 0)

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= retries; attempt++ {
		attempts++
		payload, err := f.attempt(ctx, url)
		if err == nil {
			f.store(ctx, url, payload)
			return payload, nil
		}
		lastErr = err
		f.logger.Debug("fetch attempt failed", "url", url, "attempt", attempts, "err", err)

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &FetchError{URL: url, Attempts: attempts, Err: ctx.Err()}
		case <-f.clock.After(f.backoff << attempt):
		}
	}
	return nil, &FetchError{URL: url, Attempts: attempts, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, url string) (json.RawMessage, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, body, err := f.client.Fetch(actx, url, http.Header{"Accept": {"application/json"}})
	if err != nil {
		if ctx.Err() == nil && isTimeout(actx, err) {
			return nil, &TimeoutError{URL: url, Timeout: f.timeout}
		}
		return nil, &NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("fetch %s: %w", url, ErrInvalidJSON)
	}
	f.logger.Debug("fetched", "url", url, "size", humanize.Bytes(uint64(len(body))))
	return json.RawMessage(body), nil
}

func (f *Fetcher) store(ctx context.Context, url string, payload json.RawMessage) {
	entry := cache.Entry{URL: url, FetchedAt: f.clock.Now(), Payload: payload}
	if err := f.cache.Set(ctx, entry); err != nil {
		f.logger.Warn("cache write failed", "url", url, "err", err)
	}
}

func isTimeout(actx context.Context, err error) bool {
	if errors.Is(actx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
