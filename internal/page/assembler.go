// Package page assembles the portal page: every catalog section is fetched
// and rendered into its container concurrently, and the news and events
// carousel is built from two merged endpoints.
package page

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/nascp/portal/internal/catalog"
	"github.com/nascp/portal/internal/dom"
	"github.com/nascp/portal/internal/fetch"
	"github.com/nascp/portal/internal/render"
)

const FailedToLoad = "Sorry, this section failed to load."

var ErrUnknownSection = errors.New("section is not in the catalog")

// Getter is the part of fetch.Fetcher the assembler needs.
type Getter interface {
	Get(ctx context.Context, url string, opts fetch.Options) (json.RawMessage, error)
}

// SectionResult is the outcome for one container.
type SectionResult struct {
	ContainerID string
	URL         string
	// Fallback is set when the carousel was filled from its fallback endpoint.
	Fallback bool
	Err      error
}

type Report struct {
	Sections []SectionResult
	Carousel SectionResult
	Elapsed  time.Duration
}

// Failed counts sections, carousel included, that did not render their data.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Sections {
		if s.Err != nil {
			n++
		}
	}
	if r.Carousel.Err != nil {
		n++
	}
	return n
}

type Assembler struct {
	fetcher Getter
	catalog catalog.Catalog
	layout  string
	logger  *log.Logger
}

func New(f Getter, c catalog.Catalog, layout string, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{fetcher: f, catalog: c, layout: layout, logger: logger}
}

func (a *Assembler) Catalog() catalog.Catalog { return a.catalog }

// NewDocument parses a fresh copy of the page layout.
func (a *Assembler) NewDocument() (*dom.Document, error) {
	return dom.ParseString(a.layout)
}

// Page builds the whole page for locale and returns the rendered HTML.
func (a *Assembler) Page(ctx context.Context, locale string) ([]byte, Report, error) {
	doc, err := a.NewDocument()
	if err != nil {
		return nil, Report{}, fmt.Errorf("parse layout: %w", err)
	}
	report := a.Build(ctx, doc, locale)

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, report, err
	}
	return buf.Bytes(), report, nil
}

// Build renders every section and the carousel into doc. Sections are
// independent: a failure only affects its own container.
func (a *Assembler) Build(ctx context.Context, doc *dom.Document, locale string) Report {
	start := time.Now()
	endpoints := a.catalog.Endpoints
	report := Report{Sections: make([]SectionResult, len(endpoints))}

	var wg sync.WaitGroup
	for i, ep := range endpoints {
		i, ep := i, ep
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Sections[i] = a.renderEndpoint(ctx, doc, ep)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		report.Carousel = a.renderCarousel(ctx, doc, locale)
	}()
	wg.Wait()

	report.Elapsed = time.Since(start)
	a.logger.Info("page assembled", "locale", locale, "sections", len(endpoints)+1, "failed", report.Failed(), "elapsed", report.Elapsed)
	return report
}

// RenderSection renders only the container with the given id.
func (a *Assembler) RenderSection(ctx context.Context, doc *dom.Document, containerID, locale string) (SectionResult, error) {
	if containerID == a.catalog.Carousel.ContainerID {
		return a.renderCarousel(ctx, doc, locale), nil
	}
	ep, ok := a.catalog.Find(containerID)
	if !ok {
		return SectionResult{ContainerID: containerID}, ErrUnknownSection
	}
	return a.renderEndpoint(ctx, doc, ep), nil
}

func (a *Assembler) renderEndpoint(ctx context.Context, doc *dom.Document, ep catalog.EndpointSpec) (res SectionResult) {
	res = SectionResult{ContainerID: ep.ContainerID, URL: ep.URL}
	logger := a.logger.With("container", ep.ContainerID, "url", ep.URL)

	c, err := doc.Lookup(ep.ContainerID)
	if err != nil {
		logger.Error("container not found")
		res.Err = err
		return res
	}
	renderFn, ok := render.Lookup(ep.Renderer)
	if !ok {
		res.Err = fmt.Errorf("unknown renderer %q", ep.Renderer)
		c.SetMessage(FailedToLoad)
		return res
	}

	c.SetBusy(true)
	defer c.SetBusy(false)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("renderer panicked", "panic", r)
			c.SetMessage(FailedToLoad)
			res.Err = fmt.Errorf("render %s: %v", ep.ContainerID, r)
		}
	}()
	c.SetLoading()

	data, err := a.fetcher.Get(ctx, ep.URL, a.catalog.Section)
	if err != nil {
		logger.Error("section failed to load", "err", err)
		c.SetMessage(FailedToLoad)
		res.Err = err
		return res
	}
	renderFn(c, data)
	return res
}

func (a *Assembler) renderCarousel(ctx context.Context, doc *dom.Document, locale string) SectionResult {
	spec := a.catalog.Carousel
	res := SectionResult{ContainerID: spec.ContainerID, URL: spec.NewsURL}

	c, err := doc.Lookup(spec.ContainerID)
	if err != nil {
		a.logger.Error("carousel container not found", "container", spec.ContainerID)
		res.Err = err
		return res
	}
	c.SetBusy(true)
	defer c.SetBusy(false)

	var news, events json.RawMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		news, err = a.fetcher.Get(gctx, spec.NewsURL, a.catalog.News)
		return err
	})
	g.Go(func() (err error) {
		events, err = a.fetcher.Get(gctx, spec.EventsURL, a.catalog.News)
		return err
	})
	err = g.Wait()
	if err == nil {
		var items []render.NewsItem
		if items, err = render.DecodeNews(news, events); err == nil {
			render.Carousel(c, items, locale)
			return res
		}
	}
	a.logger.Warn("news and events failed, trying fallback", "err", err, "fallback", spec.FallbackURL)

	if spec.FallbackURL != "" {
		items, ferr := a.fallbackNews(ctx, spec.FallbackURL)
		if ferr == nil {
			render.Carousel(c, items, locale)
			res.URL = spec.FallbackURL
			res.Fallback = true
			return res
		}
		err = ferr
	}

	a.logger.Error("carousel unavailable", "err", err)
	render.CarouselUnavailable(c)
	res.Err = err
	return res
}

func (a *Assembler) fallbackNews(ctx context.Context, url string) ([]render.NewsItem, error) {
	combined, err := a.fetcher.Get(ctx, url, a.catalog.Fallback)
	if err != nil {
		return nil, err
	}
	return render.DecodeNews(combined)
}
