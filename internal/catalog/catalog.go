// Package catalog is the static list of sections on the portal home page:
// which endpoint feeds which container, and with which renderer.
package catalog

import (
	"fmt"
	"time"

	"github.com/nascp/portal/internal/fetch"
	"github.com/nascp/portal/internal/render"
)

const (
	FileList       = "file-list"
	ContentList    = "content-list"
	DepartmentGrid = "department-grid"
)

// EndpointSpec binds an endpoint to a container and a renderer name.
type EndpointSpec struct {
	URL         string `mapstructure:"url" json:"url"`
	ContainerID string `mapstructure:"container_id" json:"container_id"`
	Renderer    string `mapstructure:"renderer" json:"renderer"`
}

// CarouselSpec describes the merged news and events carousel.
type CarouselSpec struct {
	NewsURL     string `mapstructure:"news_url"`
	EventsURL   string `mapstructure:"events_url"`
	FallbackURL string `mapstructure:"fallback_url"`
	ContainerID string `mapstructure:"container_id"`
}

type Catalog struct {
	Endpoints []EndpointSpec
	Carousel  CarouselSpec

	Section  fetch.Options
	News     fetch.Options
	Fallback fetch.Options
}

// Default returns the home page catalog.
func Default() Catalog {
	return Catalog{
		Endpoints: DefaultEndpoints(),
		Carousel: CarouselSpec{
			NewsURL:     "/api/top-news-contents/",
			EventsURL:   "/api/top-events-contents/",
			FallbackURL: "/api/latest-news-events/",
			ContainerID: "news-events-carousel-inner",
		},
		Section:  fetch.Options{Retries: 2, CacheTTL: 90 * time.Second},
		News:     fetch.Options{Retries: 2, CacheTTL: 60 * time.Second},
		Fallback: fetch.Options{Retries: 1, CacheTTL: 60 * time.Second},
	}
}

func DefaultEndpoints() []EndpointSpec {
	return []EndpointSpec{
		{"/api/files/", "file-list", FileList},
		{"/api/top-reports-files/", "top-reports-files-list", FileList},
		{"/api/top-publications-files/", "top-publications-files-list", FileList},
		{"/api/top-resources-files/", "top-resources-files-list", FileList},
		{"/api/top-analysis-files/", "top-analysis-files-list", FileList},
		{"/api/all-reports-files-by-slug/", "all-reports-files-list", FileList},
		{"/api/all-publications-files/", "all-publications-files-list", FileList},
		{"/api/all-resources-files/", "all-resources-files-list", FileList},
		{"/api/top-video-files/", "top-video-files-list", FileList},
		{"/api/top-image-files/", "top-image-files-list", FileList},
		{"/api/all-video-files/", "all-video-files-list", FileList},
		{"/api/all-image-files/", "all-image-files-list", FileList},

		{"/api/latest-news-events/", "latest-news-events-list", ContentList},
		{"/api/department-contents/", "department-contents-list", DepartmentGrid},
		{"/api/top-blogs-contents/", "top-blogs-contents-list", ContentList},
		{"/api/top-projects-contents/", "top-projects-contents-list", ContentList},
		{"/api/all-news-contents/", "all-news-contents-list", ContentList},
		{"/api/all-events-contents/", "all-events-contents-list", ContentList},
		{"/api/all-blogs-contents/", "all-blogs-contents-list", ContentList},
		{"/api/all-projects-contents/", "all-projects-contents-list", ContentList},
	}
}

// Validate checks that every endpoint names a known renderer and that
// container ids are unique.
func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		if ep.URL == "" || ep.ContainerID == "" {
			return fmt.Errorf("endpoint %+v: url and container id are required", ep)
		}
		if _, ok := render.Lookup(ep.Renderer); !ok {
			return fmt.Errorf("endpoint %s: unknown renderer %q (known: %v)", ep.URL, ep.Renderer, render.Names())
		}
		if _, dup := seen[ep.ContainerID]; dup {
			return fmt.Errorf("container %q is used by more than one endpoint", ep.ContainerID)
		}
		seen[ep.ContainerID] = struct{}{}
	}
	if c.Carousel.ContainerID == "" || c.Carousel.NewsURL == "" || c.Carousel.EventsURL == "" {
		return fmt.Errorf("carousel needs news, events and a container")
	}
	return nil
}

// Find returns the endpoint rendering into containerID.
func (c Catalog) Find(containerID string) (EndpointSpec, bool) {
	for _, ep := range c.Endpoints {
		if ep.ContainerID == containerID {
			return ep, true
		}
	}
	return EndpointSpec{}, false
}

// URLs lists every endpoint URL the catalog fetches, carousel included.
func (c Catalog) URLs() []string {
	urls := make([]string, 0, len(c.Endpoints)+3)
	seen := map[string]struct{}{}
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	for _, ep := range c.Endpoints {
		add(ep.URL)
	}
	add(c.Carousel.NewsURL)
	add(c.Carousel.EventsURL)
	add(c.Carousel.FallbackURL)
	return urls
}
