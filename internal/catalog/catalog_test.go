package catalog

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(c.Endpoints) != 20 {
		t.Errorf("%d endpoints, want 20", len(c.Endpoints))
	}
	if ep, ok := c.Find("department-contents-list"); !ok || ep.Renderer != DepartmentGrid {
		t.Errorf("Find = %+v, %v", ep, ok)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Catalog)
		want   string
	}{
		{"unknown renderer", func(c *Catalog) { c.Endpoints[0].Renderer = "table" }, "unknown renderer"},
		{"duplicate container", func(c *Catalog) { c.Endpoints[1].ContainerID = c.Endpoints[0].ContainerID }, "more than one"},
		{"missing url", func(c *Catalog) { c.Endpoints[2].URL = "" }, "required"},
		{"no carousel", func(c *Catalog) { c.Carousel.ContainerID = "" }, "carousel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestURLsAreUnique(t *testing.T) {
	urls := Default().URLs()
	seen := map[string]bool{}
	for _, u := range urls {
		if seen[u] {
			t.Errorf("duplicate %s", u)
		}
		seen[u] = true
	}
	// latest-news-events is both a section and the carousel fallback.
	if len(urls) != 22 {
		t.Errorf("%d urls, want 22", len(urls))
	}
}
