package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "http://api.internal")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.FetchTimeout() != 12*time.Second || cfg.Backoff() != 200*time.Millisecond {
		t.Errorf("timeout %s backoff %s", cfg.FetchTimeout(), cfg.Backoff())
	}
	if cfg.BuildTimeout() != 25*time.Second || cfg.WriteTimeout() <= cfg.BuildTimeout() || cfg.LockTTL() <= cfg.BuildTimeout() {
		t.Errorf("build %s write %s lock %s", cfg.BuildTimeout(), cfg.WriteTimeout(), cfg.LockTTL())
	}
	if cfg.S3Enabled() || cfg.RedisEnabled() {
		t.Error("optional backends enabled by default")
	}
	if len(cfg.Catalog.Endpoints) != 20 {
		t.Errorf("%d endpoints", len(cfg.Catalog.Endpoints))
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "http://api.internal")
	t.Setenv("PORTAL_LISTEN_ADDR", ":9090")
	t.Setenv("PORTAL_REDIS_ADDR", "redis:6379")
	t.Setenv("PORTAL_PAGE_TTL_SECONDS", "300")
	t.Setenv("PORTAL_UPSTREAM_RPS", "2.5")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9090" || !cfg.RedisEnabled() || cfg.PageTTL() != 5*time.Minute || cfg.UpstreamRPS != 2.5 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRequiresAPIBaseURL(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "")
	if _, err := Load(NewViper()); err == nil || !strings.Contains(err.Error(), "API_BASE_URL") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadRejectsPartialS3(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "http://api.internal")
	t.Setenv("PORTAL_S3_BUCKET", "snapshots")
	if _, err := Load(NewViper()); err == nil {
		t.Error("partial S3 config accepted")
	}
}

func TestLoadRejectsBuildOutlastingLock(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "http://api.internal")
	t.Setenv("PORTAL_BUILD_TIMEOUT_SECONDS", "60")
	if _, err := Load(NewViper()); err == nil || !strings.Contains(err.Error(), "lock TTL") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "portal.yaml")
	content := `
api_base_url: http://api.internal
endpoints:
  - url: /api/files/
    container_id: file-list
    renderer: file-list
  - url: /api/department-contents/
    container_id: departments
    renderer: department-grid
carousel:
  container_id: slides
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	v := NewViper()
	v.Set("config", file)
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Catalog.Endpoints) != 2 || cfg.Catalog.Endpoints[1].ContainerID != "departments" {
		t.Errorf("endpoints = %+v", cfg.Catalog.Endpoints)
	}
	if cfg.Catalog.Carousel.ContainerID != "slides" || cfg.Catalog.Carousel.NewsURL != "/api/top-news-contents/" {
		t.Errorf("carousel = %+v", cfg.Catalog.Carousel)
	}
}

func TestLoadRejectsUnknownRenderer(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "portal.yaml")
	content := "api_base_url: http://api.internal\nendpoints:\n  - url: /x/\n    container_id: x\n    renderer: table\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	v := NewViper()
	v.Set("config", file)
	if _, err := Load(v); err == nil || !strings.Contains(err.Error(), "unknown renderer") {
		t.Errorf("err = %v", err)
	}
}
