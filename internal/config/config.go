package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nascp/portal/internal/catalog"
)

type Config struct {
	ListenAddr   string
	APIBaseURL   string
	LayoutFile   string
	LogLevel     string
	WarmSchedule string

	RedisAddr     string
	RedisDB       int
	RedisPassword string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string

	CDNPurgeURL string

	PageTTLSeconds      int
	LockTTLSeconds      int
	MaxLockWaitSeconds  int
	FetchTimeoutSeconds int
	BuildTimeoutSeconds int
	BackoffMillis       int
	UpstreamRPS         float64

	Catalog catalog.Catalog
}

var defaults = map[string]any{
	"listen_addr":           ":8080",
	"log_level":             "info",
	"redis_db":              0,
	"s3_region":             "us-east-1",
	"page_ttl_seconds":      60,
	"lock_ttl_seconds":      45,
	"max_lock_wait_seconds": 3,
	"fetch_timeout_seconds": 12,
	"build_timeout_seconds": 25,
	"backoff_millis":        200,
	"upstream_rps":          0,
}

// NewViper returns a viper instance reading PORTAL_* environment variables
// with the defaults applied. Commands bind their flags into it.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("portal")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

// Load reads the configuration. When the "config" key names a file it is
// read first; the file may also replace the endpoint catalog.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		ListenAddr:          v.GetString("listen_addr"),
		APIBaseURL:          v.GetString("api_base_url"),
		LayoutFile:          v.GetString("layout_file"),
		LogLevel:            v.GetString("log_level"),
		WarmSchedule:        v.GetString("warm_schedule"),
		RedisAddr:           v.GetString("redis_addr"),
		RedisDB:             v.GetInt("redis_db"),
		RedisPassword:       v.GetString("redis_password"),
		S3Endpoint:          v.GetString("s3_endpoint"),
		S3Region:            v.GetString("s3_region"),
		S3Bucket:            v.GetString("s3_bucket"),
		S3Prefix:            v.GetString("s3_prefix"),
		S3AccessKey:         v.GetString("s3_access_key"),
		S3SecretKey:         v.GetString("s3_secret_key"),
		CDNPurgeURL:         v.GetString("cdn_purge_url"),
		PageTTLSeconds:      v.GetInt("page_ttl_seconds"),
		LockTTLSeconds:      v.GetInt("lock_ttl_seconds"),
		MaxLockWaitSeconds:  v.GetInt("max_lock_wait_seconds"),
		FetchTimeoutSeconds: v.GetInt("fetch_timeout_seconds"),
		BuildTimeoutSeconds: v.GetInt("build_timeout_seconds"),
		BackoffMillis:       v.GetInt("backoff_millis"),
		UpstreamRPS:         v.GetFloat64("upstream_rps"),
		Catalog:             catalog.Default(),
	}

	if v.IsSet("endpoints") {
		var eps []catalog.EndpointSpec
		if err := v.UnmarshalKey("endpoints", &eps); err != nil {
			return cfg, fmt.Errorf("endpoints: %w", err)
		}
		cfg.Catalog.Endpoints = eps
	}
	if v.IsSet("carousel") {
		if err := v.UnmarshalKey("carousel", &cfg.Catalog.Carousel); err != nil {
			return cfg, fmt.Errorf("carousel: %w", err)
		}
	}

	if cfg.APIBaseURL == "" {
		return cfg, errors.New("PORTAL_API_BASE_URL is required")
	}
	if cfg.S3Bucket != "" && (cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return cfg, errors.New("S3 endpoint/access/secret are required when a bucket is set")
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return cfg, errors.New("fetch timeout must be positive")
	}
	if cfg.BuildTimeoutSeconds <= 0 {
		return cfg, errors.New("build timeout must be positive")
	}
	if cfg.LockTTLSeconds <= cfg.BuildTimeoutSeconds {
		return cfg, fmt.Errorf("lock TTL (%ds) must outlast the build timeout (%ds)", cfg.LockTTLSeconds, cfg.BuildTimeoutSeconds)
	}
	if err := cfg.Catalog.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) S3Enabled() bool { return c.S3Bucket != "" }

func (c Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c Config) PageTTL() time.Duration { return time.Duration(c.PageTTLSeconds) * time.Second }

func (c Config) LockTTL() time.Duration { return time.Duration(c.LockTTLSeconds) * time.Second }

func (c Config) MaxLockWait() time.Duration {
	return time.Duration(c.MaxLockWaitSeconds) * time.Second
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// BuildTimeout bounds one page assembly. Sections still loading when it
// passes render their failure message.
func (c Config) BuildTimeout() time.Duration {
	return time.Duration(c.BuildTimeoutSeconds) * time.Second
}

// WriteTimeout leaves room after BuildTimeout to send the page.
func (c Config) WriteTimeout() time.Duration { return c.BuildTimeout() + 10*time.Second }

func (c Config) Backoff() time.Duration { return time.Duration(c.BackoffMillis) * time.Millisecond }
