package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/nascp/portal/internal/cache"
	"github.com/nascp/portal/internal/config"
	"github.com/nascp/portal/internal/fetch"
	"github.com/nascp/portal/internal/lock"
	"github.com/nascp/portal/internal/page"
	"github.com/nascp/portal/internal/upstream"
)

// components holds the pieces shared by serve and render.
type components struct {
	fetcher *fetch.Fetcher
	pages   *page.Assembler
	store   cache.Store
	locker  lock.Locker
	redis   *redis.Client
}

func (c *components) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

func wire(ctx context.Context, cfg config.Config, logger *log.Logger) (*components, error) {
	c := &components{
		store:  cache.NewMemoryStore(),
		locker: lock.NewLocalLocker(),
	}

	var fetchCache cache.Cache = cache.NewMemoryCache()
	if cfg.RedisEnabled() {
		c.redis = lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		fetchCache = cache.NewRedisCache(c.redis)
		c.locker = lock.NewRedisLocker(c.redis)
	}

	if cfg.S3Enabled() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		)
		if err != nil {
			return nil, err
		}
		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		})
		c.store = cache.NewS3Store(cfg.S3Bucket, cfg.S3Prefix, s3Client)
	}

	client, err := upstream.NewClient(cfg.APIBaseURL, cfg.FetchTimeout())
	if err != nil {
		return nil, err
	}
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.FetchTimeout()),
		fetch.WithBackoff(cfg.Backoff()),
		fetch.WithLogger(logger),
	}
	if cfg.UpstreamRPS > 0 {
		opts = append(opts, fetch.WithRateLimit(cfg.UpstreamRPS, len(cfg.Catalog.URLs())))
	}
	c.fetcher = fetch.New(client, fetchCache, opts...)

	layout, err := page.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return nil, err
	}
	c.pages = page.New(c.fetcher, cfg.Catalog, layout, logger)

	logger.Info("components ready",
		"redis", cfg.RedisEnabled(),
		"s3", cfg.S3Enabled(),
		"endpoints", len(cfg.Catalog.Endpoints),
	)
	return c, nil
}
