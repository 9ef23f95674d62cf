package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpx "github.com/nascp/portal/internal/http"
	"github.com/nascp/portal/internal/purge"
	"github.com/nascp/portal/internal/warm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assembled page over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("listen-addr", ":8080", "address to listen on")
	flags.String("warm-schedule", "", "cron schedule for rebuilding snapshots, e.g. \"0 */5 * * * *\"")
	bindFlags(flags)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return err
	}
	defer c.Close()

	handler := httpx.NewHandler(cfg, c.store, c.pages, c.locker, logger)
	purgeHandler := &purge.Handler{
		Fetcher:   c.fetcher,
		Pages:     handler,
		Cache:     c.store,
		Endpoints: cfg.Catalog.URLs(),
		CDNPurge:  cfg.CDNPurgeURL,
		Logger:    logger,
	}

	if cfg.WarmSchedule != "" {
		cr, err := warm.New(handler, logger).Start(cfg.WarmSchedule)
		if err != nil {
			return err
		}
		defer cr.Stop()
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      httpx.NewRouter(handler, purgeHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}
