// Package warm rebuilds page snapshots on a cron schedule so that visitors
// rarely wait on a cold render.
package warm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron"

	"github.com/nascp/portal/internal/lang"
)

type Refresher interface {
	Refresh(ctx context.Context, locale string) error
}

type Warmer struct {
	Pages   Refresher
	Locales []string
	Timeout time.Duration
	Logger  *log.Logger
}

func New(pages Refresher, logger *log.Logger) *Warmer {
	return &Warmer{
		Pages:   pages,
		Locales: lang.Supported,
		Timeout: time.Minute,
		Logger:  logger,
	}
}

// Run refreshes every locale once. A failing locale does not stop the
// others; the failures are joined into the returned error.
func (w *Warmer) Run(ctx context.Context) error {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	var errs []error
	for _, locale := range w.Locales {
		if err := w.Pages.Refresh(ctx, locale); err != nil {
			w.Logger.Warn("warm-up failed", "locale", locale, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", locale, err))
			continue
		}
		w.Logger.Debug("warmed", "locale", locale)
	}
	return errors.Join(errs...)
}

// Start schedules Run. The schedule uses the six-field cron format with a
// leading seconds field, e.g. "0 */5 * * * *". Stop the returned cron to
// end the schedule.
func (w *Warmer) Start(schedule string) (*cron.Cron, error) {
	if _, err := cron.Parse(schedule); err != nil {
		return nil, fmt.Errorf("warm schedule %q: %w", schedule, err)
	}
	c := cron.New()
	if err := c.AddFunc(schedule, func() {
		_ = w.Run(context.Background())
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
