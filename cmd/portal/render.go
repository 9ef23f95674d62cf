package main

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nascp/portal/internal/lang"
)

var (
	renderOut    string
	renderLocale string

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Assemble the page once and write the HTML",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
)

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file; stdout when empty")
	renderCmd.Flags().StringVar(&renderLocale, "locale", lang.DefaultLocale, "locale for dates")
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return err
	}
	if !lang.IsSupported(renderLocale) {
		logger.Warn("unsupported locale, using default", "locale", renderLocale)
		renderLocale = lang.DefaultLocale
	}

	c, err := wire(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	body, report, err := c.pages.Page(cmd.Context(), renderLocale)
	if err != nil {
		return err
	}
	for _, s := range report.Sections {
		if s.Err != nil {
			logger.Warn("section failed", "container", s.ContainerID, "url", s.URL, "err", s.Err)
		}
	}

	var w io.Writer = os.Stdout
	if renderOut != "" {
		f, err := os.Create(renderOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	logger.Info("rendered",
		"size", humanize.Bytes(uint64(len(body))),
		"failed", report.Failed(),
		"elapsed", report.Elapsed,
	)
	return nil
}
