// Package main provides the portal command: an HTTP server that assembles
// the home page from the content API, plus a one-shot render command.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nascp/portal/internal/config"
)

var (
	v = config.NewViper()

	rootCmd = &cobra.Command{
		Use:           "portal",
		Short:         "Assemble and serve the portal home page",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("api-base-url", "", "content API base URL")
	flags.String("layout-file", "", "page layout; the built-in layout when empty")
	flags.String("log-level", "info", "debug, info, warn or error")
	bindFlags(flags)

	rootCmd.AddCommand(serveCmd, renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bindFlags maps each flag onto the viper key of the same name with dashes
// replaced, so --api-base-url and PORTAL_API_BASE_URL set the same value.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

func loadConfig() (config.Config, *log.Logger, error) {
	cfg, err := config.Load(v)
	return cfg, newLogger(cfg.LogLevel), err
}

func newLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})
}
