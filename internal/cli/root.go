// Package cli wires the linaclog commands: parse, cache maintenance, and
// catalog inspection.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/linaclog/linaclog/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the linaclog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "linaclog",
		Short: "Extract machine telemetry from linac control-system logs",
		Long: `linaclog parses linear-accelerator control-system log files,
normalizes the raw parameter names against a catalog, merges readings from
equivalent sensors, and writes the result as a flat readings table plus a
run summary in Prometheus text exposition format.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr,
					&slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to config file (built-in defaults apply when omitted)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"enable debug logging")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath == "" {
		slog.Debug("cli: no config file, using defaults")
		return config.Default(), nil
	}
	return config.Load(opts.ConfigPath)
}
