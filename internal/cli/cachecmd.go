package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linaclog/linaclog/internal/cache"
)

// NewCacheCommand creates the cache maintenance command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the artifact cache",
	}
	cmd.AddCommand(newCacheStatsCommand(rootOpts))
	cmd.AddCommand(newCacheSweepCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

func openCache(rootOpts *RootOptions) (*cache.Cache, error) {
	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache.Dir)
}

func newCacheStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show cache entry counts and size",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(rootOpts)
			if err != nil {
				return err
			}
			s := store.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "directory:   %s\n", s.Dir)
			fmt.Fprintf(out, "entries:     %d\n", s.Entries)
			fmt.Fprintf(out, "expired:     %d\n", s.Expired)
			fmt.Fprintf(out, "total bytes: %d\n", s.TotalBytes)
			return nil
		},
	}
}

func newCacheSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sweep",
		Short:         "Delete expired entries and orphaned payload files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(rootOpts)
			if err != nil {
				return err
			}
			n := store.SweepExpired()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return nil
		},
	}
}

func newCacheClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Delete every cache entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(rootOpts)
			if err != nil {
				return err
			}
			n := store.InvalidatePrefix("")
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return nil
		},
	}
}
