package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/linaclog/linaclog/internal/cache"
	"github.com/linaclog/linaclog/internal/catalog"
	"github.com/linaclog/linaclog/internal/config"
	"github.com/linaclog/linaclog/internal/merge"
	"github.com/linaclog/linaclog/internal/pipeline"
	"github.com/linaclog/linaclog/internal/report"
	"github.com/linaclog/linaclog/internal/telemetry"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Output  string
	Metrics string
	NoCache bool
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <logfile> [logfile...]",
		Short: "Parse log files into a readings table",
		Long: `Parse one or more log files. Results are cached per (file, mtime):
re-parsing an unchanged file is served from the artifact cache. The readings
table is written as CSV and the run summary as Prometheus text exposition.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, cmd, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "",
		"readings CSV path (\"-\" for stdout; default from config, else stdout)")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "",
		"run-summary exposition path (default from config, else skipped)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false,
		"bypass the artifact cache for this run")

	return cmd
}

func runParse(opts *ParseOptions, cmd *cobra.Command, files []string) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The catalog pointer is re-read before every file so a hot reload
	// between files takes effect without restarting a long multi-file run.
	var cat atomic.Pointer[catalog.Catalog]
	cat.Store(catalog.Load(cfg.Pipeline.CatalogFile))
	if cfg.Pipeline.WatchCatalog && cfg.Pipeline.CatalogFile != "" {
		go func() {
			if err := catalog.Watch(ctx, cfg.Pipeline.CatalogFile, func(c *catalog.Catalog) {
				cat.Store(c)
			}); err != nil {
				slog.Error("cli: catalog watch failed", "err", err)
			}
		}()
	}

	rules := cfg.BuildRules()

	var store *cache.Cache
	if !cfg.Cache.Disabled && !opts.NoCache {
		store, err = cache.New(cfg.Cache.Dir)
		if err != nil {
			return err
		}
	}

	var all []telemetry.Reading
	var summaries []pipeline.Summary
	for _, path := range files {
		readings, sum, err := parseOne(ctx, cfg, cat.Load(), rules, store, path)
		if err != nil {
			return err
		}
		all = append(all, readings...)
		summaries = append(summaries, sum)
	}

	if err := writeReadings(opts, cfg.Report.ReadingsCSV, cmd.OutOrStdout(), all); err != nil {
		return err
	}
	return writeMetrics(opts, cfg.Report.MetricsFile, combineSummaries(summaries))
}

// parseOne parses one file, consulting the artifact cache first.
func parseOne(ctx context.Context, cfg *config.Config, cat *catalog.Catalog,
	rules *merge.Rules, store *cache.Cache, path string) ([]telemetry.Reading, pipeline.Summary, error) {

	key, err := cacheKey(path)
	if err != nil {
		return nil, pipeline.Summary{}, err
	}
	if store != nil {
		if v, ok := store.Get(key, cfg.Cache.DefaultTTL); ok {
			if readings, ok := v.([]telemetry.Reading); ok {
				slog.Info("cli: cache hit", "path", path, "records", len(readings))
				return readings, replaySummary(path, readings), nil
			}
		}
	}

	p := pipeline.New(cat, rules)
	p.ChunkSize = cfg.Pipeline.ChunkSize
	p.Outliers = cfg.Pipeline.OutlierCheck
	res, err := p.ParseFile(ctx, path)
	if err != nil {
		return nil, res.Summary, err
	}
	if store != nil && !res.Summary.Cancelled {
		if err := store.Put(key, res.Readings, cfg.Cache.DefaultTTL); err != nil {
			slog.Warn("cli: caching parse result failed", "path", path, "err", err)
		}
	}
	return res.Readings, res.Summary, nil
}

// cacheKey derives the artifact-cache key from the file identity: absolute
// path plus mtime, so editing the file invalidates the entry naturally.
func cacheKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cli: resolve %s: %w", path, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cli: stat %s: %w", path, err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", abs, fi.ModTime().UnixNano())))
	return "parse-" + hex.EncodeToString(sum[:12]), nil
}

// replaySummary reconstructs what can be known about a run served from
// cache. Line-level tallies are gone; record-level numbers are rebuilt from
// the readings themselves.
func replaySummary(path string, readings []telemetry.Reading) pipeline.Summary {
	sum := pipeline.Summary{
		RunID:               uuid.NewString(),
		SourcePath:          path,
		ValidRecords:        len(readings),
		SkippedByReason:     make(map[string]int),
		QualityDistribution: make(map[string]int),
	}
	for _, r := range readings {
		sum.QualityDistribution[string(r.Quality)]++
		if r.Merged {
			sum.MergedRecords++
		}
	}
	return sum
}

// combineSummaries folds per-file summaries into one invocation summary.
func combineSummaries(sums []pipeline.Summary) pipeline.Summary {
	if len(sums) == 1 {
		return sums[0]
	}
	out := pipeline.Summary{
		RunID:               uuid.NewString(),
		SkippedByReason:     make(map[string]int),
		QualityDistribution: make(map[string]int),
	}
	for _, s := range sums {
		out.TotalLines += s.TotalLines
		out.ParametersDetected += s.ParametersDetected
		out.ParametersAllowed += s.ParametersAllowed
		out.ParametersSkipped += s.ParametersSkipped
		out.ValidRecords += s.ValidRecords
		out.MergedRecords += s.MergedRecords
		out.Elapsed += s.Elapsed
		out.Cancelled = out.Cancelled || s.Cancelled
		for k, v := range s.SkippedByReason {
			out.SkippedByReason[k] += v
		}
		for k, v := range s.QualityDistribution {
			out.QualityDistribution[k] += v
		}
	}
	if out.Elapsed > 0 {
		out.RecordsPerSecond = float64(out.ValidRecords) / out.Elapsed.Seconds()
	}
	return out
}

func writeReadings(opts *ParseOptions, cfgPath string, stdout io.Writer, readings []telemetry.Reading) error {
	path := opts.Output
	if path == "" {
		path = cfgPath
	}
	if path == "" || path == "-" {
		return report.WriteReadings(stdout, readings)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cli: create %s: %w", path, err)
	}
	defer f.Close()
	if err := report.WriteReadings(f, readings); err != nil {
		return err
	}
	slog.Info("cli: readings written", "path", path, "records", len(readings))
	return nil
}

func writeMetrics(opts *ParseOptions, cfgPath string, sum pipeline.Summary) error {
	path := opts.Metrics
	if path == "" {
		path = cfgPath
	}
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cli: create %s: %w", path, err)
	}
	defer f.Close()
	if err := report.WriteProm(f, sum); err != nil {
		return err
	}
	slog.Info("cli: run summary written", "path", path)
	return nil
}
