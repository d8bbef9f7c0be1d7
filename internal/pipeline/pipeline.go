package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linaclog/linaclog/internal/catalog"
	"github.com/linaclog/linaclog/internal/extract"
	"github.com/linaclog/linaclog/internal/merge"
	"github.com/linaclog/linaclog/internal/quality"
	"github.com/linaclog/linaclog/internal/telemetry"
)

const defaultChunkSize = 1000

// Progress is handed to the progress callback after every chunk.
type Progress struct {
	LinesProcessed int
	Records        int
}

// Summary describes one parse run end to end. It is fully populated even
// when the run produced nothing.
type Summary struct {
	RunID               string
	SourcePath          string
	TotalLines          int
	ParametersDetected  int
	ParametersAllowed   int
	ParametersSkipped   int
	ValidRecords        int
	MergedRecords       int
	Cancelled           bool
	SkippedByReason     map[string]int
	QualityDistribution map[string]int
	Elapsed             time.Duration
	RecordsPerSecond    float64
}

// Result is the output of one ParseFile call.
type Result struct {
	Readings []telemetry.Reading
	Summary  Summary
}

// Pipeline holds the per-run collaborators and knobs. Zero-value fields
// get defaults at parse time.
type Pipeline struct {
	Catalog *catalog.Catalog
	Rules   *merge.Rules

	// ChunkSize bounds how many lines are buffered between progress and
	// cancellation checks.
	ChunkSize int
	// Outliers enables the IQR pass in validation.
	Outliers bool
	// Progress, when set, is called after every chunk.
	Progress func(Progress)
	// Cancel, when set, is polled between chunks; returning true stops
	// the run cleanly with the partial results collected so far.
	Cancel func() bool
}

// New returns a pipeline with default chunking.
func New(cat *catalog.Catalog, rules *merge.Rules) *Pipeline {
	return &Pipeline{Catalog: cat, Rules: rules, ChunkSize: defaultChunkSize}
}

func (p *Pipeline) chunkSize() int {
	if p.ChunkSize > 0 {
		return p.ChunkSize
	}
	return defaultChunkSize
}

// ParseFile runs the full pipeline over one log file. Per-line problems are
// tallied in the summary, never returned; the error covers only a file that
// cannot be opened or read. Cancellation (ctx or the Cancel predicate)
// stops between chunks and returns what was collected, with
// Summary.Cancelled set.
func (p *Pipeline) ParseFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	res := &Result{Summary: Summary{
		RunID:               uuid.NewString(),
		SourcePath:          path,
		SkippedByReason:     make(map[string]int),
		QualityDistribution: make(map[string]int),
	}}
	sum := &res.Summary

	f, err := os.Open(path)
	if err != nil {
		sum.Elapsed = time.Since(start)
		return res, fmt.Errorf("pipeline: open %s: %w", path, err)
	}
	defer f.Close()

	var raw []telemetry.Reading
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	chunk := make([]string, 0, p.chunkSize())
	flush := func() {
		if len(chunk) == 0 {
			return
		}
		for _, line := range chunk {
			raw = p.processLine(line, raw, sum)
		}
		chunk = chunk[:0]
		if p.Progress != nil {
			p.Progress(Progress{LinesProcessed: sum.TotalLines, Records: len(raw)})
		}
	}

scan:
	for sc.Scan() {
		sum.TotalLines++
		chunk = append(chunk, sc.Text())
		if len(chunk) < p.chunkSize() {
			continue
		}
		flush()
		select {
		case <-ctx.Done():
			sum.Cancelled = true
			break scan
		default:
		}
		if p.Cancel != nil && p.Cancel() {
			sum.Cancelled = true
			break scan
		}
	}
	if !sum.Cancelled {
		if err := sc.Err(); err != nil {
			flush()
			p.finish(res, raw, start)
			return res, fmt.Errorf("pipeline: read %s: %w", path, err)
		}
	}
	flush()

	p.finish(res, raw, start)
	slog.Info("pipeline: parse complete",
		"run_id", sum.RunID,
		"path", path,
		"lines", sum.TotalLines,
		"records", sum.ValidRecords,
		"merged", sum.MergedRecords,
		"skipped", sum.ParametersSkipped,
		"elapsed", sum.Elapsed)
	return res, nil
}

// finish runs validation, merging, and sorting, then fills the summary.
func (p *Pipeline) finish(res *Result, raw []telemetry.Reading, start time.Time) {
	v := quality.Validator{Catalog: p.Catalog, Outliers: p.Outliers}
	readings := v.Validate(raw)

	engine := merge.Engine{Rules: p.Rules, Catalog: p.Catalog}
	readings, merged := engine.Merge(readings)

	sort.SliceStable(readings, func(i, j int) bool {
		if !readings[i].Timestamp.Equal(readings[j].Timestamp) {
			return readings[i].Timestamp.Before(readings[j].Timestamp)
		}
		return readings[i].CanonicalID < readings[j].CanonicalID
	})

	sum := &res.Summary
	res.Readings = readings
	sum.MergedRecords = merged
	sum.ValidRecords = len(readings)
	for _, r := range readings {
		sum.QualityDistribution[string(r.Quality)]++
	}
	for _, n := range sum.SkippedByReason {
		sum.ParametersSkipped += n
	}
	sum.Elapsed = time.Since(start)
	if sum.Elapsed > 0 {
		sum.RecordsPerSecond = float64(sum.ValidRecords) / sum.Elapsed.Seconds()
	}
}

// processLine extracts whatever one line carries and appends the readings
// that survive catalog resolution.
func (p *Pipeline) processLine(line string, acc []telemetry.Reading, sum *Summary) []telemetry.Reading {
	if strings.TrimSpace(line) == "" {
		return acc
	}

	if extract.IsTabular(line) {
		recs, reason := extract.TabLine(line)
		if reason != "" {
			sum.SkippedByReason[string(reason)]++
			return acc
		}
		sum.ParametersDetected += len(recs)
		for _, rec := range recs {
			acc = p.appendReading(acc, rec, sum)
		}
		return acc
	}

	// Free-text lines without a timestamp are skipped and tallied; lines
	// with one pay for further regex work only when both pre-filters
	// pass: a statistics keyword and at least one allowed spelling.
	if !extract.HasTimestamp(line) {
		sum.SkippedByReason[string(extract.ReasonNoDatetime)]++
		return acc
	}
	if !extract.HasStatKeywords(line) {
		return acc
	}
	if !p.Catalog.LineHasAllowed(line) {
		return acc
	}
	sum.ParametersDetected++
	rec, reason := extract.FreeText(line)
	if reason != "" {
		sum.SkippedByReason[string(reason)]++
		return acc
	}
	return p.appendReading(acc, *rec, sum)
}

// appendReading resolves the record's parameter name and converts it to a
// Reading. Unresolvable names are tallied as unmapped, never guessed at.
func (p *Pipeline) appendReading(acc []telemetry.Reading, rec extract.Record, sum *Summary) []telemetry.Reading {
	var param *catalog.Parameter
	if rec.Builtin {
		param, _ = p.Catalog.Lookup(rec.RawName)
	} else {
		var ok bool
		param, ok = p.Catalog.Resolve(rec.RawName)
		if !ok {
			sum.SkippedByReason[string(extract.ReasonUnmapped)]++
			return acc
		}
	}
	sum.ParametersAllowed++

	r := telemetry.Reading{
		Timestamp:     rec.Timestamp,
		SerialNumber:  rec.Serial,
		RawSourceName: rec.RawName,
		Kind:          rec.Kind,
		Count:         rec.Count,
		Min:           rec.Min,
		Max:           rec.Max,
		Avg:           rec.Avg,
		HasMin:        rec.HasMin,
		HasMax:        rec.HasMax,
		HasAvg:        rec.HasAvg,
		Text:          rec.Mode,
	}
	if param != nil {
		r.CanonicalID = param.ID
		r.FriendlyName = param.FriendlyName
		r.Unit = param.Unit
	} else {
		r.CanonicalID = rec.RawName
		r.FriendlyName = rec.RawName
	}
	return append(acc, r)
}
