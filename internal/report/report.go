// Package report exports parse results to downstream consumers: the run
// summary as Prometheus text exposition for scrape-based monitoring, and
// the readings themselves as a flat CSV table with a fixed column contract.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/linaclog/linaclog/internal/pipeline"
	"github.com/linaclog/linaclog/internal/telemetry"
)

// WriteProm encodes the run summary in Prometheus text exposition format.
// Families and label values are emitted in sorted order so the output is
// byte-stable for a given summary.
func WriteProm(w io.Writer, sum pipeline.Summary) error {
	families := []*dto.MetricFamily{
		counterFamily("linaclog_lines_total",
			"Log lines read during the parse run.",
			float64(sum.TotalLines)),
		counterFamily("linaclog_parameters_detected_total",
			"Statistics payloads recognized before catalog filtering.",
			float64(sum.ParametersDetected)),
		counterFamily("linaclog_parameters_allowed_total",
			"Parameter records that resolved against the catalog.",
			float64(sum.ParametersAllowed)),
		counterFamily("linaclog_records_total",
			"Readings in the final output.",
			float64(sum.ValidRecords)),
		counterFamily("linaclog_records_merged_total",
			"Readings produced by combining equivalent sensors.",
			float64(sum.MergedRecords)),
		labeledCounterFamily("linaclog_records_skipped_total",
			"Dropped lines by reason.",
			"reason", sum.SkippedByReason),
		labeledCounterFamily("linaclog_quality_total",
			"Readings by quality tag.",
			"quality", sum.QualityDistribution),
		gaugeFamily("linaclog_parse_duration_seconds",
			"Wall-clock duration of the parse run.",
			sum.Elapsed.Seconds()),
		gaugeFamily("linaclog_records_per_second",
			"Parse throughput.",
			sum.RecordsPerSecond),
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		// A run can legitimately have no skips or an empty quality map;
		// the text encoder rejects metric-less families.
		if len(fam.Metric) == 0 {
			continue
		}
		if err := enc.Encode(fam); err != nil {
			return fmt.Errorf("report: encode %s: %w", fam.GetName(), err)
		}
	}
	return nil
}

func counterFamily(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: &value}},
		},
	}
}

func gaugeFamily(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: &value}},
		},
	}
}

func labeledCounterFamily(name, help, label string, values map[string]int) *dto.MetricFamily {
	fam := &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := float64(values[k])
		lv := k
		fam.Metric = append(fam.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: strPtr(label), Value: &lv}},
			Counter: &dto.Counter{Value: &v},
		})
	}
	return fam
}

func strPtr(s string) *string { return &s }

// readingsHeader is the downstream column contract. Consumers key on these
// names; the order and set never change shape per run.
var readingsHeader = []string{
	"timestamp", "serial_number", "canonical_id", "friendly_name", "unit",
	"statistic_kind", "count", "min", "max", "avg", "quality_tag",
	"is_merged", "source_name",
}

// WriteReadings writes the readings table as CSV. Statistics a reading
// never carried stay empty rather than being written as zero.
func WriteReadings(w io.Writer, readings []telemetry.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(readingsHeader); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for _, r := range readings {
		rec := []string{
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.SerialNumber,
			r.CanonicalID,
			r.FriendlyName,
			r.Unit,
			string(r.Kind),
			strconv.FormatInt(r.Count, 10),
			optFloat(r.Min, r.HasMin),
			optFloat(r.Max, r.HasMax),
			optFloat(r.Avg, r.HasAvg),
			string(r.Quality),
			strconv.FormatBool(r.Merged),
			r.RawSourceName,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("report: write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}

func optFloat(v float64, has bool) string {
	if !has {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
