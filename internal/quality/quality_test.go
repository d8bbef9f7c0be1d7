package quality

import (
	"testing"
	"time"

	"github.com/linaclog/linaclog/internal/catalog"
	"github.com/linaclog/linaclog/internal/telemetry"
)

func rangedParam() *catalog.Parameter {
	return &catalog.Parameter{
		ID:           "magnetronFlow",
		FriendlyName: "Magnetron Flow",
		Unit:         "L/min",
		Expected:     &catalog.Range{Low: 5, High: 20},
	}
}

func TestTag(t *testing.T) {
	p := rangedParam()
	tests := []struct {
		name   string
		param  *catalog.Parameter
		count  int64
		avg    float64
		hasAvg bool
		want   telemetry.QualityTag
	}{
		{"out of range", p, 500, 30.0, true, telemetry.QualityPoor},
		{"in range, high count", p, 150, 14.0, true, telemetry.QualityExcellent},
		{"in range, mid count", p, 60, 14.0, true, telemetry.QualityGood},
		{"in range, low count", p, 10, 14.0, true, telemetry.QualityFair},
		{"ranged, no average", p, 150, 0, false, telemetry.QualityExcellent},
		{"no range, high count", nil, 150, 14.0, true, telemetry.QualityGood},
		{"no range, low count", nil, 10, 14.0, true, telemetry.QualityFair},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tag(tt.param, tt.count, tt.avg, tt.hasAvg); got != tt.want {
				t.Errorf("Tag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func reading(ts time.Time, id string, avg float64) telemetry.Reading {
	return telemetry.Reading{
		Timestamp:    ts,
		SerialNumber: "2182",
		CanonicalID:  id,
		Kind:         telemetry.KindCombined,
		Count:        10,
		Avg:          avg,
		HasAvg:       true,
	}
}

func TestValidateDedupFirstWins(t *testing.T) {
	ts := time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC)
	v := Validator{}
	out := v.Validate([]telemetry.Reading{
		reading(ts, "magnetronFlow", 14.0),
		reading(ts, "magnetronFlow", 99.0),
		reading(ts.Add(time.Minute), "magnetronFlow", 14.5),
	})
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Avg != 14.0 {
		t.Errorf("first duplicate must win, got avg %v", out[0].Avg)
	}
}

func TestValidateOutlierFlag(t *testing.T) {
	ts := time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC)
	var in []telemetry.Reading
	for i, avg := range []float64{14.0, 14.2, 13.9, 14.1, 50.0} {
		in = append(in, reading(ts.Add(time.Duration(i)*time.Minute), "magnetronFlow", avg))
	}
	v := Validator{Outliers: true}
	out := v.Validate(in)
	if len(out) != 5 {
		t.Fatalf("len(out) = %d, want 5", len(out))
	}
	for _, r := range out[:4] {
		if r.Outlier {
			t.Errorf("reading with avg %v flagged as outlier", r.Avg)
		}
	}
	if !out[4].Outlier {
		t.Error("extreme reading not flagged as outlier")
	}
	// The outlier flag is informational; it must not change the tag.
	if out[4].Quality != Tag(nil, out[4].Count, out[4].Avg, true) {
		t.Errorf("outlier flag changed quality tag to %q", out[4].Quality)
	}
}

func TestValidateOutliersNeedEnoughSamples(t *testing.T) {
	ts := time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC)
	v := Validator{Outliers: true}
	out := v.Validate([]telemetry.Reading{
		reading(ts, "magnetronFlow", 14.0),
		reading(ts.Add(time.Minute), "magnetronFlow", 500.0),
	})
	for _, r := range out {
		if r.Outlier {
			t.Errorf("two samples are not enough to call avg %v an outlier", r.Avg)
		}
	}
}
