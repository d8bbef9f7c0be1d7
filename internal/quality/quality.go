// Package quality grades readings and weeds out duplicates. Grading is a
// pure function of the catalog's expected range and the sample count, so a
// reading's tag can be recomputed whenever its statistics change (the merge
// engine does exactly that after combining readings).
package quality

import (
	"sort"

	"github.com/linaclog/linaclog/internal/catalog"
	"github.com/linaclog/linaclog/internal/telemetry"
)

// Tag grades one reading. An average outside the parameter's expected range
// is poor regardless of count. Inside the range, sample count sets the tier.
// Parameters without a declared range can never be excellent or poor: the
// data may be plentiful but there is nothing to check it against.
func Tag(p *catalog.Parameter, count int64, avg float64, hasAvg bool) telemetry.QualityTag {
	hasRange := p != nil && p.Expected != nil
	if hasRange && hasAvg && !p.Expected.Contains(avg) {
		return telemetry.QualityPoor
	}
	if hasRange {
		switch {
		case count > 100:
			return telemetry.QualityExcellent
		case count > 50:
			return telemetry.QualityGood
		default:
			return telemetry.QualityFair
		}
	}
	if count > 50 {
		return telemetry.QualityGood
	}
	return telemetry.QualityFair
}

// Validator assigns quality tags, removes duplicate readings, and
// optionally flags statistical outliers.
type Validator struct {
	Catalog *catalog.Catalog
	// Outliers enables the per-parameter IQR pass. The flag it sets is
	// informational and independent of the quality tag.
	Outliers bool
}

type dedupKey struct {
	ts     int64
	serial string
	id     string
	kind   telemetry.StatKind
}

// Validate tags every reading, drops later duplicates of the same
// (timestamp, serial, parameter, kind), and runs the outlier pass when
// enabled. Input order is preserved; the input slice is not modified.
func (v *Validator) Validate(readings []telemetry.Reading) []telemetry.Reading {
	out := make([]telemetry.Reading, 0, len(readings))
	seen := make(map[dedupKey]bool, len(readings))
	for _, r := range readings {
		k := dedupKey{r.Timestamp.UnixNano(), r.SerialNumber, r.CanonicalID, r.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		var p *catalog.Parameter
		if v.Catalog != nil {
			p, _ = v.Catalog.Lookup(r.CanonicalID)
		}
		r.Quality = Tag(p, r.Count, r.Avg, r.HasAvg)
		out = append(out, r)
	}
	if v.Outliers {
		flagOutliers(out)
	}
	return out
}

// flagOutliers marks readings whose average lies outside the 1.5*IQR fence
// of their parameter's averages within this batch. Parameters with fewer
// than four averaged readings are skipped: quartiles of tiny samples flag
// noise, not outliers.
func flagOutliers(readings []telemetry.Reading) {
	byParam := make(map[string][]float64)
	for _, r := range readings {
		if r.HasAvg && r.Kind == telemetry.KindCombined {
			byParam[r.CanonicalID] = append(byParam[r.CanonicalID], r.Avg)
		}
	}
	fences := make(map[string][2]float64)
	for id, vals := range byParam {
		if len(vals) < 4 {
			continue
		}
		sort.Float64s(vals)
		q1 := percentile(vals, 0.25)
		q3 := percentile(vals, 0.75)
		iqr := q3 - q1
		fences[id] = [2]float64{q1 - 1.5*iqr, q3 + 1.5*iqr}
	}
	for i := range readings {
		r := &readings[i]
		if !r.HasAvg || r.Kind != telemetry.KindCombined {
			continue
		}
		f, ok := fences[r.CanonicalID]
		if !ok {
			continue
		}
		r.Outlier = r.Avg < f[0] || r.Avg > f[1]
	}
}

// percentile interpolates linearly between the two nearest ranks of a
// sorted slice.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
