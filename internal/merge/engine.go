package merge

import (
	"strings"

	"github.com/linaclog/linaclog/internal/catalog"
	"github.com/linaclog/linaclog/internal/quality"
	"github.com/linaclog/linaclog/internal/telemetry"
)

// Engine folds equivalent-sensor readings according to a rule set. The
// catalog supplies display metadata and expected ranges for the unified
// parameters.
type Engine struct {
	Rules   *Rules
	Catalog *catalog.Catalog
}

type groupKey struct {
	ts      int64
	serial  string
	unified string
	kind    telemetry.StatKind
}

// Merge groups readings by (timestamp, serial, unified parameter, kind) and
// combines every group that collected more than one reading. Readings whose
// parameter belongs to no group pass through untouched. Returns the output
// readings and the number of merges performed. First-appearance order is
// preserved.
func (e *Engine) Merge(readings []telemetry.Reading) ([]telemetry.Reading, int) {
	out := make([]telemetry.Reading, 0, len(readings))
	groups := make(map[groupKey][]telemetry.Reading)
	var keyOrder []groupKey

	for _, r := range readings {
		unified, ok := e.Rules.Resolve(r.CanonicalID)
		if !ok {
			out = append(out, r)
			continue
		}
		k := groupKey{r.Timestamp.UnixNano(), r.SerialNumber, unified, r.Kind}
		if _, seen := groups[k]; !seen {
			keyOrder = append(keyOrder, k)
		}
		groups[k] = append(groups[k], r)
	}

	merged := 0
	for _, k := range keyOrder {
		g := groups[k]
		if len(g) == 1 {
			r := g[0]
			e.relabel(&r, k.unified)
			out = append(out, r)
			continue
		}
		out = append(out, e.combine(k, g))
		merged++
	}
	return out, merged
}

// relabel rewrites a lone group member under its unified identity without
// touching its statistics.
func (e *Engine) relabel(r *telemetry.Reading, unified string) {
	r.CanonicalID = unified
	if p, ok := e.unifiedParam(unified); ok {
		r.FriendlyName = p.FriendlyName
		if p.Unit != "" {
			r.Unit = p.Unit
		}
	}
}

// combine folds a multi-member group into one reading: counts sum, min/max
// span the group, and the average is the count-weighted mean of the member
// averages. When every contributing count is zero the weights collapse, so
// the plain mean of the averages is used instead of dividing by zero.
func (e *Engine) combine(k groupKey, g []telemetry.Reading) telemetry.Reading {
	m := telemetry.Reading{
		Timestamp:    g[0].Timestamp,
		SerialNumber: k.serial,
		CanonicalID:  k.unified,
		FriendlyName: g[0].FriendlyName,
		Unit:         g[0].Unit,
		Kind:         k.kind,
		Merged:       true,
	}

	var weighted, weight, avgSum float64
	var avgN int
	sources := make([]string, 0, len(g))
	for _, r := range g {
		m.Count += r.Count
		if r.HasMin && (!m.HasMin || r.Min < m.Min) {
			m.Min, m.HasMin = r.Min, true
		}
		if r.HasMax && (!m.HasMax || r.Max > m.Max) {
			m.Max, m.HasMax = r.Max, true
		}
		if r.HasAvg {
			weighted += r.Avg * float64(r.Count)
			weight += float64(r.Count)
			avgSum += r.Avg
			avgN++
		}
		if r.Outlier {
			m.Outlier = true
		}
		if r.RawSourceName != "" {
			sources = append(sources, r.RawSourceName)
		}
	}
	switch {
	case weight > 0:
		m.Avg, m.HasAvg = weighted/weight, true
	case avgN > 0:
		m.Avg, m.HasAvg = avgSum/float64(avgN), true
	}
	m.RawSourceName = strings.Join(sources, ", ")

	p, _ := e.unifiedParam(k.unified)
	if p != nil {
		m.FriendlyName = p.FriendlyName
		if p.Unit != "" {
			m.Unit = p.Unit
		}
	}
	m.Quality = quality.Tag(p, m.Count, m.Avg, m.HasAvg)
	return m
}

// unifiedParam looks the unified ID up in the catalog, falling back to the
// fuzzy resolver for IDs that are spellings rather than canonical names.
func (e *Engine) unifiedParam(unified string) (*catalog.Parameter, bool) {
	if e.Catalog == nil {
		return nil, false
	}
	if p, ok := e.Catalog.Lookup(unified); ok {
		return p, true
	}
	return e.Catalog.Resolve(unified)
}
