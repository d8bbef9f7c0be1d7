// Package telemetry defines the normalized record types shared by the
// extraction, merge, quality, cache, and report packages. A Reading is the
// unit of currency for the whole pipeline: every log line that survives
// parsing is reduced to one or more Readings, and everything downstream
// (merging, validation, caching, export) operates on []Reading.
package telemetry

import "time"

// StatKind classifies what a Reading measures.
type StatKind string

const (
	// KindCombined covers count/min/max/avg statistics blocks (water
	// flows, temperatures, voltages, humidity, fan speeds).
	KindCombined StatKind = "combined"
	// KindEvent covers discrete occurrences (EMO activity, motion
	// interlocks, odometer updates) counted rather than aggregated.
	KindEvent StatKind = "event"
	// KindMode covers system operating mode transitions. The mode label
	// is carried in the Text field.
	KindMode StatKind = "mode"
)

// QualityTag grades a Reading based on sample count and expected range.
type QualityTag string

const (
	QualityExcellent QualityTag = "excellent"
	QualityGood      QualityTag = "good"
	QualityFair      QualityTag = "fair"
	QualityPoor      QualityTag = "poor"
)

// Reading is one normalized machine parameter observation. Statistical
// fields are optional in some source grammars, so each carries an explicit
// presence flag instead of overloading the zero value.
type Reading struct {
	// Timestamp is the log line's datetime, second resolution, UTC.
	Timestamp time.Time
	// SerialNumber is the machine serial with vendor prefixes stripped,
	// or "Unknown" when the line carried none.
	SerialNumber string
	// CanonicalID is the catalog identity the raw source name resolved
	// to, e.g. "magnetronFlow".
	CanonicalID string
	// FriendlyName is the catalog display name for CanonicalID.
	FriendlyName string
	// Unit is the catalog measurement unit, empty for unitless values.
	Unit string
	// RawSourceName is the parameter spelling as it appeared in the log.
	// For merged readings it lists every contributing spelling, comma
	// separated.
	RawSourceName string

	Kind StatKind

	Count int64
	Min   float64
	Max   float64
	Avg   float64

	HasMin bool
	HasMax bool
	HasAvg bool

	// Text carries non-numeric payloads, currently only the mode label
	// for KindMode readings.
	Text string

	Quality QualityTag
	// Outlier marks readings outside the 1.5*IQR fence of their group.
	// It is informational and never changes Quality.
	Outlier bool
	// Merged is set when this reading was produced by combining two or
	// more equivalent-sensor readings.
	Merged bool
}
