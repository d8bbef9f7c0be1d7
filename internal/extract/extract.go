package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/linaclog/linaclog/internal/telemetry"
)

// Reason tells why a line was dropped. Empty means the line simply carried
// no telemetry, which is not an error.
type Reason string

const (
	// ReasonNoDatetime marks lines with no parseable timestamp.
	ReasonNoDatetime Reason = "no_datetime"
	// ReasonUnmapped marks parameter names the catalog rejected. The
	// pipeline tallies it; extract itself never resolves names.
	ReasonUnmapped Reason = "unmapped_parameter"
	// ReasonMalformed marks lines whose statistics block did not parse.
	ReasonMalformed Reason = "malformed_data"
)

// Record is a raw extraction result: the parameter spelling as found plus
// whatever statistics the line carried. Absent statistics keep their Has
// flag false; values are never coerced to zero.
type Record struct {
	Timestamp time.Time
	Serial    string
	Kind      telemetry.StatKind

	// RawName is the parameter spelling from the line. For event and
	// mode records it is already a built-in canonical ID and Builtin is
	// set, so the pipeline skips catalog resolution.
	RawName string
	Builtin bool

	Count  int64
	Min    float64
	Max    float64
	Avg    float64
	HasMin bool
	HasMax bool
	HasAvg bool

	// Mode carries the operating-mode label for KindMode records.
	Mode string
}

// IsTabular reports whether the line uses the tab-delimited grammar.
func IsTabular(line string) bool {
	return strings.Count(line, "\t") >= 7
}

// parseFloat is strconv.ParseFloat with the permissive exponent forms the
// statistics grammar allows.
func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}
