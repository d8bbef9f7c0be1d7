package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/linaclog/linaclog/internal/telemetry"
)

var (
	datetimeRE    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[ \t]+(\d{2}:\d{2}:\d{2})`)
	datetimeAltRE = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})[ \t]+(\d{1,2}):(\d{2}):(\d{2})`)

	serialRE    = regexp.MustCompile(`(?i)(?:SN|S/N|Serial)[#\s]*(\d+)`)
	serialAltRE = regexp.MustCompile(`(?i)Serial[:\s]+(\d+)`)
	machineRE   = regexp.MustCompile(`(?i)Machine[:\s]+(\d+)`)

	freeStatsRE = regexp.MustCompile(`(?i)(?:logStatistics\s+)?` +
		`([a-zA-Z][a-zA-Z0-9_\-.]*[a-zA-Z0-9])` +
		`:\s*count\s*=\s*(\d+)` +
		`(?:[,\s]*max\s*=\s*([\d.\-+eE]+))?` +
		`(?:[,\s]*min\s*=\s*([\d.\-+eE]+))?` +
		`(?:[,\s]*avg\s*=\s*([\d.\-+eE]+))?`)
)

// statKeywords is the cheap pre-filter applied before any regex work on
// free-text lines. A line containing none of these cannot carry statistics.
var statKeywords = []string{
	"count=", "avg=", "statistics", "max=", "min=",
	"value=", "reading=", "measurement=",
}

// HasStatKeywords reports whether the line is worth running the free-text
// grammar on.
func HasStatKeywords(line string) bool {
	l := strings.ToLower(line)
	for _, kw := range statKeywords {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

// HasTimestamp reports whether the line carries a parseable timestamp in
// either free-text form. The pipeline checks this before the statistics
// pre-filters so timestamp-less lines are tallied, mirroring the drop
// accounting of the service logs this grammar came from.
func HasTimestamp(line string) bool {
	_, ok := freeTextTime(line)
	return ok
}

// FreeText parses one free-text line that already passed the pre-filters.
// A record is emitted only when the line carries a timestamp plus a
// statistics block with a count and at least one of max/min/avg. The serial
// number scan is positionless and independent; lines without one get
// "Unknown".
func FreeText(line string) (*Record, Reason) {
	ts, ok := freeTextTime(line)
	if !ok {
		return nil, ReasonNoDatetime
	}

	m := freeStatsRE.FindStringSubmatch(line)
	if m == nil {
		return nil, ReasonMalformed
	}
	count, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return nil, ReasonMalformed
	}
	rec := Record{
		Timestamp: ts,
		Serial:    freeTextSerial(line),
		Kind:      telemetry.KindCombined,
		RawName:   strings.TrimSpace(m[1]),
		Count:     count,
	}
	stats := 0
	for i, set := range []struct {
		val *float64
		has *bool
	}{
		{&rec.Max, &rec.HasMax},
		{&rec.Min, &rec.HasMin},
		{&rec.Avg, &rec.HasAvg},
	} {
		s := m[3+i]
		if s == "" {
			continue
		}
		v, ok := parseFloat(s)
		if !ok {
			return nil, ReasonMalformed
		}
		*set.val = v
		*set.has = true
		stats++
	}
	if stats == 0 {
		return nil, ReasonMalformed
	}
	return &rec, ""
}

// freeTextTime finds the line's timestamp in either the ISO form or the
// US-style form, normalizing the latter.
func freeTextTime(line string) (time.Time, bool) {
	if m := datetimeRE.FindStringSubmatch(line); m != nil {
		ts, err := time.Parse("2006-01-02 15:04:05", m[1]+" "+m[2])
		if err == nil {
			return ts, true
		}
	}
	if m := datetimeAltRE.FindStringSubmatch(line); m != nil {
		var v [6]int
		for i := range v {
			v[i], _ = strconv.Atoi(m[i+1])
		}
		ts := time.Date(v[2], time.Month(v[0]), v[1], v[3], v[4], v[5], 0, time.UTC)
		if ts.Year() == v[2] && int(ts.Month()) == v[0] && ts.Day() == v[1] {
			return ts, true
		}
	}
	return time.Time{}, false
}

func freeTextSerial(line string) string {
	for _, re := range []*regexp.Regexp{serialRE, serialAltRE, machineRE} {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return "Unknown"
}
