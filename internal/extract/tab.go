package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/linaclog/linaclog/internal/telemetry"
)

// Tab grammar field layout:
//
//	Date  Time  Source  Level  Timestamp  SN#  System  Component  Message
const tabFieldCount = 9

var (
	tabStatsRE = regexp.MustCompile(`(?i)logStatistics\s+([^:]+):\s*` +
		`(?:count\s*=\s*(\d+)[,\s]*)?` +
		`(?:max\s*=\s*([\d.\-+eE]+)[,\s]*)?` +
		`(?:min\s*=\s*([\d.\-+eE]+)[,\s]*)?` +
		`(?:avg\s*=\s*([\d.\-+eE]+))?`)

	tabTempRE = regexp.MustCompile(`(?i)(cpuTemperatureSensor\d+|TemperatureSensor\d+):\s*` +
		`(?:count\s*=\s*(\d+)[,\s]*)?` +
		`(?:max\s*=\s*([\d.\-+eE]+)[,\s]*)?` +
		`(?:min\s*=\s*([\d.\-+eE]+)[,\s]*)?` +
		`(?:avg\s*=\s*([\d.\-+eE]+))?`)

	modeRE     = regexp.MustCompile(`(?i)SystemMode:(\w+)`)
	digitRunRE = regexp.MustCompile(`\d+`)
)

// TabLine parses one tab-delimited line. A line with too few fields is
// malformed; a line whose date/time fields do not parse is dropped as
// no_datetime. A well-formed line whose message carries no telemetry
// returns no records and no reason.
func TabLine(line string) ([]Record, Reason) {
	parts := strings.Split(line, "\t")
	if len(parts) < tabFieldCount {
		return nil, ReasonMalformed
	}
	ts, err := time.Parse("2006-01-02 15:04:05",
		strings.TrimSpace(parts[0])+" "+strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, ReasonNoDatetime
	}
	serial := serialFromField(parts[5])
	message := strings.TrimSpace(parts[8])

	var records []Record

	if strings.Contains(message, "logStatistics") && hasStatAssignment(message) {
		rec, reason := statsRecord(tabStatsRE, message, ts, serial)
		if reason != "" {
			return nil, reason
		}
		if rec != nil {
			records = append(records, *rec)
		}
	} else if strings.Contains(message, "TemperatureSensor") {
		rec, reason := statsRecord(tabTempRE, message, ts, serial)
		if reason != "" {
			return nil, reason
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}

	if m := modeRE.FindStringSubmatch(message); m != nil {
		records = append(records, Record{
			Timestamp: ts, Serial: serial, Kind: telemetry.KindMode,
			RawName: "systemMode", Builtin: true, Count: 1, Mode: m[1],
		})
	}

	if strings.Contains(message, "Odometer") {
		switch {
		case strings.Contains(message, "storeData"):
			records = append(records, eventRecord(ts, serial, "odometerUpdate", 1))
		case strings.Contains(message, "OdometerRouter") && strings.Contains(message, "copied"):
			records = append(records, eventRecord(ts, serial, "odometerBackup", 1))
		}
	}

	switch {
	case strings.Contains(message, "EMO Good"):
		records = append(records, eventRecord(ts, serial, "emoEvent", 1))
	case strings.Contains(message, "Disable Motion"):
		records = append(records, eventRecord(ts, serial, "motionInterlock", 0))
	case strings.Contains(message, "Enable Motion"):
		records = append(records, eventRecord(ts, serial, "motionInterlock", 1))
	}

	return records, ""
}

func hasStatAssignment(message string) bool {
	for _, kw := range []string{"count=", "max=", "min=", "avg="} {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// statsRecord applies a count/max/min/avg regex and builds one combined
// record from whichever groups matched. At least one statistic must be
// present; a matched name with unparseable numbers is malformed.
func statsRecord(re *regexp.Regexp, message string, ts time.Time, serial string) (*Record, Reason) {
	m := re.FindStringSubmatch(message)
	if m == nil {
		return nil, ""
	}
	rec := Record{
		Timestamp: ts, Serial: serial, Kind: telemetry.KindCombined,
		RawName: strings.TrimSpace(m[1]),
	}
	any := false
	if m[2] != "" {
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, ReasonMalformed
		}
		rec.Count = n
		any = true
	}
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
		any = true
	}
	if !any {
		return nil, ""
	}
	return &rec, ""
}

func eventRecord(ts time.Time, serial, name string, value float64) Record {
	return Record{
		Timestamp: ts, Serial: serial, Kind: telemetry.KindEvent,
		RawName: name, Builtin: true, Count: 1, Avg: value, HasAvg: true,
	}
}

// serialFromField strips the vendor prefixes seen in the SN# field. The
// forms appear in roughly this order of frequency in real logs; the first
// digit run is the fallback for anything unrecognized.
func serialFromField(field string) string {
	f := strings.TrimSpace(field)
	switch {
	case strings.Contains(f, "SN#"):
		return strings.TrimSpace(strings.ReplaceAll(f, "SN#", ""))
	case strings.HasPrefix(f, "HAL-TRT-SN"):
		return strings.TrimSpace(strings.TrimPrefix(f, "HAL-TRT-SN"))
	case strings.HasPrefix(f, "SN"):
		return strings.TrimSpace(strings.TrimPrefix(f, "SN"))
	case f != "" && isDigits(f):
		return f
	}
	if m := digitRunRE.FindString(f); m != "" {
		return m
	}
	return f
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
