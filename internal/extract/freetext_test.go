package extract

import (
	"testing"
	"time"
)

func TestFreeTextStatistics(t *testing.T) {
	line := "2023-01-15 08:30:00 SN# 1234 logStatistics magnetronFlow: count=100, max=15.2, min=12.8, avg=14.1"
	rec, reason := FreeText(line)
	if reason != "" {
		t.Fatalf("reason = %q, want none", reason)
	}
	if rec.RawName != "magnetronFlow" {
		t.Errorf("RawName = %q", rec.RawName)
	}
	if rec.Count != 100 || rec.Max != 15.2 || rec.Min != 12.8 || rec.Avg != 14.1 {
		t.Errorf("statistics = %+v", rec)
	}
	if rec.Serial != "1234" {
		t.Errorf("Serial = %q, want %q", rec.Serial, "1234")
	}
	want := time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want)
	}
}

func TestFreeTextAltDatetime(t *testing.T) {
	line := "01/15/2023 8:30:00 magnetronFlow: count=5, avg=10.0"
	rec, reason := FreeText(line)
	if reason != "" {
		t.Fatalf("reason = %q, want none", reason)
	}
	want := time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want)
	}
	if rec.Serial != "Unknown" {
		t.Errorf("Serial = %q, want Unknown", rec.Serial)
	}
}

func TestFreeTextDropReasons(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Reason
	}{
		{"no datetime", "magnetronFlow: count=5, avg=10.0", ReasonNoDatetime},
		{"no statistics block", "2023-01-15 08:30:00 routine status message", ReasonMalformed},
		{"count without stats", "2023-01-15 08:30:00 magnetronFlow: count=5", ReasonMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, reason := FreeText(tt.line); reason != tt.want {
				t.Errorf("FreeText(%q) reason = %q, want %q", tt.line, reason, tt.want)
			}
		})
	}
}

func TestHasStatKeywords(t *testing.T) {
	if !HasStatKeywords("something COUNT=5 here") {
		t.Error("keyword match should be case-insensitive")
	}
	if HasStatKeywords("routine heartbeat") {
		t.Error("keyword-free lines must not pass the pre-filter")
	}
}

func TestHasTimestamp(t *testing.T) {
	if !HasTimestamp("2023-01-15 08:30:00 anything") {
		t.Error("ISO timestamp not detected")
	}
	if !HasTimestamp("1/5/2023 9:30:00 anything") {
		t.Error("US-style timestamp not detected")
	}
	if HasTimestamp("no timestamp here") {
		t.Error("false positive timestamp")
	}
	if HasTimestamp("13/45/2023 9:30:00 impossible date") {
		t.Error("impossible calendar dates must not validate")
	}
}
