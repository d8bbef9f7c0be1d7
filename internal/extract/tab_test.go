package extract

import (
	"testing"
	"time"

	"github.com/linaclog/linaclog/internal/telemetry"
)

// tabLine builds a tab-delimited line around the given SN field and message.
func tabLine(sn, message string) string {
	return "2023-01-15\t08:30:22\tNode1\tINFO\t1673771422\t" + sn + "\tCooling\tMonitor\t" + message
}

var wantTime = time.Date(2023, 1, 15, 8, 30, 22, 0, time.UTC)

func TestTabLineStatistics(t *testing.T) {
	line := tabLine("SN# 2182", "logStatistics magnetronFlow: count=100, max=15.2, min=12.8, avg=14.1")
	recs, reason := TabLine(line)
	if reason != "" {
		t.Fatalf("reason = %q, want none", reason)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.RawName != "magnetronFlow" || r.Kind != telemetry.KindCombined {
		t.Errorf("record = %+v", r)
	}
	if r.Count != 100 || !r.HasMax || r.Max != 15.2 || !r.HasMin || r.Min != 12.8 || !r.HasAvg || r.Avg != 14.1 {
		t.Errorf("statistics = %+v", r)
	}
	if !r.Timestamp.Equal(wantTime) {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, wantTime)
	}
	if r.Serial != "2182" {
		t.Errorf("Serial = %q, want %q", r.Serial, "2182")
	}
}

func TestTabLinePartialStatistics(t *testing.T) {
	line := tabLine("SN# 2182", "logStatistics CoolingmagnetronFlowLowStatistics: count=50, avg=13.0")
	recs, reason := TabLine(line)
	if reason != "" || len(recs) != 1 {
		t.Fatalf("recs = %v, reason = %q", recs, reason)
	}
	r := recs[0]
	if r.Count != 50 || !r.HasAvg || r.Avg != 13.0 {
		t.Errorf("statistics = %+v", r)
	}
	if r.HasMin || r.HasMax {
		t.Error("absent statistics must not be marked present")
	}
}

func TestTabLineTemperatureSensor(t *testing.T) {
	line := tabLine("SN2182", "cpuTemperatureSensor0: count=10, max=45.2, min=40.1, avg=42.5")
	recs, reason := TabLine(line)
	if reason != "" || len(recs) != 1 {
		t.Fatalf("recs = %v, reason = %q", recs, reason)
	}
	if recs[0].RawName != "cpuTemperatureSensor0" || recs[0].Avg != 42.5 {
		t.Errorf("record = %+v", recs[0])
	}
}

func TestTabLineEvents(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantName string
		wantKind telemetry.StatKind
		wantAvg  float64
	}{
		{"emo", "EMO Good - all channels nominal", "emoEvent", telemetry.KindEvent, 1},
		{"motion disable", "Disable Motion requested by interlock", "motionInterlock", telemetry.KindEvent, 0},
		{"motion enable", "Enable Motion granted", "motionInterlock", telemetry.KindEvent, 1},
		{"odometer store", "storeData Odometer checkpoint", "odometerUpdate", telemetry.KindEvent, 1},
		{"odometer backup", "OdometerRouter: file copied to backup", "odometerBackup", telemetry.KindEvent, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, reason := TabLine(tabLine("SN# 2182", tt.message))
			if reason != "" || len(recs) != 1 {
				t.Fatalf("recs = %v, reason = %q", recs, reason)
			}
			r := recs[0]
			if r.RawName != tt.wantName || r.Kind != tt.wantKind || r.Avg != tt.wantAvg || !r.Builtin {
				t.Errorf("record = %+v", r)
			}
		})
	}
}

func TestTabLineSystemMode(t *testing.T) {
	recs, reason := TabLine(tabLine("SN# 2182", "MachineSerialNumber:2182 SystemMode:SERVICE"))
	if reason != "" || len(recs) != 1 {
		t.Fatalf("recs = %v, reason = %q", recs, reason)
	}
	r := recs[0]
	if r.Kind != telemetry.KindMode || r.RawName != "systemMode" || r.Mode != "SERVICE" {
		t.Errorf("record = %+v", r)
	}
}

func TestTabLineDropReasons(t *testing.T) {
	if _, reason := TabLine("a\tb\tc\td"); reason != ReasonMalformed {
		t.Errorf("short line reason = %q, want %q", reason, ReasonMalformed)
	}
	bad := "not-a-date\t08:30:22\tNode1\tINFO\t0\tSN# 1\tSys\tComp\tlogStatistics x: count=1"
	if _, reason := TabLine(bad); reason != ReasonNoDatetime {
		t.Errorf("bad date reason = %q, want %q", reason, ReasonNoDatetime)
	}
}

func TestTabLineNoTelemetry(t *testing.T) {
	recs, reason := TabLine(tabLine("SN# 2182", "routine heartbeat, nothing to report"))
	if reason != "" {
		t.Errorf("informational lines are not drops, got reason %q", reason)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records, want none", len(recs))
	}
}

func TestSerialFromField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SN# 2182", "2182"},
		{"HAL-TRT-SN2182", "2182"},
		{"SN2182", "2182"},
		{"SN 2182", "2182"},
		{"2182", "2182"},
		{"unit-9981-rev2", "9981"},
		{"no digits at all", "no digits at all"},
	}
	for _, tt := range tests {
		if got := serialFromField(tt.in); got != tt.want {
			t.Errorf("serialFromField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
