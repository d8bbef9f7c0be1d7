package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linaclog/linaclog/internal/pipeline"
)

func TestCombineSummaries(t *testing.T) {
	a := pipeline.Summary{
		TotalLines:   10,
		ValidRecords: 4,
		Elapsed:      time.Second,
		SkippedByReason: map[string]int{
			"no_datetime": 2,
		},
		QualityDistribution: map[string]int{"good": 4},
	}
	b := pipeline.Summary{
		TotalLines:   5,
		ValidRecords: 2,
		Elapsed:      time.Second,
		Cancelled:    true,
		SkippedByReason: map[string]int{
			"no_datetime":        1,
			"unmapped_parameter": 1,
		},
		QualityDistribution: map[string]int{"fair": 2},
	}

	out := combineSummaries([]pipeline.Summary{a, b})

	if out.TotalLines != 15 {
		t.Errorf("total lines: got %d, want 15", out.TotalLines)
	}
	if out.ValidRecords != 6 {
		t.Errorf("valid records: got %d, want 6", out.ValidRecords)
	}
	if !out.Cancelled {
		t.Error("cancelled flag not propagated")
	}
	if out.SkippedByReason["no_datetime"] != 3 {
		t.Errorf("no_datetime: got %d, want 3", out.SkippedByReason["no_datetime"])
	}
	if out.QualityDistribution["fair"] != 2 {
		t.Errorf("quality fair: got %d, want 2", out.QualityDistribution["fair"])
	}
	if out.RecordsPerSecond != 3 {
		t.Errorf("records/s: got %v, want 3", out.RecordsPerSecond)
	}
	if out.RunID == "" {
		t.Error("combined summary has no run id")
	}
}

func TestCombineSummaries_Single(t *testing.T) {
	s := pipeline.Summary{RunID: "only", TotalLines: 7}
	out := combineSummaries([]pipeline.Summary{s})
	if out.RunID != "only" {
		t.Errorf("single summary rewritten: got run id %q", out.RunID)
	}
}

func TestCacheKey_MtimeSensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.log")
	if err := os.WriteFile(path, []byte("line\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	k1, err := cacheKey(path)
	if err != nil {
		t.Fatalf("cacheKey: %v", err)
	}
	k2, err := cacheKey(path)
	if err != nil {
		t.Fatalf("cacheKey: %v", err)
	}
	if k1 != k2 {
		t.Errorf("same file produced different keys: %q vs %q", k1, k2)
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	k3, err := cacheKey(path)
	if err != nil {
		t.Fatalf("cacheKey: %v", err)
	}
	if k3 == k1 {
		t.Error("mtime change did not change the cache key")
	}
}

func TestCacheKey_MissingFile(t *testing.T) {
	if _, err := cacheKey(filepath.Join(t.TempDir(), "absent.log")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
