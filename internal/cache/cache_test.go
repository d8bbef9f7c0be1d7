package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linaclog/linaclog/internal/telemetry"
)

func sampleReadings() []telemetry.Reading {
	ts := time.Date(2023, 1, 15, 8, 30, 22, 0, time.UTC)
	return []telemetry.Reading{
		{
			Timestamp:     ts,
			SerialNumber:  "2182",
			CanonicalID:   "magnetronFlow",
			FriendlyName:  "Magnetron Flow",
			Unit:          "L/min",
			RawSourceName: "magnetronFlow",
			Kind:          telemetry.KindCombined,
			Count:         150,
			Min:           12.8,
			Max:           15.2,
			Avg:           13.73,
			HasMin:        true,
			HasMax:        true,
			HasAvg:        true,
			Quality:       telemetry.QualityExcellent,
			Merged:        true,
		},
		{
			Timestamp:    ts.Add(time.Minute),
			SerialNumber: "2182",
			CanonicalID:  "systemMode",
			FriendlyName: "System Mode",
			Kind:         telemetry.KindMode,
			Count:        1,
			Text:         "SERVICE",
			Quality:      telemetry.QualityFair,
		},
	}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir())
	require.NoError(t, err)
	return c
}

// failingCodec simulates the preferred format being unavailable.
type failingCodec struct{}

func (failingCodec) Format() string { return "parquet" }
func (failingCodec) Ext() string    { return ".parquet" }
func (failingCodec) Encode([]telemetry.Reading) ([]byte, error) {
	return nil, errors.New("codec unavailable")
}
func (failingCodec) Decode([]byte) ([]telemetry.Reading, error) {
	return nil, errors.New("codec unavailable")
}

func TestPutGetReadings(t *testing.T) {
	c := newTestCache(t)
	want := sampleReadings()

	require.NoError(t, c.Put("run1", want, time.Hour))
	got, ok := c.Get("run1", 0)
	require.True(t, ok)
	require.Equal(t, want, got)

	e := c.index["run1"]
	require.Equal(t, "parquet", e.Format)
	require.FileExists(t, filepath.Join(c.dir, "run1.parquet"))
}

func TestPutFallsDownCodecLadder(t *testing.T) {
	c := newTestCache(t)
	c.codecs[0] = failingCodec{}
	want := sampleReadings()

	require.NoError(t, c.Put("run1", want, time.Hour))
	require.Equal(t, "csv", c.index["run1"].Format)
	require.FileExists(t, filepath.Join(c.dir, "run1.csv"))

	got, ok := c.Get("run1", 0)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestPutGetDictionary(t *testing.T) {
	c := newTestCache(t)
	want := map[string]any{"machine": "2182", "records": float64(150)}

	require.NoError(t, c.Put("meta1", want, time.Hour))
	got, ok := c.Get("meta1", 0)
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, "json", c.index["meta1"].Format)
}

func TestGetExpiredDeletesEntry(t *testing.T) {
	c := newTestCache(t)
	now := time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put("run1", sampleReadings(), time.Second))
	payload := filepath.Join(c.dir, "run1.parquet")
	require.FileExists(t, payload)

	now = now.Add(1100 * time.Millisecond)
	_, ok := c.Get("run1", 0)
	require.False(t, ok)
	require.NoFileExists(t, payload)
	require.NotContains(t, c.index, "run1")
}

func TestGetTTLOverride(t *testing.T) {
	c := newTestCache(t)
	now := time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put("run1", sampleReadings(), time.Hour))
	now = now.Add(time.Minute)
	_, ok := c.Get("run1", time.Second)
	require.False(t, ok, "per-call TTL must override the stored one")
}

func TestGetCorruptPayloadSelfHeals(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("run1", sampleReadings(), time.Hour))

	payload := filepath.Join(c.dir, "run1.parquet")
	b, err := os.ReadFile(payload)
	require.NoError(t, err)
	b[len(b)/2] ^= 0xff
	require.NoError(t, os.WriteFile(payload, b, 0o644))

	_, ok := c.Get("run1", 0)
	require.False(t, ok)
	require.NoFileExists(t, payload)
	require.NotContains(t, c.index, "run1")
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, c.Put("run1", sampleReadings(), time.Hour))

	reopened, err := New(dir)
	require.NoError(t, err)
	got, ok := reopened.Get("run1", 0)
	require.True(t, ok)
	require.Equal(t, sampleReadings(), got)
}

func TestInvalidatePrefix(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Put("parse-aaa", sampleReadings(), time.Hour))
	require.NoError(t, c.Put("parse-bbb", sampleReadings(), time.Hour))
	require.NoError(t, c.Put("meta-ccc", map[string]any{"x": 1.0}, time.Hour))

	require.Equal(t, 2, c.InvalidatePrefix("parse-"))
	_, ok := c.Get("meta-ccc", 0)
	require.True(t, ok)
}

func TestSweepExpiredRemovesOrphans(t *testing.T) {
	c := newTestCache(t)
	now := time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put("fresh", sampleReadings(), time.Hour))
	require.NoError(t, c.Put("stale", sampleReadings(), time.Second))
	orphan := filepath.Join(c.dir, "leftover.bin")
	require.NoError(t, os.WriteFile(orphan, []byte("junk"), 0o644))

	now = now.Add(time.Minute)
	require.Equal(t, 2, c.SweepExpired())
	require.NoFileExists(t, orphan)
	_, ok := c.Get("fresh", 0)
	require.True(t, ok)
}

func TestStats(t *testing.T) {
	c := newTestCache(t)
	now := time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put("a", sampleReadings(), time.Second))
	require.NoError(t, c.Put("b", sampleReadings(), time.Hour))
	now = now.Add(time.Minute)

	s := c.Stats()
	require.Equal(t, 2, s.Entries)
	require.Equal(t, 1, s.Expired)
	require.Positive(t, s.TotalBytes)
}
