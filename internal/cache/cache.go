package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linaclog/linaclog/internal/telemetry"
)

const indexFile = "index.json"

// entry is the per-key metadata persisted in the index.
type entry struct {
	DataType     string        `json:"data_type"`
	Format       string        `json:"format"`
	Ext          string        `json:"ext"`
	Checksum     string        `json:"checksum"`
	Size         int64         `json:"size"`
	CreatedAt    time.Time     `json:"created_at"`
	TTL          time.Duration `json:"ttl"`
	LastAccessed time.Time     `json:"last_accessed"`
}

// Cache stores values under string keys in a single directory.
type Cache struct {
	dir    string
	index  map[string]*entry
	codecs []tabularCodec
	now    func() time.Time
}

// New opens (or creates) the cache directory and loads the index. A missing
// or unreadable index starts the cache empty; existing payload files are
// then swept as orphans.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	c := &Cache{
		dir:    dir,
		index:  make(map[string]*entry),
		codecs: defaultCodecs(),
		now:    time.Now,
	}
	c.loadIndex()
	return c, nil
}

func (c *Cache) loadIndex() {
	path := filepath.Join(c.dir, indexFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cache: index unreadable, starting empty", "path", path, "err", err)
		}
		return
	}
	if err := json.Unmarshal(b, &c.index); err != nil {
		slog.Warn("cache: index corrupt, starting empty", "path", path, "err", err)
		c.index = make(map[string]*entry)
	}
}

func (c *Cache) saveIndex() {
	b, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		slog.Error("cache: marshal index", "err", err)
		return
	}
	if err := os.WriteFile(filepath.Join(c.dir, indexFile), b, 0o644); err != nil {
		slog.Error("cache: write index", "err", err)
	}
}

// Put stores value under key with the given TTL (zero means no expiry).
// Reading slices go through the codec ladder; any other value is stored as
// JSON. The payload file is written before the index entry, so a crash in
// between leaves an orphan payload, never a dangling index entry.
func (c *Cache) Put(key string, value any, ttl time.Duration) error {
	var (
		payload  []byte
		dataType string
		format   string
		ext      string
	)
	switch v := value.(type) {
	case []telemetry.Reading:
		dataType = "readings"
		for _, codec := range c.codecs {
			b, err := codec.Encode(v)
			if err != nil {
				slog.Warn("cache: codec failed, trying next",
					"key", key, "format", codec.Format(), "err", err)
				continue
			}
			payload, format, ext = b, codec.Format(), codec.Ext()
			break
		}
		if payload == nil {
			return fmt.Errorf("cache: put %q: every codec failed", key)
		}
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("cache: put %q: %w", key, err)
		}
		payload, dataType, format, ext = b, "json", "json", ".json"
	}

	path := filepath.Join(c.dir, key+ext)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("cache: put %q: %w", key, err)
	}
	c.removeStaleSiblings(key, ext)

	sum := sha256.Sum256(payload)
	now := c.now()
	c.index[key] = &entry{
		DataType:     dataType,
		Format:       format,
		Ext:          ext,
		Checksum:     hex.EncodeToString(sum[:]),
		Size:         int64(len(payload)),
		CreatedAt:    now,
		TTL:          ttl,
		LastAccessed: now,
	}
	c.saveIndex()
	return nil
}

// removeStaleSiblings deletes payload files a previous Put left under a
// different format.
func (c *Cache) removeStaleSiblings(key, keepExt string) {
	for _, codec := range c.codecs {
		if codec.Ext() != keepExt {
			os.Remove(filepath.Join(c.dir, key+codec.Ext()))
		}
	}
	if keepExt != ".json" {
		os.Remove(filepath.Join(c.dir, key+".json"))
	}
}

// Get returns the cached value for key, or (nil, false) on a miss. A
// positive ttl overrides the TTL the entry was stored with. Expired,
// missing, corrupt, or undecodable entries are deleted on sight.
func (c *Cache) Get(key string, ttl time.Duration) (any, bool) {
	e, ok := c.index[key]
	if !ok {
		return nil, false
	}
	effective := e.TTL
	if ttl > 0 {
		effective = ttl
	}
	if effective > 0 && c.now().Sub(e.CreatedAt) > effective {
		c.drop(key, "expired")
		return nil, false
	}

	path := filepath.Join(c.dir, key+e.Ext)
	b, err := os.ReadFile(path)
	if err != nil {
		c.drop(key, "payload missing")
		return nil, false
	}
	sum := sha256.Sum256(b)
	if hex.EncodeToString(sum[:]) != e.Checksum {
		c.drop(key, "checksum mismatch")
		return nil, false
	}

	var value any
	if e.DataType == "json" {
		if err := json.Unmarshal(b, &value); err != nil {
			c.drop(key, "json undecodable")
			return nil, false
		}
	} else {
		readings, err := c.decodeReadings(e.Format, b)
		if err != nil {
			c.drop(key, "payload undecodable")
			return nil, false
		}
		value = readings
	}

	e.LastAccessed = c.now()
	c.saveIndex()
	return value, true
}

// decodeReadings tries the recorded codec first, then the rest of the
// ladder. An entry written as parquet by an older build but unreadable now
// may still yield data through a fallback format.
func (c *Cache) decodeReadings(format string, b []byte) ([]telemetry.Reading, error) {
	var firstErr error
	for pass := 0; pass < 2; pass++ {
		for _, codec := range c.codecs {
			recorded := codec.Format() == format
			if (pass == 0) != recorded {
				continue
			}
			readings, err := codec.Decode(b)
			if err == nil {
				return readings, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return nil, firstErr
}

// drop removes an entry and its payload file, logging why.
func (c *Cache) drop(key, why string) {
	slog.Warn("cache: dropping entry", "key", key, "reason", why)
	c.removeEntry(key)
	c.saveIndex()
}

func (c *Cache) removeEntry(key string) {
	if e, ok := c.index[key]; ok {
		os.Remove(filepath.Join(c.dir, key+e.Ext))
	}
	for _, codec := range c.codecs {
		os.Remove(filepath.Join(c.dir, key+codec.Ext()))
	}
	os.Remove(filepath.Join(c.dir, key+".json"))
	delete(c.index, key)
}

// Invalidate removes one entry. Removing an absent key is not an error.
func (c *Cache) Invalidate(key string) {
	c.removeEntry(key)
	c.saveIndex()
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	n := 0
	for key := range c.index {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(key)
			n++
		}
	}
	if n > 0 {
		c.saveIndex()
	}
	return n
}

// SweepExpired deletes every expired entry plus any payload file in the
// cache directory that no index entry owns (leftovers from crashes or
// older format versions). Returns the number of entries and orphans
// removed.
func (c *Cache) SweepExpired() int {
	n := 0
	now := c.now()
	for key, e := range c.index {
		if e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL {
			c.removeEntry(key)
			n++
		}
	}

	owned := make(map[string]bool, len(c.index))
	for key, e := range c.index {
		owned[key+e.Ext] = true
	}
	names, err := os.ReadDir(c.dir)
	if err == nil {
		for _, de := range names {
			name := de.Name()
			if de.IsDir() || name == indexFile || owned[name] {
				continue
			}
			if err := os.Remove(filepath.Join(c.dir, name)); err == nil {
				slog.Info("cache: removed orphan payload", "file", name)
				n++
			}
		}
	}
	if n > 0 {
		c.saveIndex()
	}
	return n
}

// Stats summarizes the cache contents.
type Stats struct {
	Dir        string
	Entries    int
	Expired    int
	TotalBytes int64
}

// Stats reports entry counts and payload size without modifying anything.
func (c *Cache) Stats() Stats {
	s := Stats{Dir: c.dir, Entries: len(c.index)}
	now := c.now()
	for _, e := range c.index {
		if e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL {
			s.Expired++
		}
		s.TotalBytes += e.Size
	}
	return s
}
