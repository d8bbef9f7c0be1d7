// Package cache is a disk-backed artifact cache for parse results. Each
// entry is one payload file per key plus a shared index.json; entries carry
// a TTL and a SHA-256 checksum and the cache heals itself by deleting
// anything expired, corrupt, or orphaned instead of failing.
//
// Put(key, value, ttl) detects the value's shape: []telemetry.Reading goes
// through the tabular codec ladder (parquet, then CSV, then gob — the first
// encoder that succeeds wins), everything else is stored as JSON. The
// payload file is written before the index entry so a crash never leaves
// metadata pointing at a missing payload.
//
// Get(key, ttl) returns nil/false for an absent, expired, missing, or
// corrupt entry (and deletes it); a positive ttl overrides the TTL the
// entry was stored with. Maintenance goes through Invalidate,
// InvalidatePrefix, SweepExpired (which also removes orphaned payload
// files), and Stats.
//
// A Cache is not safe for concurrent use; run one instance per process.
package cache
