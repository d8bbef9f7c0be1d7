// Package catalog holds the machine parameter catalog: the mapping from the
// thousands of raw parameter spellings that appear in linac log files to the
// few dozen canonical parameters the pipeline actually tracks.
//
// Top-level types:
//   - Parameter — canonical ID, friendly name, unit, inferred category and
//     expected/critical Ranges
//   - Catalog — immutable lookup structure built by Parse; Resolve matches a
//     raw spelling in three tiers (exact/variant key, substring containment,
//     token overlap) and IsAllowed/LineHasAllowed are the cheap pre-filters
//
// Parse(r) reads the pipe-delimited parameter table strictly. Load(path)
// never fails: a missing or unusable file logs a warning and falls back to
// the embedded default table, and the built-in event parameters (system
// mode, EMO, motion interlock, odometer) are always registered.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with a freshly parsed Catalog. It handles the rename→create
// pattern used by atomic-save editors by re-adding the watch after a rename
// event. A Catalog is immutable after Parse; swapping the pointer between
// parse runs is the caller's job.
package catalog
