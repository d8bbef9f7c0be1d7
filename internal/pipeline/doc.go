// Package pipeline drives a parse run: it streams a log file through the
// extractors in bounded chunks, resolves parameter names against the
// catalog, then validates, merges, and sorts the resulting readings.
//
// Pipeline{Catalog, Rules, ChunkSize, Outliers, Progress, Cancel} holds the
// per-run collaborators and knobs; one value is reusable across files and
// each ParseFile call is an independent run with its own Summary.
//
// ParseFile(ctx, path) reads the file in chunks of ChunkSize lines, calling
// Progress after every chunk and polling ctx and the Cancel predicate
// between chunks. Per-line problems are tallied in Summary.SkippedByReason,
// never returned; the error covers only a file that cannot be opened or
// read. Cancellation stops between chunks and returns what was collected
// with Summary.Cancelled set. The Summary is fully populated even when the
// run produced nothing.
package pipeline
