// Package extract turns raw log lines into parameter records. It is
// stateless and per-line: each call sees one line and returns whatever
// records that line carries, plus a drop Reason when the line looked like
// telemetry but could not be used. Catalog resolution happens in the
// pipeline, not here — extract only knows grammar.
//
// Two grammars are supported and detected per line:
//   - TabLine — the tab-delimited control-system format: nine tab-separated
//     fields with the payload message last, serial vendor prefixes (SN#,
//     HAL-TRT-SN, SN) stripped, message dispatch by content sniffing
//     (statistics block, temperature sensor, system mode, odometer,
//     EMO/motion events)
//   - FreeText — the free-text service log format: ISO or US datetime and a
//     single statistics pattern embedded anywhere in the line; a record is
//     emitted only when a count plus at least one of max/min/avg is present
//
// HasTimestamp and HasStatKeywords are the cheap pre-filters the pipeline
// runs before paying for the full regex pass. Drop reasons are no_datetime,
// unmapped_parameter, and malformed_data; extraction never returns an error
// for a bad line.
package extract
