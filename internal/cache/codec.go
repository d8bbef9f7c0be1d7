package cache

import (
	"bytes"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/linaclog/linaclog/internal/telemetry"
)

// tabularCodec serializes reading slices. Codecs form a fallback ladder:
// Put tries them in order and records which one actually produced the
// payload; Get starts from the recorded one and falls down the ladder on
// decode errors.
type tabularCodec interface {
	Format() string
	Ext() string
	Encode(readings []telemetry.Reading) ([]byte, error)
	Decode(b []byte) ([]telemetry.Reading, error)
}

func defaultCodecs() []tabularCodec {
	return []tabularCodec{parquetCodec{}, csvCodec{}, gobCodec{}}
}

// readingRow is the flat serialization shape shared by all three codecs.
// Timestamps travel as Unix nanoseconds so every format round-trips them
// identically.
type readingRow struct {
	Timestamp    int64   `parquet:"timestamp"`
	SerialNumber string  `parquet:"serial_number"`
	CanonicalID  string  `parquet:"canonical_id"`
	FriendlyName string  `parquet:"friendly_name"`
	Unit         string  `parquet:"unit"`
	RawSource    string  `parquet:"raw_source_name"`
	Kind         string  `parquet:"kind"`
	Count        int64   `parquet:"count"`
	Min          float64 `parquet:"min"`
	Max          float64 `parquet:"max"`
	Avg          float64 `parquet:"avg"`
	HasMin       bool    `parquet:"has_min"`
	HasMax       bool    `parquet:"has_max"`
	HasAvg       bool    `parquet:"has_avg"`
	Text         string  `parquet:"text"`
	Quality      string  `parquet:"quality"`
	Outlier      bool    `parquet:"outlier"`
	Merged       bool    `parquet:"merged"`
}

func toRow(r telemetry.Reading) readingRow {
	return readingRow{
		Timestamp:    r.Timestamp.UnixNano(),
		SerialNumber: r.SerialNumber,
		CanonicalID:  r.CanonicalID,
		FriendlyName: r.FriendlyName,
		Unit:         r.Unit,
		RawSource:    r.RawSourceName,
		Kind:         string(r.Kind),
		Count:        r.Count,
		Min:          r.Min,
		Max:          r.Max,
		Avg:          r.Avg,
		HasMin:       r.HasMin,
		HasMax:       r.HasMax,
		HasAvg:       r.HasAvg,
		Text:         r.Text,
		Quality:      string(r.Quality),
		Outlier:      r.Outlier,
		Merged:       r.Merged,
	}
}

func fromRow(row readingRow) telemetry.Reading {
	return telemetry.Reading{
		Timestamp:     time.Unix(0, row.Timestamp).UTC(),
		SerialNumber:  row.SerialNumber,
		CanonicalID:   row.CanonicalID,
		FriendlyName:  row.FriendlyName,
		Unit:          row.Unit,
		RawSourceName: row.RawSource,
		Kind:          telemetry.StatKind(row.Kind),
		Count:         row.Count,
		Min:           row.Min,
		Max:           row.Max,
		Avg:           row.Avg,
		HasMin:        row.HasMin,
		HasMax:        row.HasMax,
		HasAvg:        row.HasAvg,
		Text:          row.Text,
		Quality:       telemetry.QualityTag(row.Quality),
		Outlier:       row.Outlier,
		Merged:        row.Merged,
	}
}

func toRows(readings []telemetry.Reading) []readingRow {
	rows := make([]readingRow, len(readings))
	for i, r := range readings {
		rows[i] = toRow(r)
	}
	return rows
}

func fromRows(rows []readingRow) []telemetry.Reading {
	readings := make([]telemetry.Reading, len(rows))
	for i, row := range rows {
		readings[i] = fromRow(row)
	}
	return readings
}

// parquetCodec is the preferred format: columnar, compressed, and readable
// by external analysis tooling.
type parquetCodec struct{}

func (parquetCodec) Format() string { return "parquet" }
func (parquetCodec) Ext() string    { return ".parquet" }

func (parquetCodec) Encode(readings []telemetry.Reading) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[readingRow](&buf)
	if _, err := w.Write(toRows(readings)); err != nil {
		return nil, fmt.Errorf("parquet encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("parquet encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (parquetCodec) Decode(b []byte) ([]telemetry.Reading, error) {
	rows, err := parquet.Read[readingRow](bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("parquet decode: %w", err)
	}
	return fromRows(rows), nil
}

// csvCodec is the delimited-text fallback.
type csvCodec struct{}

func (csvCodec) Format() string { return "csv" }
func (csvCodec) Ext() string    { return ".csv" }

var csvHeader = []string{
	"timestamp", "serial_number", "canonical_id", "friendly_name", "unit",
	"raw_source_name", "kind", "count", "min", "max", "avg",
	"has_min", "has_max", "has_avg", "text", "quality", "outlier", "merged",
}

func (csvCodec) Encode(readings []telemetry.Reading) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range readings {
		row := toRow(r)
		rec := []string{
			strconv.FormatInt(row.Timestamp, 10),
			row.SerialNumber, row.CanonicalID, row.FriendlyName, row.Unit,
			row.RawSource, row.Kind,
			strconv.FormatInt(row.Count, 10),
			formatFloat(row.Min), formatFloat(row.Max), formatFloat(row.Avg),
			strconv.FormatBool(row.HasMin), strconv.FormatBool(row.HasMax), strconv.FormatBool(row.HasAvg),
			row.Text, row.Quality,
			strconv.FormatBool(row.Outlier), strconv.FormatBool(row.Merged),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (csvCodec) Decode(b []byte) ([]telemetry.Reading, error) {
	r := csv.NewReader(bytes.NewReader(b))
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv decode: %w", err)
	}
	if len(all) == 0 || len(all[0]) != len(csvHeader) || all[0][0] != csvHeader[0] {
		return nil, fmt.Errorf("csv decode: unexpected header")
	}
	readings := make([]telemetry.Reading, 0, len(all)-1)
	for _, rec := range all[1:] {
		var row readingRow
		var err error
		if row.Timestamp, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
			return nil, fmt.Errorf("csv decode: timestamp: %w", err)
		}
		row.SerialNumber, row.CanonicalID, row.FriendlyName = rec[1], rec[2], rec[3]
		row.Unit, row.RawSource, row.Kind = rec[4], rec[5], rec[6]
		if row.Count, err = strconv.ParseInt(rec[7], 10, 64); err != nil {
			return nil, fmt.Errorf("csv decode: count: %w", err)
		}
		for i, dst := range []*float64{&row.Min, &row.Max, &row.Avg} {
			if *dst, err = strconv.ParseFloat(rec[8+i], 64); err != nil {
				return nil, fmt.Errorf("csv decode: stat: %w", err)
			}
		}
		for i, dst := range []*bool{&row.HasMin, &row.HasMax, &row.HasAvg} {
			if *dst, err = strconv.ParseBool(rec[11+i]); err != nil {
				return nil, fmt.Errorf("csv decode: flag: %w", err)
			}
		}
		row.Text, row.Quality = rec[14], rec[15]
		if row.Outlier, err = strconv.ParseBool(rec[16]); err != nil {
			return nil, fmt.Errorf("csv decode: flag: %w", err)
		}
		if row.Merged, err = strconv.ParseBool(rec[17]); err != nil {
			return nil, fmt.Errorf("csv decode: flag: %w", err)
		}
		readings = append(readings, fromRow(row))
	}
	return readings, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// gobCodec is the raw-binary last resort. Not portable across tooling, but
// it never fails to encode.
type gobCodec struct{}

func (gobCodec) Format() string { return "gob" }
func (gobCodec) Ext() string    { return ".bin" }

func (gobCodec) Encode(readings []telemetry.Reading) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toRows(readings)); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Decode(b []byte) ([]telemetry.Reading, error) {
	var rows []readingRow
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&rows); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return fromRows(rows), nil
}
