// Package archive snapshots extracted tables to object storage as raw
// artifacts, one object per table per run. The archive is best-effort: a
// failed artifact write is logged and skipped, never surfaced to the
// pipeline, because the warehouse load is the authoritative output.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/metalake/ads-core/internal/meta"
	"github.com/metalake/ads-core/internal/objectstore"
)

// Config locates the archive bucket.
type Config struct {
	Bucket string
}

// Result captures archive write outcomes for the run report.
type Result struct {
	Objects []string
	Records int64
	Bytes   int64
}

// Writer persists raw table snapshots.
type Writer struct {
	cfg   Config
	blobs objectstore.ObjectStore
}

// NewWriter wires an archive writer against an object store.
func NewWriter(cfg Config, blobs objectstore.ObjectStore) *Writer {
	return &Writer{cfg: cfg, blobs: blobs}
}

// Archive writes every non-empty table under
// raw/{slug}/dt={date}/run={runID}/{table}.parquet. Tables that cannot be
// rendered as Parquet degrade to gzipped JSON lines. Failed writes are
// logged and skipped.
func (w *Writer) Archive(ctx context.Context, slug, date, runID string, tables map[string]*meta.Table) *Result {
	result := &Result{}
	if len(tables) == 0 {
		return result
	}

	if err := w.blobs.EnsureBucket(ctx, w.cfg.Bucket); err != nil {
		log.Error().Str("bucket", w.cfg.Bucket).Err(err).
			Msg("archive bucket unavailable, skipping snapshot")
		return result
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	prefix := fmt.Sprintf("raw/%s/dt=%s/run=%s", slug, date, runID)
	for _, name := range names {
		t := tables[name]
		if t.Empty() {
			continue
		}

		key := fmt.Sprintf("%s/%s.parquet", prefix, name)
		contentType := "application/octet-stream"
		data, err := parquetBytes(t)
		if err != nil {
			log.Warn().Str("table", name).Err(err).
				Msg("parquet render failed, falling back to jsonl")
			key = fmt.Sprintf("%s/%s.jsonl.gz", prefix, name)
			contentType = "application/gzip"
			data, err = jsonlBytes(t)
			if err != nil {
				log.Error().Str("table", name).Err(err).Msg("archive render failed")
				continue
			}
		}

		if err := w.blobs.PutObject(ctx, w.cfg.Bucket, key, data, contentType); err != nil {
			log.Error().Str("table", name).Str("key", key).Err(err).
				Msg("archive write failed")
			continue
		}

		result.Objects = append(result.Objects, objectstore.URL(w.cfg.Bucket, key))
		result.Records += int64(len(t.Rows))
		result.Bytes += int64(len(data))
	}

	if len(result.Objects) > 0 {
		log.Info().Str("client", slug).Int("objects", len(result.Objects)).
			Int64("records", result.Records).Msg("raw tables archived")
	}
	return result
}

// StoreReport persists a run report under runs/dt={date}/{runID}.json so
// operators can browse batch history next to the raw snapshots. Returns
// the object URL, or "" when the write failed (best-effort, like the
// table snapshots).
func (w *Writer) StoreReport(ctx context.Context, date, runID string, report any) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Warn().Str("run_id", runID).Err(err).Msg("report render failed")
		return ""
	}

	if err := w.blobs.EnsureBucket(ctx, w.cfg.Bucket); err != nil {
		log.Warn().Str("bucket", w.cfg.Bucket).Err(err).Msg("archive bucket unavailable for report")
		return ""
	}

	key := fmt.Sprintf("runs/dt=%s/%s.json", date, runID)
	if err := w.blobs.PutObject(ctx, w.cfg.Bucket, key, data, "application/json"); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("report write failed")
		return ""
	}
	return objectstore.URL(w.cfg.Bucket, key)
}

// parquetBytes renders a table as a single SNAPPY-compressed Parquet file.
func parquetBytes(t *meta.Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(parquetSchema(t.Fields), pfw, 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range t.Rows {
		line, err := json.Marshal(projectRow(row, t.Fields))
		if err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, err
		}
		if err := pw.Write(string(line)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return nil, err
	}
	_ = pfw.Close()
	return buf.Bytes(), nil
}

func parquetSchema(fields []meta.FieldDef) string {
	defs := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		defs = append(defs, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", f.Name, parquetType(f.DataType)),
		})
	}
	root := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": defs,
	}
	b, _ := json.Marshal(root)
	return string(b)
}

func parquetType(dataType string) string {
	switch strings.ToUpper(dataType) {
	case "BOOLEAN":
		return "BOOLEAN"
	case "INTEGER", "INT", "BIGINT":
		return "INT64"
	case "FLOAT", "DOUBLE", "NUMBER", "NUMERIC", "DECIMAL":
		return "DOUBLE"
	default:
		return "BYTE_ARRAY"
	}
}

// projectRow orders a row by the table schema so every record carries the
// same columns, with explicit nulls for gaps.
func projectRow(row meta.Row, fields []meta.FieldDef) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = row[f.Name]
	}
	return out
}

// jsonlBytes renders a table as gzipped JSON lines, the fallback format
// when Parquet rendering fails.
func jsonlBytes(t *meta.Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	enc := json.NewEncoder(gz)
	for _, row := range t.Rows {
		if err := enc.Encode(projectRow(row, t.Fields)); err != nil {
			_ = gz.Close()
			return nil, err
		}
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
