// Package warehouse loads extracted tables into the analytics database.
// Each run writes date-suffixed tables, replacing any previous load of the
// same suffix, so reruns are idempotent. Every client lands in its own
// target database, selected through the {project} token of the DSN.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/meta"
)

// ProjectToken marks where a client's project id slots into the DSN.
const ProjectToken = "{project}"

// Config locates the warehouse.
type Config struct {
	// DSN is the postgres connection string. A {project} token, when
	// present, is replaced per client so each project gets its own
	// database. Without the token all clients share one database.
	DSN     string
	Dataset string
}

// Sink writes tables into a schema of each client's warehouse database.
// Connection pools are dialed lazily and cached per resolved DSN.
type Sink struct {
	cfg Config

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// NewSink validates the config. Connections open on first use.
func NewSink(cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse dsn is required")
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "meta_ads"
	}
	return &Sink{cfg: cfg, pools: map[string]*pgxpool.Pool{}}, nil
}

// Close releases all cached connection pools.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pools {
		p.Close()
	}
	s.pools = map[string]*pgxpool.Pool{}
}

// Dataset returns the target schema name.
func (s *Sink) Dataset() string { return s.cfg.Dataset }

// expandDSN resolves the project token.
func expandDSN(dsn, project string) string {
	return strings.ReplaceAll(dsn, ProjectToken, project)
}

// pool returns the connection pool for a project, dialing and preparing
// the schema on first use.
func (s *Sink) pool(ctx context.Context, project string) (*pgxpool.Pool, error) {
	dsn := expandDSN(s.cfg.DSN, project)

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pools[dsn]; ok {
		return p, nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create warehouse pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("warehouse unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(s.cfg.Dataset)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure dataset %s: %w", s.cfg.Dataset, err)
	}

	log.Info().Str("project", project).Str("dataset", s.cfg.Dataset).
		Msg("warehouse connection established")
	s.pools[dsn] = pool
	return pool, nil
}

// UploadTables replaces {table}_{suffix} in the project's dataset schema
// with the extracted rows, one table at a time in name order. Nil and
// empty tables are skipped with a warning. The first failed load aborts
// the rest: a partial upload for a client is treated as a failed run.
func (s *Sink) UploadTables(ctx context.Context, project string, tables map[string]*meta.Table, suffix string) error {
	if len(tables) == 0 {
		return nil
	}
	pool, err := s.pool(ctx, project)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	log.Info().Str("project", project).Str("dataset", s.cfg.Dataset).
		Int("tables", len(names)).Msg("starting warehouse upload")

	for _, name := range names {
		t := tables[name]
		target := name + "_" + suffix
		if t.Empty() {
			log.Warn().Str("table", target).Msg("skipping empty table")
			continue
		}
		if err := s.replaceTable(ctx, pool, target, t); err != nil {
			return fmt.Errorf("upload %s.%s: %w", s.cfg.Dataset, target, err)
		}
		log.Info().Str("table", s.cfg.Dataset+"."+target).Int("rows", len(t.Rows)).
			Msg("table loaded")
	}
	return nil
}

func (s *Sink) replaceTable(ctx context.Context, pool *pgxpool.Pool, name string, t *meta.Table) error {
	qualified := pq.QuoteIdentifier(s.cfg.Dataset) + "." + pq.QuoteIdentifier(name)

	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+qualified); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createTableSQL(qualified, t.Fields)); err != nil {
		return err
	}
	return insertRows(ctx, pool, qualified, t)
}

const insertBatchSize = 500

func insertRows(ctx context.Context, pool *pgxpool.Pool, qualified string, t *meta.Table) error {
	stmt := insertSQL(qualified, t.Fields)
	for start := 0; start < len(t.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		batch := &pgx.Batch{}
		for _, row := range t.Rows[start:end] {
			batch.Queue(stmt, rowValues(row, t.Fields)...)
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return nil
}

func createTableSQL(qualified string, fields []meta.FieldDef) string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = pq.QuoteIdentifier(f.Name) + " " + sqlType(f.DataType)
	}
	return "CREATE TABLE " + qualified + " (" + strings.Join(cols, ", ") + ")"
}

func insertSQL(qualified string, fields []meta.FieldDef) string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = pq.QuoteIdentifier(f.Name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualified, strings.Join(cols, ","), placeholders(len(fields)))
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ",")
}

// rowValues orders a row by the table schema. Empty strings in DATE
// columns load as NULL.
func rowValues(row meta.Row, fields []meta.FieldDef) []any {
	vals := make([]any, len(fields))
	for i, f := range fields {
		v := row[f.Name]
		if f.DataType == "DATE" {
			if str, ok := v.(string); ok && str == "" {
				v = nil
			}
		}
		vals[i] = v
	}
	return vals
}

func sqlType(dataType string) string {
	switch strings.ToUpper(dataType) {
	case "INTEGER", "INT", "BIGINT":
		return "BIGINT"
	case "FLOAT", "DOUBLE", "NUMBER", "NUMERIC", "DECIMAL":
		return "DOUBLE PRECISION"
	case "BOOLEAN":
		return "BOOLEAN"
	case "DATE":
		return "DATE"
	default:
		return "TEXT"
	}
}
