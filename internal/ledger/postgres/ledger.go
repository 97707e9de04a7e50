// Package postgres provides the Postgres-backed query ledger.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Ledger writes query records into Postgres: one row per record in
// `queries`, plus a denormalized `case_data` row per distinct case that is
// refreshed on every completed result.
type Ledger struct {
	pool dbPool
}

// New creates a Postgres-backed Ledger using the provided config.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Ledger{pool: pool}, nil
}

// NewWithPool constructs a Ledger from an existing pool (primarily for
// testing with pgxmock).
func NewWithPool(pool dbPool) (*Ledger, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Ledger{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (l *Ledger) Close() {
	l.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id UUID PRIMARY KEY,
	case_type TEXT NOT NULL,
	case_number TEXT NOT NULL,
	filing_year TEXT NOT NULL,
	final_status TEXT NOT NULL,
	retry_count INT NOT NULL DEFAULT 0,
	is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
	error_text TEXT NOT NULL DEFAULT '',
	attempts JSONB NOT NULL,
	raw_response TEXT NOT NULL DEFAULT '',
	parsed_data JSONB,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS case_data (
	case_number TEXT PRIMARY KEY,
	parties JSONB NOT NULL,
	filing_date TEXT NOT NULL DEFAULT '',
	next_hearing_date TEXT NOT NULL DEFAULT '',
	case_status TEXT NOT NULL DEFAULT '',
	orders_count INT NOT NULL DEFAULT 0,
	last_updated TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the two ledger tables when they do not exist yet.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

const insertQuerySQL = `
INSERT INTO queries
	(id, case_type, case_number, filing_year, final_status, retry_count,
	 is_blocked, error_text, attempts, raw_response, parsed_data, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const upsertCaseDataSQL = `
INSERT INTO case_data
	(case_number, parties, filing_date, next_hearing_date, case_status, orders_count, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (case_number) DO UPDATE SET
	parties = EXCLUDED.parties,
	filing_date = EXCLUDED.filing_date,
	next_hearing_date = EXCLUDED.next_hearing_date,
	case_status = EXCLUDED.case_status,
	orders_count = EXCLUDED.orders_count,
	last_updated = EXCLUDED.last_updated`

// Record appends the completed record and refreshes the case-data index
// when the query completed successfully.
func (l *Ledger) Record(ctx context.Context, rec casequery.QueryRecord) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("record id must be set")
	}
	attempts, err := json.Marshal(rec.Attempts)
	if err != nil {
		return "", fmt.Errorf("marshal attempts: %w", err)
	}
	var parsed []byte
	if rec.ParsedData != nil {
		parsed, err = json.Marshal(rec.ParsedData)
		if err != nil {
			return "", fmt.Errorf("marshal parsed data: %w", err)
		}
	}

	_, err = l.pool.Exec(ctx, insertQuerySQL,
		rec.ID,
		rec.Identifier.CaseType,
		rec.Identifier.CaseNumber,
		rec.Identifier.FilingYear,
		string(rec.FinalStatus),
		rec.RetryCount,
		rec.IsBlocked,
		rec.ErrorText,
		attempts,
		string(rec.RawResponse()),
		parsed,
		rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert query record: %w", err)
	}

	if rec.FinalStatus == casequery.QueryStatusCompleted && rec.ParsedData != nil {
		if err := l.upsertCaseData(ctx, *rec.ParsedData, rec.CreatedAt); err != nil {
			return "", err
		}
	}
	return rec.ID, nil
}

func (l *Ledger) upsertCaseData(ctx context.Context, data casequery.CaseResult, at time.Time) error {
	parties, err := json.Marshal(data.Parties)
	if err != nil {
		return fmt.Errorf("marshal parties: %w", err)
	}
	_, err = l.pool.Exec(ctx, upsertCaseDataSQL,
		data.CaseNumber,
		parties,
		data.FilingDate,
		data.NextHearingDate,
		data.CaseStatus,
		len(data.Orders),
		at,
	)
	if err != nil {
		return fmt.Errorf("upsert case data: %w", err)
	}
	return nil
}

const listHistorySQL = `
SELECT id, case_type, case_number, filing_year, final_status, retry_count, is_blocked, created_at
FROM queries
ORDER BY created_at DESC
LIMIT $1`

// ListHistory returns summaries, most recent first.
func (l *Ledger) ListHistory(ctx context.Context, limit int) ([]casequery.QuerySummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx, listHistorySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []casequery.QuerySummary
	for rows.Next() {
		var (
			sum    casequery.QuerySummary
			status string
		)
		if err := rows.Scan(
			&sum.ID,
			&sum.Identifier.CaseType,
			&sum.Identifier.CaseNumber,
			&sum.Identifier.FilingYear,
			&status,
			&sum.RetryCount,
			&sum.IsBlocked,
			&sum.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		sum.FinalStatus = casequery.QueryStatus(status)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}

const getRecordSQL = `
SELECT id, case_type, case_number, filing_year, final_status, retry_count,
	is_blocked, error_text, attempts, raw_response, parsed_data, created_at
FROM queries
WHERE id = $1`

// GetRecord returns the full record, with the raw capture reattached to the
// final attempt.
func (l *Ledger) GetRecord(ctx context.Context, id string) (casequery.QueryRecord, error) {
	var (
		rec      casequery.QueryRecord
		status   string
		attempts []byte
		raw      string
		parsed   []byte
	)
	err := l.pool.QueryRow(ctx, getRecordSQL, id).Scan(
		&rec.ID,
		&rec.Identifier.CaseType,
		&rec.Identifier.CaseNumber,
		&rec.Identifier.FilingYear,
		&status,
		&rec.RetryCount,
		&rec.IsBlocked,
		&rec.ErrorText,
		&attempts,
		&raw,
		&parsed,
		&rec.CreatedAt,
	)
	if err != nil {
		return casequery.QueryRecord{}, fmt.Errorf("get record %s: %w", id, err)
	}
	rec.FinalStatus = casequery.QueryStatus(status)
	if err := json.Unmarshal(attempts, &rec.Attempts); err != nil {
		return casequery.QueryRecord{}, fmt.Errorf("unmarshal attempts: %w", err)
	}
	if len(parsed) > 0 {
		rec.ParsedData = &casequery.CaseResult{}
		if err := json.Unmarshal(parsed, rec.ParsedData); err != nil {
			return casequery.QueryRecord{}, fmt.Errorf("unmarshal parsed data: %w", err)
		}
	}
	if raw != "" && len(rec.Attempts) > 0 {
		rec.Attempts[len(rec.Attempts)-1].RawBody = []byte(raw)
	}
	return rec, nil
}

// ClearHistory removes every query record and returns the count. The
// case-data index is kept: it reflects last-known case state, not audit
// history.
func (l *Ledger) ClearHistory(ctx context.Context) (int64, error) {
	tag, err := l.pool.Exec(ctx, `DELETE FROM queries`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return tag.RowsAffected(), nil
}
