package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"croptrends/domain/core"
	"croptrends/domain/trend"
	"croptrends/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SlopeRepositoryImpl implements SlopeStore for PostgreSQL
type SlopeRepositoryImpl struct {
	db *sqlx.DB
}

// NewSlopeRepository creates a new PostgreSQL slope repository
func NewSlopeRepository(db *sqlx.DB) ports.SlopeStore {
	return &SlopeRepositoryImpl{db: db}
}

// Connect opens a PostgreSQL connection pool for the given URL.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the run and record tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trend_runs (
			run_id       TEXT PRIMARY KEY,
			yield_source TEXT NOT NULL,
			rank_source  TEXT NOT NULL,
			crops        TEXT[] NOT NULL,
			top_n        INT NOT NULL,
			fdr_method   TEXT NOT NULL,
			started_at   TIMESTAMPTZ NOT NULL,
			finished_at  TIMESTAMPTZ NOT NULL,
			runtime_ms   BIGINT NOT NULL,
			skipped      INT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS slope_records (
			run_id      TEXT NOT NULL REFERENCES trend_runs(run_id) ON DELETE CASCADE,
			position    INT NOT NULL,
			entity      TEXT NOT NULL,
			crop        TEXT NOT NULL,
			slope       DOUBLE PRECISION NOT NULL,
			std_err     DOUBLE PRECISION NOT NULL,
			t_stat      DOUBLE PRECISION NOT NULL,
			p_value     DOUBLE PRECISION NOT NULL,
			raw_p_value DOUBLE PRECISION NOT NULL,
			n           INT NOT NULL,
			fdr_method  TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`)
	return err
}

// SaveRun stores a completed run with its ordered slope records.
func (r *SlopeRepositoryImpl) SaveRun(ctx context.Context, result *trend.RunResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	m := result.Manifest
	_, err = tx.ExecContext(ctx, `
		INSERT INTO trend_runs (
			run_id, yield_source, rank_source, crops, top_n,
			fdr_method, started_at, finished_at, runtime_ms, skipped
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.RunID.String(), m.YieldSource, m.RankSource, pq.Array(m.Crops),
		m.TopN, m.FDRMethod, m.StartedAt, m.FinishedAt, result.RuntimeMs,
		len(result.Skipped))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, rec := range result.Records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO slope_records (
				run_id, position, entity, crop, slope, std_err,
				t_stat, p_value, raw_p_value, n, fdr_method
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			m.RunID.String(), i, rec.Entity, rec.Crop, rec.Slope, rec.StdErr,
			rec.TStat, rec.PValue, rec.RawPValue, rec.N, rec.FDRMethod)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetRecords retrieves a run's slope records in their stored order.
func (r *SlopeRepositoryImpl) GetRecords(ctx context.Context, runID core.RunID) ([]trend.SlopeRecord, error) {
	rows := []struct {
		trend.SlopeRecord
		Position int `db:"position"`
	}{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT entity, crop, slope, std_err, t_stat, p_value, raw_p_value, n, fdr_method, position
		FROM slope_records WHERE run_id = $1 ORDER BY position`, runID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrRunNotFound
		}
		return nil, err
	}
	records := make([]trend.SlopeRecord, len(rows))
	for i, row := range rows {
		rec := row.SlopeRecord
		rec.Adjusted = rec.FDRMethod != ""
		records[i] = rec
	}
	return records, nil
}

// ListRuns returns the most recent run manifests, newest first.
func (r *SlopeRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]trend.RunManifest, error) {
	if limit <= 0 {
		limit = 20
	}
	type runRow struct {
		RunID       string       `db:"run_id"`
		YieldSource string       `db:"yield_source"`
		RankSource  string       `db:"rank_source"`
		TopN        int          `db:"top_n"`
		FDRMethod   string       `db:"fdr_method"`
		StartedAt   sql.NullTime `db:"started_at"`
		FinishedAt  sql.NullTime `db:"finished_at"`
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, yield_source, rank_source, top_n, fdr_method, started_at, finished_at
		FROM trend_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}

	manifests := make([]trend.RunManifest, len(rows))
	for i, row := range rows {
		manifests[i] = trend.RunManifest{
			RunID:       core.RunID(row.RunID),
			YieldSource: row.YieldSource,
			RankSource:  row.RankSource,
			TopN:        row.TopN,
			FDRMethod:   row.FDRMethod,
			StartedAt:   row.StartedAt.Time,
			FinishedAt:  row.FinishedAt.Time,
		}
	}
	return manifests, nil
}
