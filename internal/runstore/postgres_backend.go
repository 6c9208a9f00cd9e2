package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  mode TEXT NOT NULL DEFAULT 'document',
  task TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  result TEXT NOT NULL DEFAULT '',
  error TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
`)
	})
	return s.schemaErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordDB(row rowScanner) (Record, error) {
	var (
		rec    Record
		result string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Mode,
		&rec.Task,
		&rec.Status,
		&result,
		&rec.Error,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if result != "" {
		rec.Result = json.RawMessage(result)
	}
	return normalizeRecord(rec), nil
}

const selectColumns = `id, mode, task, status, result, error, created_at, updated_at`

func (s *Store) putDB(ctx context.Context, rec Record) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, mode, task, status, result, error, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id)
DO UPDATE SET mode=EXCLUDED.mode,
  task=EXCLUDED.task,
  status=EXCLUDED.status,
  result=EXCLUDED.result,
  error=EXCLUDED.error,
  updated_at=EXCLUDED.updated_at`,
		rec.ID, rec.Mode, rec.Task, rec.Status, string(rec.Result), rec.Error, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (s *Store) getDB(ctx context.Context, id string) (Record, error) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE id = $1`, id)
	rec, err := scanRecordDB(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) listDB(ctx context.Context) ([]Record, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM runs ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecordDB(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) updateDB(ctx context.Context, id string, mutate func(*Record)) (Record, error) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE id = $1 FOR UPDATE`, id)
	rec, err := scanRecordDB(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	mutate(&rec)
	rec.ID = id
	rec = normalizeRecord(rec)
	rec.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
UPDATE runs
SET mode=$2, task=$3, status=$4, result=$5, error=$6, updated_at=$7
WHERE id=$1`,
		rec.ID, rec.Mode, rec.Task, rec.Status, string(rec.Result), rec.Error, rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
