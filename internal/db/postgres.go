package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver

	"tsbench/internal/bench"
)

// PostgresStore implements Store against a shared Postgres instance, for
// teams collecting history from more than one benchmark host.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id BIGSERIAL PRIMARY KEY,
		run_ts TIMESTAMPTZ NOT NULL,
		workspace TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS records (
		id BIGSERIAL PRIMARY KEY,
		run_id BIGINT NOT NULL REFERENCES runs(id),
		project TEXT NOT NULL,
		target TEXT,
		build_type TEXT NOT NULL,
		exit_code INTEGER,
		wall_ms BIGINT NOT NULL,
		files BIGINT,
		lines BIGINT,
		memory_kb BIGINT,
		total_time_sec DOUBLE PRECISION,
		parse_time_sec DOUBLE PRECISION,
		bind_time_sec DOUBLE PRECISION,
		check_time_sec DOUBLE PRECISION,
		emit_time_sec DOUBLE PRECISION,
		diagnostics BIGINT,
		changed_file TEXT,
		log TEXT
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply history schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRun(run bench.Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRow(`INSERT INTO runs (run_ts, workspace) VALUES ($1, $2) RETURNING id`,
		run.Timestamp, run.Workspace).Scan(&runID)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO records
		(run_id, project, target, build_type, exit_code, wall_ms,
		 files, lines, memory_kb, total_time_sec, parse_time_sec,
		 bind_time_sec, check_time_sec, emit_time_sec, diagnostics,
		 changed_file, log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range run.Records {
		if _, err := stmt.Exec(
			runID, rec.Project, rec.Target, rec.BuildType, rec.ExitCode, rec.WallMs,
			rec.Files, rec.Lines, rec.MemoryKB, rec.TotalTimeSec, rec.ParseTimeSec,
			rec.BindTimeSec, rec.CheckTimeSec, rec.EmitTimeSec, rec.Diagnostics,
			rec.ChangedFile, rec.Log,
		); err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", rec.Project, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) ListRuns(limit int) ([]StoredRun, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.run_ts, r.workspace, COUNT(rec.id)
		FROM runs r LEFT JOIN records rec ON rec.run_id = r.id
		GROUP BY r.id ORDER BY r.run_ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []StoredRun
	for rows.Next() {
		var run StoredRun
		if err := rows.Scan(&run.ID, &run.Timestamp, &run.Workspace, &run.Records); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
