package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"tsbench/internal/bench"
)

// SQLiteStore implements Store using a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_ts TIMESTAMP NOT NULL,
		workspace TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		project TEXT NOT NULL,
		target TEXT,
		build_type TEXT NOT NULL,
		exit_code INTEGER,
		wall_ms INTEGER NOT NULL,
		files INTEGER,
		lines INTEGER,
		memory_kb INTEGER,
		total_time_sec REAL,
		parse_time_sec REAL,
		bind_time_sec REAL,
		check_time_sec REAL,
		emit_time_sec REAL,
		diagnostics INTEGER,
		changed_file TEXT,
		log TEXT
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply history schema: %w", err)
	}
	return nil
}

// SaveRun persists a sweep and all of its records in one transaction.
func (s *SQLiteStore) SaveRun(run bench.Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs (run_ts, workspace) VALUES (?, ?)`, run.Timestamp, run.Workspace)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO records
		(run_id, project, target, build_type, exit_code, wall_ms,
		 files, lines, memory_kb, total_time_sec, parse_time_sec,
		 bind_time_sec, check_time_sec, emit_time_sec, diagnostics,
		 changed_file, log)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
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

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]StoredRun, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.run_ts, r.workspace, COUNT(rec.id)
		FROM runs r LEFT JOIN records rec ON rec.run_id = r.id
		GROUP BY r.id ORDER BY r.run_ts DESC LIMIT ?`, limit)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
