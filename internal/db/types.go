package db

import (
	"time"

	"tsbench/internal/bench"
)

// Store persists benchmark runs across invocations so results can be
// compared over time. The JSON result set remains the primary artifact;
// history storage is optional.
type Store interface {
	Close() error
	SaveRun(run bench.Run) error
	ListRuns(limit int) ([]StoredRun, error)
}

// StoredRun summarizes one persisted sweep.
type StoredRun struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Workspace string    `json:"workspace"`
	Records   int       `json:"records"`
}
