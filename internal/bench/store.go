package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Aggregator accumulates records in production order. Only the sequential
// sweep appends, so no locking is needed. Nothing is persisted until Save;
// a crash mid-run loses the in-memory set.
type Aggregator struct {
	records []Record
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append adds one immutable record to the result set.
func (a *Aggregator) Append(rec Record) {
	a.records = append(a.records, rec)
}

// Records returns the ordered result set collected so far.
func (a *Aggregator) Records() []Record {
	return a.records
}

// Save serializes the complete ordered sequence as one JSON artifact.
func (a *Aggregator) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	records := a.records
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result set: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadRecords reads a previously saved result set.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result set %s: %w", path, err)
	}
	return records, nil
}
