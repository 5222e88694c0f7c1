package models

import "time"

// QueryMetric is an ephemeral, in-memory record of one executed SQL
// statement. Ring-buffered by the DatabaseMonitor (H); never persisted.
type QueryMetric struct {
	Hash           string    `json:"hash"`
	SQL            string    `json:"sql"`
	ExecutionTime  time.Duration `json:"execution_time"`
	Timestamp      time.Time `json:"timestamp"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	RowsAffected   int64     `json:"rows_affected"`
	ConnectionID   string    `json:"connection_id"`
}

// SlowQueryRecord has the same shape as QueryMetric; retained in a smaller
// bounded buffer when ExecutionTime >= the configured slow threshold.
type SlowQueryRecord = QueryMetric

// EmbeddingEntry maps a table or column identifier to its dense vector and
// descriptive text, persisted to disk with a staleness horizon.
type EmbeddingEntry struct {
	Key       string    `json:"key"` // "table" or "table.column"
	Text      string    `json:"text"`
	Vector    []float64 `json:"vector"`
	UpdatedAt time.Time `json:"updated_at"`
}
