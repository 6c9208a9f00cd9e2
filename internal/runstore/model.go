// Package runstore persists run records: one row per refinement session
// with its mode, status and terminal result. A JSON file backs local
// runs; Postgres backs the service, fronted by an LRU read cache.
package runstore

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Run modes.
const (
	ModeDocument = "document"
	ModeAnalysis = "analysis"
)

// Run statuses. Terminal statuses mirror the loop outcomes; "failed"
// covers collaborator errors.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusRejected  = "rejected"
	StatusExhausted = "exhausted"
	StatusFailed    = "failed"
)

// Record is one run's persisted state. Result holds the loop's Result
// encoded as JSON once the run reaches a terminal status.
type Record struct {
	ID        string          `json:"id"`
	Mode      string          `json:"mode"`
	Task      string          `json:"task"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func normalizeRecord(r Record) Record {
	r.ID = strings.TrimSpace(r.ID)
	r.Mode = strings.TrimSpace(r.Mode)
	if r.Mode == "" {
		r.Mode = ModeDocument
	}
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}

// sortRecords orders newest first, ties broken by ID for stable output.
func sortRecords(rows []Record) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
}
