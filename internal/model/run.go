package model

import "time"

// RunStatus represents the current state of a reconciliation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one reconcile or score invocation and its headline counts.
type Run struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Sources   []string  `json:"sources"`
	Status    RunStatus `json:"status"`
	Counts    RunCounts `json:"counts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunCounts summarises what a run produced.
type RunCounts struct {
	Authoritative     int `json:"authoritative"`
	Collected         int `json:"collected"`
	Both              int `json:"both"`
	AuthoritativeOnly int `json:"authoritative_only"`
	CollectedOnly     int `json:"collected_only"`
	Rejected          int `json:"rejected"`
}
