// Package types provides type definitions for structured data used throughout the agent console.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"
)

// JobStatus represents the lifecycle state of a job.
type JobStatus string

// Job lifecycle states. Completed and failed are terminal.
const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one user-submitted task and its execution record.
// Remote jobs are server-authoritative; simulated jobs are mutated only
// by the local simulation engine. The partition is fixed at creation by
// IsSimulation and never changes.
type Job struct {
	ID           string         `json:"id"`
	Task         string         `json:"task"`
	Persona      string         `json:"persona,omitempty"`
	RepoURL      string         `json:"repo_url,omitempty"`
	UseSearch    bool           `json:"use_search,omitempty"`
	Status       JobStatus      `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	Logs         string         `json:"logs"`
	Files        []FileArtifact `json:"files"`
	IsSimulation bool           `json:"is_simulation,omitempty"`
}

// FileArtifact describes one file produced by a completed job.
type FileArtifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size *int64 `json:"size,omitempty"`
}

// JobPatch is a partial update applied to an existing job. Nil fields
// are left untouched. AppendLog is always appended, never a rewrite, so
// a job's log blob only ever grows.
type JobPatch struct {
	Status    *JobStatus
	AppendLog string
	Files     []FileArtifact
}

// EntryType classifies a log entry for display.
type EntryType string

// Log entry classifications, in the priority order the formatter
// applies them (error wins over success, and so on down to info).
const (
	EntryError   EntryType = "error"
	EntrySuccess EntryType = "success"
	EntryGit     EntryType = "git"
	EntryBrain   EntryType = "brain"
	EntryPlan    EntryType = "plan"
	EntryProcess EntryType = "process"
	EntrySearch  EntryType = "search"
	EntryMap     EntryType = "map"
	EntryInfo    EntryType = "info"
)

// LogEntry is one classified, timestamped line derived from a job's raw
// log text. Entries are recomputed from the blob on demand and never
// stored.
type LogEntry struct {
	Timestamp string    `json:"timestamp"`
	Message   string    `json:"message"`
	Type      EntryType `json:"type"`
}
