package backup

import (
	"path/filepath"
	"time"
)

// timestampLayout formats the run identifier: YYYY-MM-DD_HH-MM-SS.
const timestampLayout = "2006-01-02_15-04-05"

// Run identifies one backup execution. It is created once per invocation and
// immutable afterwards; no cross-run state is kept and staging directories
// are never reused.
type Run struct {
	// ID is the timestamp-derived identifier, backup_<timestamp>.
	ID string

	// StagingPath is <base>/backup_<timestamp>, the local directory all
	// artifacts are collected into before upload.
	StagingPath string

	// Prefix is the remote key prefix, identical to ID.
	Prefix string

	StartedAt time.Time
}

// NewRun derives a Run from the staging base path and the current time.
func NewRun(base string, now time.Time) Run {
	id := "backup_" + now.Format(timestampLayout)
	return Run{
		ID:          id,
		StagingPath: filepath.Join(base, id),
		Prefix:      id,
		StartedAt:   now,
	}
}
