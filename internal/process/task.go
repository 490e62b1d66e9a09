package process

import (
	"time"

	"github.com/google/uuid"
)

// DiscoverySource records which discovery path produced a task.
type DiscoverySource string

const (
	SourceWatcher    DiscoverySource = "watcher"
	SourceReconciler DiscoverySource = "reconciler"
)

// FileTask is the unit of work: one discovered candidate file. Ephemeral;
// created when a path is accepted for processing and discarded once the
// processor finishes.
type FileTask struct {
	ID           string
	Path         string
	DiscoveredAt time.Time
	Source       DiscoverySource
}

// NewFileTask creates a task for the given absolute path.
func NewFileTask(path string, source DiscoverySource) FileTask {
	return FileTask{
		ID:           uuid.NewString(),
		Path:         path,
		DiscoveredAt: time.Now(),
		Source:       source,
	}
}

// Status classifies the result of one Process invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of one Process invocation. Used only for logging
// and tests; never persisted.
type Outcome struct {
	Status     Status
	OutputPath string
	Err        error
}
