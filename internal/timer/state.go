// Package timer implements the Pomodoro state machine: the single
// source of truth for the current phase, remaining time, and run
// status, mutated only through Engine methods.
package timer

import (
	"time"

	"github.com/fakeyudi/tomatod/internal/workflow"
)

// Status is the run status of the timer.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// State is a snapshot of the timer. Remaining is always a whole,
// non-negative number of seconds.
type State struct {
	Status                Status
	CurrentPhase          workflow.Phase
	Remaining             time.Duration
	CompletedWorkSessions int
	LastUpdated           time.Time
	// Label is the user-supplied activity label from start, e.g.
	// "writing" or "studying". Display only.
	Label        string
	WorkflowName string
}
