package store

import (
	"time"

	"github.com/fakeyudi/tomatod/internal/timer"
	"github.com/fakeyudi/tomatod/internal/workflow"
)

// Snapshot is the on-disk form of the timer state. Unknown fields in
// the file are ignored and missing fields default, so the schema stays
// backward-loadable.
type Snapshot struct {
	Status                string              `json:"status"`
	CurrentPhase          string              `json:"current_phase"`
	RemainingSeconds      int                 `json:"remaining_seconds"`
	CompletedWorkSessions int                 `json:"completed_work_sessions"`
	LastUpdatedAt         time.Time           `json:"last_updated_at"`
	Label                 string              `json:"label,omitempty"`
	Workflow              WorkflowFingerprint `json:"workflow"`
}

// WorkflowFingerprint records the workflow the snapshot was taken
// under, so a future schema can detect configuration drift on load.
type WorkflowFingerprint struct {
	Name              string `json:"name"`
	WorkSeconds       int    `json:"work_seconds"`
	BreakSeconds      int    `json:"break_seconds"`
	LongBreakSeconds  int    `json:"long_break_seconds"`
	LongBreakInterval int    `json:"long_break_interval"`
}

// FromTimer converts an engine state into its persisted form.
func FromTimer(st timer.State, wf workflow.Workflow) *Snapshot {
	return &Snapshot{
		Status:                string(st.Status),
		CurrentPhase:          string(st.CurrentPhase),
		RemainingSeconds:      int(st.Remaining / time.Second),
		CompletedWorkSessions: st.CompletedWorkSessions,
		LastUpdatedAt:         st.LastUpdated,
		Label:                 st.Label,
		Workflow: WorkflowFingerprint{
			Name:              wf.Name,
			WorkSeconds:       int(wf.WorkDuration / time.Second),
			BreakSeconds:      int(wf.BreakDuration / time.Second),
			LongBreakSeconds:  int(wf.LongBreakDuration / time.Second),
			LongBreakInterval: wf.LongBreakInterval,
		},
	}
}

// ToTimer converts a loaded snapshot back into an engine state. Field
// validation happens in Engine.Restore, not here.
func (s *Snapshot) ToTimer() timer.State {
	remaining := time.Duration(s.RemainingSeconds) * time.Second
	if remaining < 0 {
		remaining = 0
	}
	return timer.State{
		Status:                timer.Status(s.Status),
		CurrentPhase:          workflow.Phase(s.CurrentPhase),
		Remaining:             remaining,
		CompletedWorkSessions: s.CompletedWorkSessions,
		LastUpdated:           s.LastUpdatedAt,
		Label:                 s.Label,
		WorkflowName:          s.Workflow.Name,
	}
}
