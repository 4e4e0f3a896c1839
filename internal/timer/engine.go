package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/fakeyudi/tomatod/internal/workflow"
)

// ErrInvalidTransition is returned when a structurally valid command
// does not apply to the current status, e.g. pause while idle. The
// state is left untouched.
var ErrInvalidTransition = errors.New("invalid transition")

// Engine is the timer state machine. It is not safe for concurrent
// use; the daemon serializes all access through its event loop.
type Engine struct {
	wf  workflow.Workflow
	st  State
	now func() time.Time
}

// New returns an idle engine over the given workflow.
func New(wf workflow.Workflow) *Engine {
	e := &Engine{wf: wf, now: time.Now}
	e.st = State{
		Status:       StatusIdle,
		CurrentPhase: workflow.PhaseWork,
		WorkflowName: wf.Name,
	}
	return e
}

// SetClock overrides the engine's wall clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	return e.st
}

// Workflow returns the workflow the engine runs.
func (e *Engine) Workflow() workflow.Workflow {
	return e.wf
}

// Start begins a fresh cycle from the idle or completed state. Starting
// an already-running timer is a no-op that reports the current state
// unchanged. Starting while paused is an invalid transition; resume is
// the right command there.
func (e *Engine) Start(label string) error {
	switch e.st.Status {
	case StatusRunning:
		return nil
	case StatusPaused:
		return fmt.Errorf("%w: cannot start while paused, use resume", ErrInvalidTransition)
	}
	e.st.Status = StatusRunning
	e.st.CurrentPhase = workflow.PhaseWork
	e.st.Remaining = e.wf.WorkDuration
	e.st.CompletedWorkSessions = 0
	e.st.Label = label
	e.touch()
	return nil
}

// Pause suspends a running timer, preserving the remaining time
// exactly.
func (e *Engine) Pause() error {
	if e.st.Status != StatusRunning {
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidTransition, e.st.Status)
	}
	e.st.Status = StatusPaused
	e.touch()
	return nil
}

// Resume continues a paused timer from where it left off.
func (e *Engine) Resume() error {
	if e.st.Status != StatusPaused {
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidTransition, e.st.Status)
	}
	e.st.Status = StatusRunning
	e.touch()
	return nil
}

// Stop resets the timer to idle from any state. The session counter is
// left untouched so it remains visible until the next start.
func (e *Engine) Stop() {
	e.st.Status = StatusIdle
	e.st.CurrentPhase = workflow.PhaseWork
	e.st.Remaining = 0
	e.st.Label = ""
	e.touch()
}

// Skip forces the current phase to its end and advances exactly one
// phase. The timer is running afterwards, even if it was paused.
func (e *Engine) Skip() error {
	if e.st.Status != StatusRunning && e.st.Status != StatusPaused {
		return fmt.Errorf("%w: cannot skip while %s", ErrInvalidTransition, e.st.Status)
	}
	e.st.Remaining = 0
	e.advancePhase()
	if e.st.Status != StatusCompleted {
		e.st.Status = StatusRunning
	}
	e.touch()
	return nil
}

// Tick advances the countdown by the elapsed interval. Deltas larger
// than the remaining time cross phase boundaries, carrying the excess
// into the next phase. Returns true when at least one phase boundary
// was crossed.
func (e *Engine) Tick(elapsed time.Duration) bool {
	if e.st.Status != StatusRunning || elapsed <= 0 {
		return false
	}
	transitioned := e.advanceBy(elapsed)
	e.touch()
	return transitioned
}

// CatchUp applies the staleness correction after a restart: if the
// restored state was running and the daemon was away long enough for
// the phase to end, synthesize the phase advances that the missing
// ticks would have produced. Paused and idle states pass through
// unchanged regardless of elapsed time.
func (e *Engine) CatchUp(elapsed time.Duration) bool {
	if e.st.Status != StatusRunning || elapsed < e.st.Remaining {
		return false
	}
	transitioned := e.advanceBy(elapsed)
	e.touch()
	return transitioned
}

// advanceBy consumes elapsed time, advancing through as many phases as
// it covers. Remaining never drops below zero.
func (e *Engine) advanceBy(elapsed time.Duration) bool {
	elapsed = elapsed.Truncate(time.Second)
	transitioned := false
	for elapsed > 0 && e.st.Status == StatusRunning {
		if elapsed < e.st.Remaining {
			e.st.Remaining -= elapsed
			break
		}
		elapsed -= e.st.Remaining
		e.st.Remaining = 0
		e.advancePhase()
		transitioned = true
	}
	return transitioned
}

// advancePhase moves to the next phase of the cycle and resets the
// countdown to its nominal duration. A work phase reaching its end
// counts as a completed session and selects the short or long break by
// the workflow's cadence. A finished long break either restarts the
// cycle or, for non-repeating workflows, completes the timer.
func (e *Engine) advancePhase() {
	switch e.st.CurrentPhase {
	case workflow.PhaseWork:
		e.st.CompletedWorkSessions++
		e.st.CurrentPhase = e.wf.NextBreak(e.st.CompletedWorkSessions)
	case workflow.PhaseLongBreak:
		if !e.wf.Repeat {
			e.st.Status = StatusCompleted
			e.st.Remaining = 0
			return
		}
		e.st.CurrentPhase = workflow.PhaseWork
	default:
		e.st.CurrentPhase = workflow.PhaseWork
	}
	e.st.Remaining = e.wf.PhaseDuration(e.st.CurrentPhase)
}

// Restore replaces the engine state with a snapshot loaded from disk.
// Invalid fields are coerced to safe values rather than rejected.
func (e *Engine) Restore(st State) {
	if !st.Status.Valid() {
		st.Status = StatusIdle
	}
	if !st.CurrentPhase.Valid() {
		st.CurrentPhase = workflow.PhaseWork
	}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if st.WorkflowName == "" {
		st.WorkflowName = e.wf.Name
	}
	e.st = st
}

func (e *Engine) touch() {
	e.st.LastUpdated = e.now()
}
