// Package workflow defines the phase ordering and durations of a
// Pomodoro cycle, plus a small library of named workflows persisted
// in the user's config directory.
package workflow

import (
	"errors"
	"fmt"
	"time"
)

// Phase is one stage of the work/break cycle.
type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseWork, PhaseShortBreak, PhaseLongBreak:
		return true
	}
	return false
}

// Label returns a human-readable name for the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseWork:
		return "work"
	case PhaseShortBreak:
		return "short break"
	case PhaseLongBreak:
		return "long break"
	}
	return string(p)
}

// Workflow describes the cadence of a Pomodoro cycle. It is loaded once
// at daemon startup and never mutated afterwards.
type Workflow struct {
	Name              string
	WorkDuration      time.Duration
	BreakDuration     time.Duration
	LongBreakDuration time.Duration
	// LongBreakInterval is the number of completed work sessions after
	// which the next break is a long one.
	LongBreakInterval int
	// Repeat controls whether the cycle restarts after a long break.
	// When false the timer completes instead.
	Repeat bool
}

// Default returns the classic 25/5/15 Pomodoro workflow with a long
// break every fourth session.
func Default() Workflow {
	return Workflow{
		Name:              "default",
		WorkDuration:      25 * time.Minute,
		BreakDuration:     5 * time.Minute,
		LongBreakDuration: 15 * time.Minute,
		LongBreakInterval: 4,
		Repeat:            true,
	}
}

// PhaseDuration returns the nominal duration of p under this workflow.
func (w Workflow) PhaseDuration(p Phase) time.Duration {
	switch p {
	case PhaseWork:
		return w.WorkDuration
	case PhaseShortBreak:
		return w.BreakDuration
	case PhaseLongBreak:
		return w.LongBreakDuration
	}
	return 0
}

// NextBreak returns the break phase that follows a work session, given
// the total number of completed work sessions so far.
func (w Workflow) NextBreak(completedSessions int) Phase {
	if w.LongBreakInterval > 0 && completedSessions%w.LongBreakInterval == 0 {
		return PhaseLongBreak
	}
	return PhaseShortBreak
}

// ErrInvalidWorkflow is returned by Validate for unusable definitions.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// Validate checks that all durations are positive and the long-break
// interval is at least one.
func (w Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidWorkflow)
	}
	if w.WorkDuration <= 0 || w.BreakDuration <= 0 || w.LongBreakDuration <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidWorkflow)
	}
	if w.LongBreakInterval < 1 {
		return fmt.Errorf("%w: long break interval must be at least 1", ErrInvalidWorkflow)
	}
	return nil
}
