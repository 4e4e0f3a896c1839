package timer_test

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/tomatod/internal/timer"
	"github.com/fakeyudi/tomatod/internal/workflow"
)

// generateWorkflow produces an arbitrary valid workflow with durations
// at second granularity.
func generateWorkflow(t *rapid.T) workflow.Workflow {
	return workflow.Workflow{
		Name:              "prop",
		WorkDuration:      time.Duration(rapid.IntRange(1, 3600).Draw(t, "work")) * time.Second,
		BreakDuration:     time.Duration(rapid.IntRange(1, 1200).Draw(t, "break")) * time.Second,
		LongBreakDuration: time.Duration(rapid.IntRange(1, 2400).Draw(t, "long_break")) * time.Second,
		LongBreakInterval: rapid.IntRange(1, 8).Draw(t, "interval"),
		Repeat:            rapid.Bool().Draw(t, "repeat"),
	}
}

// Property: for every sequence of commands and ticks, remaining time
// is never negative, the counter never decreases except across a
// start, and the status stays within the closed enumeration.
func TestEngineInvariantsUnderArbitraryCommands(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		wf := generateWorkflow(t)
		e := timer.New(wf)

		n := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < n; i++ {
			prev := e.State()
			op := rapid.IntRange(0, 6).Draw(t, "op")
			switch op {
			case 0:
				e.Start("")
			case 1:
				e.Pause()
			case 2:
				e.Resume()
			case 3:
				e.Stop()
			case 4:
				e.Skip()
			case 5:
				e.Tick(time.Duration(rapid.IntRange(1, 5000).Draw(t, "elapsed")) * time.Second)
			case 6:
				e.CatchUp(time.Duration(rapid.IntRange(0, 100000).Draw(t, "away")) * time.Second)
			}
			st := e.State()

			if st.Remaining < 0 {
				t.Fatalf("remaining went negative: %s (op %d)", st.Remaining, op)
			}
			if !st.Status.Valid() {
				t.Fatalf("status left the enumeration: %q", st.Status)
			}
			if !st.CurrentPhase.Valid() {
				t.Fatalf("phase left the enumeration: %q", st.CurrentPhase)
			}
			if op != 0 && st.CompletedWorkSessions < prev.CompletedWorkSessions {
				t.Fatalf("session counter decreased outside start: %d -> %d",
					prev.CompletedWorkSessions, st.CompletedWorkSessions)
			}
			if st.Status == timer.StatusRunning && st.Remaining == 0 {
				t.Fatalf("running with zero remaining after op %d", op)
			}
		}
	})
}

// Property: pausing freezes the countdown no matter how much time the
// tick source claims has elapsed.
func TestPauseFreezesCountdown(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		wf := generateWorkflow(t)
		e := timer.New(wf)
		if err := e.Start(""); err != nil {
			t.Fatalf("Start: %v", err)
		}
		e.Tick(time.Duration(rapid.IntRange(0, 1000).Draw(t, "progress")) * time.Second)
		if e.State().Status != timer.StatusRunning {
			t.Skip("cycle already completed")
		}
		if err := e.Pause(); err != nil {
			t.Fatalf("Pause: %v", err)
		}
		frozen := e.State().Remaining

		ticks := rapid.IntRange(1, 20).Draw(t, "ticks")
		for i := 0; i < ticks; i++ {
			e.Tick(time.Duration(rapid.IntRange(1, 10000).Draw(t, "elapsed")) * time.Second)
		}
		if got := e.State().Remaining; got != frozen {
			t.Fatalf("remaining drifted while paused: %s -> %s", frozen, got)
		}

		if err := e.Resume(); err != nil {
			t.Fatalf("Resume: %v", err)
		}
		if got := e.State().Remaining; got != frozen {
			t.Fatalf("resume changed remaining: %s -> %s", frozen, got)
		}
	})
}

// Property: skip advances exactly one phase regardless of remaining
// time.
func TestSkipAdvancesOnePhaseProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		wf := generateWorkflow(t)
		e := timer.New(wf)
		if err := e.Start(""); err != nil {
			t.Fatalf("Start: %v", err)
		}
		e.Tick(time.Duration(rapid.IntRange(0, 2000).Draw(t, "progress")) * time.Second)
		if e.State().Status != timer.StatusRunning {
			t.Skip("cycle already completed")
		}

		before := e.State()
		if err := e.Skip(); err != nil {
			t.Fatalf("Skip: %v", err)
		}
		after := e.State()

		if before.CurrentPhase == workflow.PhaseWork {
			if after.CompletedWorkSessions != before.CompletedWorkSessions+1 {
				t.Fatalf("skip out of work: sessions %d -> %d",
					before.CompletedWorkSessions, after.CompletedWorkSessions)
			}
			want := wf.NextBreak(after.CompletedWorkSessions)
			if after.CurrentPhase != want {
				t.Fatalf("skip out of work landed on %s, want %s", after.CurrentPhase, want)
			}
		} else if after.Status != timer.StatusCompleted {
			if after.CurrentPhase != workflow.PhaseWork {
				t.Fatalf("skip out of %s landed on %s, want work", before.CurrentPhase, after.CurrentPhase)
			}
			if after.Remaining != wf.WorkDuration {
				t.Fatalf("new phase remaining = %s, want %s", after.Remaining, wf.WorkDuration)
			}
		}
	})
}
