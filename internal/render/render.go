// Package render projects the timer state into the JSON payload
// consumed by the status bar. Rendering is pure: no locks, no IO.
package render

import (
	"fmt"
	"time"

	"github.com/fakeyudi/tomatod/internal/timer"
	"github.com/fakeyudi/tomatod/internal/workflow"
)

// Payload is the status-bar output object. Class is one of idle,
// running, paused, completed, error and is stable for CSS styling.
type Payload struct {
	Text       string `json:"text"`
	Tooltip    string `json:"tooltip"`
	Class      string `json:"class"`
	Percentage *int   `json:"percentage,omitempty"`
	Alt        string `json:"alt,omitempty"`
}

const tomato = "🍅"

// Render produces the display payload for a timer state.
func Render(st timer.State, wf workflow.Workflow) Payload {
	switch st.Status {
	case timer.StatusRunning:
		return renderActive(st, wf, false)
	case timer.StatusPaused:
		return renderActive(st, wf, true)
	case timer.StatusCompleted:
		return Payload{
			Text:    tomato + " done",
			Tooltip: "Pomodoro cycle completed",
			Class:   "completed",
		}
	default:
		return Payload{
			Text:    tomato + " idle",
			Tooltip: "Timer is idle",
			Class:   "idle",
		}
	}
}

func renderActive(st timer.State, wf workflow.Workflow, paused bool) Payload {
	phase := st.CurrentPhase.Label()
	clock := FormatRemaining(st.Remaining)

	label := st.Label
	if label == "" {
		label = phase
	}

	text := fmt.Sprintf("%s %s %s", tomato, clock, label)
	tooltip := fmt.Sprintf("%s: %s remaining", phase, clock)
	class := "running"
	if paused {
		text += " (paused)"
		tooltip += " (paused)"
		class = "paused"
	}
	if st.CompletedWorkSessions > 0 {
		tooltip += fmt.Sprintf("\ncompleted sessions: %d", st.CompletedWorkSessions)
	}

	p := Payload{
		Text:    text,
		Tooltip: tooltip,
		Class:   class,
		Alt:     string(st.CurrentPhase),
	}
	if total := wf.PhaseDuration(st.CurrentPhase); total > 0 {
		pct := int(100 - (st.Remaining*100)/total)
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		p.Percentage = &pct
	}
	return p
}

// Error produces the payload shown when the daemon cannot be reached
// or replied with a failure.
func Error(message string) Payload {
	return Payload{
		Text:    tomato + " error",
		Tooltip: message,
		Class:   "error",
	}
}

// FormatRemaining renders a countdown as mm:ss, spilling into hours as
// h:mm:ss when needed.
func FormatRemaining(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
