package server

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a closed enumeration of control requests. Unknown input maps
// to a parse error before it reaches the timer.
type Kind int

const (
	KindStart Kind = iota
	KindStop
	KindPause
	KindResume
	KindSkip
	KindStatus
	KindInfo
)

// String returns the wire name of the request kind.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	case KindPause:
		return "pause"
	case KindResume:
		return "resume"
	case KindSkip:
		return "skip"
	case KindStatus:
		return "status"
	case KindInfo:
		return "info"
	}
	return "unknown"
}

// Mutating reports whether the request changes timer state.
func (k Kind) Mutating() bool {
	return k != KindStatus && k != KindInfo
}

// Request is one parsed control line.
type Request struct {
	Kind Kind
	// Label is the optional activity label of a start request.
	Label string
}

// ErrParse is returned for unrecognized or malformed request lines.
var ErrParse = errors.New("unrecognized command")

// ParseRequest parses one line of the control protocol. The only
// command taking an argument is start, whose remainder becomes the
// activity label.
func ParseRequest(line string) (Request, error) {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var kind Kind
	switch verb {
	case "start":
		return Request{Kind: KindStart, Label: rest}, nil
	case "stop":
		kind = KindStop
	case "pause":
		kind = KindPause
	case "resume":
		kind = KindResume
	case "skip":
		kind = KindSkip
	case "status":
		kind = KindStatus
	case "info":
		kind = KindInfo
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrParse, verb)
	}
	if rest != "" {
		return Request{}, fmt.Errorf("%w: %s takes no arguments", ErrParse, verb)
	}
	return Request{Kind: kind}, nil
}

// ErrorReply is the structured error returned to a client. Kind is one
// of invalid_transition, parse_error, internal.
type ErrorReply struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// InfoReply is the full state dump returned for the info request.
type InfoReply struct {
	Status                string `json:"status"`
	CurrentPhase          string `json:"current_phase"`
	RemainingSeconds      int    `json:"remaining_seconds"`
	CompletedWorkSessions int    `json:"completed_work_sessions"`
	LastUpdatedAt         string `json:"last_updated_at"`
	Label                 string `json:"label,omitempty"`
	Workflow              string `json:"workflow"`
	InstanceID            string `json:"instance_id"`
	UptimeSeconds         int    `json:"uptime_seconds"`
}
