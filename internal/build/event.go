package build

import (
	"errors"
	"fmt"
)

// Kind identifies an event of a build stream.
type Kind int

const (
	// CompileStarted fires once the compiler process is running.
	CompileStarted Kind = iota
	// CompileStatus carries one line of compiler output.
	CompileStatus
	// CompileFinished carries the diagnostics collected while compiling.
	CompileFinished
	// RunStarted fires when the compiler hands over to the built game.
	RunStarted
	// RunStatus carries one line of game output.
	RunStatus
	// RunFinished fires when the game exits.
	RunFinished
	// RawOutput carries every line of both output streams verbatim.
	RawOutput
	// Error carries a build failure.
	Error
	// AllFinished is always the last event. It carries the diagnostics.
	AllFinished
)

var kindNames = [...]string{
	CompileStarted:  "compile-started",
	CompileStatus:   "compile-status",
	CompileFinished: "compile-finished",
	RunStarted:      "run-started",
	RunStatus:       "run-status",
	RunFinished:     "run-finished",
	RawOutput:       "raw-output",
	Error:           "error",
	AllFinished:     "all-finished",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is one element of a build stream.
type Event struct {
	Kind Kind
	// Line is set for CompileStatus, RunStatus and RawOutput. It keeps its
	// line terminator.
	Line string
	// Diagnostics is set for CompileFinished and AllFinished.
	Diagnostics []string
	// Err is set for Error.
	Err error
}

// Handlers maps event kinds to callbacks.
type Handlers map[Kind]func(Event)

// Result summarizes a finished build stream.
type Result struct {
	Diagnostics []string
	Err         error
}

// OK reports whether the build succeeded: no error fired and no
// diagnostics were collected.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Diagnostics) == 0
}

// Stream delivers the events of one build session in order. The channel is
// unbuffered; it must be drained for the session to finish.
type Stream struct {
	events <-chan Event
}

// Events returns the event channel. It is closed after AllFinished.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Dispatch calls the handler registered for each event's kind until the
// stream ends and returns the outcome.
func (s *Stream) Dispatch(h Handlers) Result {
	var r Result
	for e := range s.events {
		switch e.Kind {
		case Error:
			r.Err = errors.Join(r.Err, e.Err)
		case AllFinished:
			r.Diagnostics = e.Diagnostics
		}
		if f := h[e.Kind]; f != nil {
			f(e)
		}
	}
	return r
}
