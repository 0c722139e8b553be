package build

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// LaunchMarker appears in the compiler's output when it starts the built
// game.
const LaunchMarker = "Runner.exe  -game"

// ErrCompilerFailed reports a non-zero compiler exit or collected
// diagnostics. The diagnostics carry the detail.
var ErrCompilerFailed = errors.New("compiler failed, check the compile log")

type state int

const (
	compiling state = iota
	running
	closed
)

// machine classifies compiler output. It is driven from a single goroutine.
type machine struct {
	// launch is set for builds that run the game after compiling.
	launch bool
	state  state
	diags  []string
	emit   func(Event)
}

func (m *machine) start() {
	m.emit(Event{Kind: CompileStarted})
}

func (m *machine) stdout(line string) {
	if m.launch && m.state == compiling && strings.Contains(line, LaunchMarker) {
		m.state = running
		m.emit(Event{Kind: CompileFinished, Diagnostics: slices.Clone(m.diags)})
		m.emit(Event{Kind: RunStarted})
		m.emit(Event{Kind: RawOutput, Line: line})
		return
	}
	m.classify(line)
}

func (m *machine) stderr(line string) {
	m.classify(line)
}

func (m *machine) classify(line string) {
	switch m.state {
	case compiling:
		if isDiagnostic(line) {
			m.diags = append(m.diags, line)
		}
		m.emit(Event{Kind: CompileStatus, Line: line})
	case running:
		m.emit(Event{Kind: RunStatus, Line: line})
	case closed:
		return
	}
	m.emit(Event{Kind: RawOutput, Line: line})
}

func isDiagnostic(line string) bool {
	return len(line) >= 5 && strings.EqualFold(line[:5], "error")
}

// exit finishes the stream after the compiler exited with code. cause, if
// not nil, is why the process was stopped.
func (m *machine) exit(code int, cause error) {
	if m.state == closed {
		return
	}
	if m.state == running {
		m.emit(Event{Kind: RunFinished})
	} else {
		m.emit(Event{Kind: CompileFinished, Diagnostics: slices.Clone(m.diags)})
	}
	m.state = closed
	if code != 0 || len(m.diags) > 0 || cause != nil {
		err := fmt.Errorf("%w (exit status %d, %d diagnostics)", ErrCompilerFailed, code, len(m.diags))
		m.emit(Event{Kind: Error, Err: errors.Join(err, cause)})
	}
	m.emit(Event{Kind: AllFinished, Diagnostics: slices.Clone(m.diags)})
}

// fail finishes the stream of a compiler that could not be started.
func (m *machine) fail(err error) {
	if m.state == closed {
		return
	}
	m.state = closed
	m.emit(Event{Kind: Error, Err: err})
	m.emit(Event{Kind: AllFinished, Diagnostics: slices.Clone(m.diags)})
}
