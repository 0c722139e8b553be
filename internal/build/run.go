package build

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/goplus/rubber/internal/ctxlog"
	"github.com/goplus/rubber/internal/platform"
)

type outputLine struct {
	text   string
	stderr bool
}

// Run starts the compiler and returns its event stream. The compiler is
// started by a goroutine, so no event is sent before the caller holds the
// stream.
//
// Canceling ctx stops the compiler and everything it launched. The stream
// still ends with an Error and AllFinished.
func (s *Session) Run(ctx context.Context) *Stream {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		s.run(ctx, func(e Event) { ch <- e })
	}()
	return &Stream{events: ch}
}

func (s *Session) run(ctx context.Context, emit func(Event)) {
	log := ctxlog.FromContext(ctx)
	m := &machine{launch: s.Kind == platform.Test, emit: emit}
	started := time.Now()

	cmd := exec.Command(s.Compiler, s.Args...)
	cmd.Dir = s.Dir
	setProcGroup(cmd)
	err := ctx.Err()
	var stdout io.ReadCloser
	if err == nil {
		stdout, err = cmd.StdoutPipe()
	}
	if err == nil {
		var stderr io.ReadCloser
		if stderr, err = cmd.StderrPipe(); err == nil {
			err = s.start(ctx, cmd, m, stdout, stderr)
		}
	}
	if err != nil {
		m.fail(fmt.Errorf("start compiler: %w", err))
		s.release(ctx, started, -1, nil)
		return
	}

	werr := cmd.Wait()
	code := cmd.ProcessState.ExitCode()
	var cause error
	if ctx.Err() != nil {
		cause = context.Cause(ctx)
	} else if werr != nil {
		var exitErr *exec.ExitError
		if !errors.As(werr, &exitErr) {
			cause = werr
		}
	}
	log.Debug("compiler exited", "code", code, "diagnostics", len(m.diags))
	m.exit(code, cause)
	s.release(ctx, started, code, m.diags)
}

// start launches cmd and feeds its output to m until both streams end.
func (s *Session) start(ctx context.Context, cmd *exec.Cmd, m *machine, stdout, stderr io.Reader) error {
	log := ctxlog.FromContext(ctx)
	if err := cmd.Start(); err != nil {
		return err
	}
	log.Debug("compiler started", "pid", cmd.Process.Pid, "compiler", s.Compiler, "args", s.Args)
	m.start()

	stop := context.AfterFunc(ctx, func() {
		if err := killProcGroup(cmd); err != nil {
			log.Warn("stop compiler", "pid", cmd.Process.Pid, "error", err)
		}
	})
	defer stop()

	lines := make(chan outputLine)
	var wg sync.WaitGroup
	wg.Add(2)
	go readLines(stdout, false, lines, &wg)
	go readLines(stderr, true, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()
	for l := range lines {
		if l.stderr {
			m.stderr(l.text)
		} else {
			m.stdout(l.text)
		}
	}
	return nil
}

// readLines sends every line of r, terminator included. A final line
// without terminator is sent as is.
func readLines(r io.Reader, stderr bool, out chan<- outputLine, wg *sync.WaitGroup) {
	defer wg.Done()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			out <- outputLine{text: line, stderr: stderr}
		}
		if err != nil {
			return
		}
	}
}

// release removes the session dir, or records the session when the cache
// is kept. Failures are logged only.
func (s *Session) release(ctx context.Context, started time.Time, code int, diags []string) {
	log := ctxlog.FromContext(ctx)
	if s.KeepCache {
		rec := &Record{
			ID:          s.ID,
			Project:     s.Project.File,
			Runtime:     s.Runtime,
			Compiler:    s.Compiler,
			Args:        s.Args,
			Started:     started,
			Finished:    time.Now(),
			ExitCode:    code,
			Diagnostics: slices.Clone(diags),
		}
		if err := saveRecord(s.Dir, rec); err != nil {
			log.Warn("save session record", "dir", s.Dir, "error", err)
		}
		return
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		log.Warn("remove session dir", "dir", s.Dir, "error", err)
	}
}
