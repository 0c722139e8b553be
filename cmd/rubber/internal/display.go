package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/goplus/rubber/internal/build"
)

var (
	successColorFG = pterm.FgLightGreen
	errorColorFG   = pterm.FgLightRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	infoColorFG    = pterm.FgLightCyan
)

// console renders a build stream.
type console struct {
	w io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) print(s string) {
	io.WriteString(c.w, s)
}

func (c *console) fatal(err error) {
	c.print(errorStyleBG.Sprint("Error") + " " + errorColorFG.Sprint(err.Error()) + "\n")
}

func (c *console) info(msg string) {
	c.print(infoColorFG.Sprint(msg) + "\n")
}

func isErrorLine(line string) bool {
	return strings.HasPrefix(strings.ToLower(line), "error")
}

// handlers returns the stream callbacks printing to c.
func (c *console) handlers() build.Handlers {
	return build.Handlers{
		build.CompileStatus: func(e build.Event) {
			if isErrorLine(e.Line) {
				c.print(errorColorFG.Sprint(e.Line))
				return
			}
			c.print(e.Line)
		},
		build.CompileFinished: func(e build.Event) {
			if len(e.Diagnostics) == 0 {
				return
			}
			c.print(errorColorFG.Sprint("Compile Errors:") + "\n")
			for _, d := range e.Diagnostics {
				c.print("  " + errorColorFG.Sprint(strings.TrimRight(d, "\r\n")) + "\n")
			}
		},
		build.RunStarted: func(build.Event) {
			c.print("\n\n")
		},
		build.RunStatus: func(e build.Event) {
			c.print(e.Line)
		},
	}
}

// finish prints the outcome of a build and reports whether it succeeded.
// Diagnostics were listed on CompileFinished.
func (c *console) finish(r build.Result) bool {
	if r.OK() {
		c.print(successColorFG.Sprint("Compile Finished") + "\n")
		return true
	}
	if r.Err != nil {
		c.fatal(r.Err)
	}
	return false
}

func (c *console) printf(format string, a ...any) {
	c.print(fmt.Sprintf(format, a...))
}
