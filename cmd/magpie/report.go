package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/chazu/magpie/compiler"
	"github.com/chazu/magpie/manifest"
)

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// useColor decides whether output to w gets ANSI colors.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case manifest.ColorAlways:
		return true
	case manifest.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reporter prints diagnostics, stopping after max of them (0 = no limit).
type reporter struct {
	w     io.Writer
	color bool
	max   int

	total   int
	printed int
}

func newReporter(w io.Writer, color bool, limit int) *reporter {
	return &reporter{w: w, color: color, max: limit}
}

// Report prints diags and counts them.
func (r *reporter) Report(diags []compiler.Diagnostic) {
	for _, d := range diags {
		r.total++
		if r.max > 0 && r.printed >= r.max {
			continue
		}
		fmt.Fprintln(r.w, r.format(d))
		r.printed++
	}
}

func (r *reporter) format(d compiler.Diagnostic) string {
	line := d.String()
	if !r.color {
		return line
	}
	return strings.Replace(line, "] Error:", "] "+ansiRed+"Error"+ansiReset+":", 1)
}

// Summary notes how many diagnostics were suppressed by the limit.
func (r *reporter) Summary() {
	if hidden := r.total - r.printed; hidden > 0 {
		fmt.Fprintf(r.w, "... and %d more errors\n", hidden)
	}
}
