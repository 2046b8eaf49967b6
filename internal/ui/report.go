package ui

import (
	"fmt"
	"io"
	"strings"
)

// Report renders the outcome of a run for humans.
type Report struct {
	w io.Writer
}

// NewReport creates a report writing to w.
func NewReport(w io.Writer) *Report {
	return &Report{w: w}
}

// Result renders the final outcome line.
//
//	◉ SSH public key injected!  /home/deploy/.ssh/authorized_keys
//	● SSH public key already injected!  /root/.ssh/authorized_keys
func (r *Report) Result(changed bool, message, path string) {
	symbol, style := SymbolComplete, InfoStyle()
	if changed {
		symbol, style = SymbolSuccess, SuccessStyle()
	}
	if path == "" {
		fmt.Fprintf(r.w, "%s %s\n", style.Render(symbol), message)
		return
	}
	fmt.Fprintf(r.w, "%s %s  %s\n", style.Render(symbol), message, MutedStyle().Render(path))
}

// SubStatus renders an indented detail line under the last step.
//
//	◇ created /home/deploy/.ssh
func (r *Report) SubStatus(symbol, text string) {
	fmt.Fprintf(r.w, "  %s %s\n", MutedStyle().Render(symbol), MutedStyle().Render(text))
}

// Error renders err with its first line in red and the rest muted.
func (r *Report) Error(err error) {
	lines := strings.Split(strings.TrimRight(err.Error(), "\n"), "\n")
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(r.w, ErrorStyle().Render(lines[0]))
	for _, line := range lines[1:] {
		fmt.Fprintln(r.w, MutedStyle().Render(line))
	}
}

// Warning renders a warning line.
func (r *Report) Warning(message string) {
	FprintWarning(r.w, message)
}
