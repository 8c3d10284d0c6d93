package display

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
)

// ProgressIndicator prints one line per item of a multi-item operation.
type ProgressIndicator struct {
	writer   io.Writer
	label    string
	total    int
	current  int
	failed   int
	colorize bool
}

// NewProgressIndicator creates a progress indicator for total items.
func NewProgressIndicator(w io.Writer, label string, total int, colorize bool) *ProgressIndicator {
	return &ProgressIndicator{writer: w, label: label, total: total, colorize: colorize}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "%s:\n", p.label)
}

// Step reports one item: "  [N/Total] name ok" or "  [N/Total] name FAILED: err".
func (p *ProgressIndicator) Step(name string, err error) {
	p.current++
	line := fmt.Sprintf("  [%d/%d] %s", p.current, p.total, filepath.Base(name))
	if err != nil {
		p.failed++
		fmt.Fprintf(p.writer, "%s %s\n", line, paint(p.colorize, color.FgRed).Sprintf("FAILED: %v", err))
		return
	}
	fmt.Fprintf(p.writer, "%s %s\n", line, paint(p.colorize, color.FgGreen).Sprint("ok"))
}

// Failed returns how many steps reported an error.
func (p *ProgressIndicator) Failed() int {
	return p.failed
}

// Complete prints the summary line.
func (p *ProgressIndicator) Complete() {
	if p.failed == 0 {
		fmt.Fprintf(p.writer, "%s all %d valid\n", paint(p.colorize, color.FgGreen).Sprint("✓"), p.total)
		return
	}
	fmt.Fprintf(p.writer, "%s %d of %d invalid\n", paint(p.colorize, color.FgRed).Sprint("✗"), p.failed, p.total)
}
