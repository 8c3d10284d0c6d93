package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Related settings or files (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning, in yellow when colorize is set.
func (w Warning) Display(out io.Writer, colorize bool) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for i, item := range w.Items {
		fmt.Fprintf(&b, "      %d. %s\n", i+1, item)
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion: ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	fmt.Fprint(out, paint(colorize, color.FgYellow).Sprint(b.String()))
}

// UnusedDefensiveThreshold warns that thresholds.defensive_responding is set
// in a definition even though the defensive-responding check uses its own
// fixed cutoff.
func UnusedDefensiveThreshold(source string, value float64) Warning {
	return Warning{
		Title:   "Unused setting thresholds.defensive_responding",
		Message: fmt.Sprintf("%s sets it to %g, but defensive responding is flagged when 80%% of reverse-coded items are rated 4 or higher.", source, value),
		Items:   []string{"thresholds.defensive_responding"},
		Suggestion: "Remove the setting or keep it for documentation only; it does not change scoring.",
	}
}
