package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/harrison/attune/internal/models"
)

// PrintOutcome writes a human-readable summary of a scored session.
func PrintOutcome(w io.Writer, outcome *models.Outcome, colorize bool) {
	style := StyleColor(outcome.Classification.PrimaryStyle)
	if colorize {
		style.EnableColor()
	} else {
		style.DisableColor()
	}
	label := paint(colorize, color.FgCyan)

	if outcome.SessionID != "" {
		fmt.Fprintf(w, "%s %s\n", label.Sprint("Session:"), outcome.SessionID)
	}
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Primary style:"), style.Sprint(outcome.Classification.PrimaryStyle))
	fmt.Fprintln(w, label.Sprint("Subscale scores:"))
	fmt.Fprintf(w, "  anxiety          %.2f\n", outcome.SubscaleScores.Anxiety)
	fmt.Fprintf(w, "  avoidance        %.2f\n", outcome.SubscaleScores.Avoidance)
	fmt.Fprintf(w, "  disorganization  %.2f\n", outcome.SubscaleScores.Disorganization)
	fmt.Fprintf(w, "  secure           %.2f\n", outcome.SubscaleScores.Secure)
	fmt.Fprintf(w, "%s attention check %s, defensive responding %s, disorganization flag %s\n",
		label.Sprint("Flags:"),
		passFail(outcome.Flags.AttentionCheckPassed, "passed", "failed", colorize, false),
		passFail(outcome.Flags.DefensiveResponding, "yes", "no", colorize, true),
		passFail(outcome.Classification.DisorganizationFlag, "yes", "no", colorize, true),
	)
	if outcome.CompletionTime != nil {
		fmt.Fprintf(w, "%s %ds\n", label.Sprint("Completion time:"), *outcome.CompletionTime)
	}
	if len(outcome.Notes) > 0 {
		fmt.Fprintln(w, label.Sprint("Notes:"))
		warn := paint(colorize, color.FgYellow)
		for _, note := range outcome.Notes {
			fmt.Fprintf(w, "  - %s\n", warn.Sprint(note))
		}
	}
}

// passFail colors the true branch red when trueIsBad, green otherwise.
func passFail(v bool, yes, no string, colorize, trueIsBad bool) string {
	good := paint(colorize, color.FgGreen)
	bad := paint(colorize, color.FgRed)
	if v {
		if trueIsBad {
			return bad.Sprint(yes)
		}
		return good.Sprint(yes)
	}
	if trueIsBad {
		return good.Sprint(no)
	}
	return bad.Sprint(no)
}

// PrintStats writes the per-style breakdown as an aligned table.
func PrintStats(w io.Writer, stats *models.Stats, colorize bool) {
	if stats.Total == 0 {
		fmt.Fprintln(w, "No completed assessments yet.")
		return
	}
	fmt.Fprintf(w, "%-10s %6s %14s\n", "STYLE", "COUNT", "AVG TIME (s)")
	for _, s := range stats.Styles {
		avg := "-"
		if s.AvgCompletionTime != nil {
			avg = fmt.Sprintf("%.1f", *s.AvgCompletionTime)
		}
		c := StyleColor(s.Style)
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		// Pad before coloring so escape codes don't break alignment.
		fmt.Fprintf(w, "%s %6d %14s\n", c.Sprintf("%-10s", s.Style), s.Count, avg)
	}
	fmt.Fprintf(w, "%-10s %6d\n", "TOTAL", stats.Total)
}
