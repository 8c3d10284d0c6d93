package display

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/attune/internal/models"
)

// ShouldColor reports whether w is a terminal that should receive ANSI colors.
// NO_COLOR (through fatih/color) always wins.
func ShouldColor(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// paint returns c with color forced on or off.
func paint(colorize bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// StyleColor is the palette for attachment styles: green for secure, yellow for
// the single-axis styles, red for fearful.
func StyleColor(style models.AttachmentStyle) *color.Color {
	switch style {
	case models.StyleSecure:
		return color.New(color.FgGreen, color.Bold)
	case models.StyleAnxious, models.StyleAvoidant:
		return color.New(color.FgYellow, color.Bold)
	case models.StyleFearful:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.Bold)
	}
}
