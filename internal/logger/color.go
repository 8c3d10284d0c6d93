package logger

import (
	"github.com/fatih/color"

	"github.com/harrison/attune/internal/display"
	"github.com/harrison/attune/internal/models"
)

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

func styleColor(style models.AttachmentStyle) *color.Color {
	return display.StyleColor(style)
}
