package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/attune/internal/models"
)

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines to a writer.
// Level tags are colored when the writer is os.Stdout or os.Stderr and
// fatih/color has not disabled color (NO_COLOR, non-TTY).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded. An empty or unknown
// logLevel means "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		now:         time.Now,
	}
}

// Level returns the normalized minimum level.
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		return !color.NoColor
	}
	return false
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// LogOutcome logs a scored session at INFO level.
// Format: "[HH:MM:SS] Session <id> scored: <style> (anxiety 2.33, avoidance 1.83)"
// followed by one WARN line per note.
func (cl *ConsoleLogger) LogOutcome(outcome models.Outcome) {
	if cl.writer == nil || !enabled(cl.logLevel, "info") {
		return
	}

	style := string(outcome.Classification.PrimaryStyle)
	if cl.colorOutput {
		style = styleColor(outcome.Classification.PrimaryStyle).Sprint(style)
	}

	cl.mutex.Lock()
	line := fmt.Sprintf("[%s] Session %s scored: %s (anxiety %.2f, avoidance %.2f)\n",
		cl.timestamp(), outcome.SessionID, style,
		outcome.SubscaleScores.Anxiety, outcome.SubscaleScores.Avoidance)
	cl.writer.Write([]byte(line))
	cl.mutex.Unlock()

	for _, note := range outcome.Notes {
		cl.LogWarn(fmt.Sprintf("Session %s: %s", outcome.SessionID, note))
	}
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !enabled(cl.logLevel, strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	tag := level
	if cl.colorOutput {
		tag = levelColor(level).Sprint(level)
	}
	cl.writer.Write([]byte(fmt.Sprintf("[%s] [%s] %s\n", cl.timestamp(), tag, message)))
}

func (cl *ConsoleLogger) timestamp() string {
	return cl.now().Format("15:04:05")
}
