// Package display formats terminal output for the attune CLI: configuration
// warnings, multi-file progress and scored outcomes.
//
// Every function takes an io.Writer and an explicit colorize flag; callers
// decide color once with ShouldColor.
package display
