package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/display"
	"github.com/harrison/attune/internal/questionnaire"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [definition-file-or-builtin]...",
		Short: "Validate questionnaire definitions",
		Long: `Load and validate questionnaire definitions, checking for:
  - A non-empty rating scale with labels
  - Unique question ids and known subscale names
  - Subscale ranges that cover defined questions without overlapping
  - An attention check pointing at a defined question and a valid answer
  - A positive classification boundary and page size

Each argument is a path to a YAML definition or the name of a builtin
(` + "`attune validate reference compact`" + `). With no arguments every builtin is checked.

Exit code: 0 if valid, 1 if errors found`,
		RunE: func(cmd *cobra.Command, args []string) error {
			colorize := !opts.noColor && display.ShouldColor(cmd.OutOrStdout())
			return validateDefinitions(args, cmd.OutOrStdout(), colorize)
		},
		SilenceUsage: true,
	}

	return cmd
}

// validateDefinitions validates each source and writes a progress line per
// definition followed by any advisory warnings.
func validateDefinitions(sources []string, output io.Writer, colorize bool) error {
	if len(sources) == 0 {
		sources = questionnaire.BuiltinNames()
	}

	progress := display.NewProgressIndicator(output, "Validating questionnaires", len(sources), colorize)
	progress.Start()

	var warnings []display.Warning
	for _, source := range sources {
		q, err := questionnaire.Resolve(source)
		progress.Step(source, err)
		if err != nil {
			continue
		}
		if v := q.Thresholds().DefensiveResponding; v != nil {
			warnings = append(warnings, display.UnusedDefensiveThreshold(source, *v))
		}
	}
	progress.Complete()

	for _, w := range warnings {
		w.Display(output, colorize)
	}

	if failed := progress.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d questionnaire definitions invalid", failed, len(sources))
	}
	return nil
}
