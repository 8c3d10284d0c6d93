package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/display"
	"github.com/harrison/attune/internal/models"
)

// NewScoreCommand creates the score command
func NewScoreCommand(opts *rootOptions) *cobra.Command {
	var (
		responsesPath string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a response file without storing it",
		Long: `Score a complete set of responses against the configured questionnaire.

The responses file is a JSON object mapping question ids to integer ratings,
for example {"1": 4, "2": 2, ...}. Use "-" to read it from stdin. Nothing is
persisted; use "attune session submit" to record a scored session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			responses, err := readResponses(cmd, responsesPath)
			if err != nil {
				return err
			}

			result, err := a.engine().Evaluate(responses)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, result)
			}
			display.PrintOutcome(a.out, &models.Outcome{
				SubscaleScores: result.SubscaleScores,
				Classification: result.Classification,
				Flags:          result.Flags,
				Notes:          result.Notes,
			}, a.colorize)
			return nil
		},
	}

	cmd.Flags().StringVarP(&responsesPath, "responses", "r", "", "JSON file of question id to rating (\"-\" for stdin)")
	cmd.MarkFlagRequired("responses")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}
