package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/display"
)

// NewStatsCommand creates the stats command
func NewStatsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-style counts for completed sessions",
		Long: `Show how many completed sessions fall into each attachment style and
their mean completion time in seconds. Open sessions are not counted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, opts *rootOptions, asJSON bool) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	svc, closeStore, err := a.openService(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer closeStore()

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(a.out, stats)
	}
	display.PrintStats(a.out, stats, a.colorize)
	return nil
}
