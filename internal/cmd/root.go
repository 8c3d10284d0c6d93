package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	home          string
	questionnaire string
	dbDriver      string
	dbURL         string
	logLevel      string
	noColor       bool
}

// NewRootCommand creates and returns the root cobra command for attune
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "attune",
		Short: "Attachment-style questionnaire scoring service",
		Long: `Attune scores attachment-style questionnaires. It turns Likert responses
into anxiety, avoidance, disorganization and secure subscale scores, checks
response reliability, and classifies the respondent as secure, anxious,
avoidant or fearful.

Sessions are persisted in SQLite or PostgreSQL and served over an HTTP API
(attune serve), or managed directly from the command line.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.home, "home", "", "attune home directory (default $ATTUNE_HOME or ./.attune)")
	flags.StringVarP(&opts.questionnaire, "questionnaire", "q", "", "builtin questionnaire name or path to a YAML definition")
	flags.StringVar(&opts.dbDriver, "db-driver", "", "session database driver (sqlite, postgres)")
	flags.StringVar(&opts.dbURL, "db-url", "", "session database path or postgres:// URL")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewQuestionsCommand(opts))
	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}
