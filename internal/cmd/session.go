package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/display"
	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/session"
)

// NewSessionCommand creates the session command group
func NewSessionCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create, submit and inspect stored sessions",
		Long: `Manage assessment sessions in the configured store.

Subcommands:
  create  Start a new session and print its id
  submit  Score a response file for an open session
  show    Display a session and its result if completed`,
	}

	cmd.AddCommand(newSessionCreateCommand(opts))
	cmd.AddCommand(newSessionSubmitCommand(opts))
	cmd.AddCommand(newSessionShowCommand(opts))

	return cmd
}

func newSessionCreateCommand(opts *rootOptions) *cobra.Command {
	var (
		meta   session.Metadata
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			svc, closeStore, err := a.openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			sess, err := svc.CreateSession(cmd.Context(), meta)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, sess)
			}
			fmt.Fprintln(a.out, sess.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&meta.UserAgent, "user-agent", "", "user agent to record with the session")
	cmd.Flags().StringVar(&meta.IPAddress, "ip", "", "client IP address to record with the session")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func newSessionSubmitCommand(opts *rootOptions) *cobra.Command {
	var (
		responsesPath string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "submit <session-id>",
		Short: "Score responses for an open session",
		Long: `Score a complete response file for an open session and store the result.

A session accepts exactly one submission. Incomplete or out-of-range
responses are rejected and leave the session open.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			responses, err := readResponses(cmd, responsesPath)
			if err != nil {
				return err
			}
			svc, closeStore, err := a.openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			outcome, err := svc.Submit(cmd.Context(), args[0], responses, session.Metadata{})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, outcome)
			}
			display.PrintOutcome(a.out, outcome, a.colorize)
			return nil
		},
	}

	cmd.Flags().StringVarP(&responsesPath, "responses", "r", "", "JSON file of question id to rating (\"-\" for stdin)")
	cmd.MarkFlagRequired("responses")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func newSessionShowCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Display a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			svc, closeStore, err := a.openService(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			sess, err := svc.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, sess)
			}
			printSession(a.out, sess, a.colorize)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func printSession(w io.Writer, sess *models.Session, colorize bool) {
	if !sess.IsComplete() {
		fmt.Fprintf(w, "Session: %s\n", sess.ID)
		fmt.Fprintf(w, "Started: %s\n", sess.StartedAt.Format(time.RFC3339))
		fmt.Fprintln(w, "Status: open")
		return
	}
	fmt.Fprintf(w, "Started: %s\n", sess.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Completed: %s\n", sess.CompletedAt.Format(time.RFC3339))
	display.PrintOutcome(w, sess.Outcome(), colorize)
}
