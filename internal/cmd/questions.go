package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/questionnaire"
)

// NewQuestionsCommand creates the questions command
func NewQuestionsCommand(opts *rootOptions) *cobra.Command {
	var (
		page   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List the questionnaire items",
		Long: `List the items of the configured questionnaire with the rating scale.

With --page only that page is shown, using the definition's page size.
Page 0 (the default) lists every question.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 0 {
				return fmt.Errorf("--page must be >= 0, got %d", page)
			}
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			return printQuestions(a.out, a.q, page, asJSON)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "page number to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func printQuestions(w io.Writer, q *questionnaire.Questionnaire, page int, asJSON bool) error {
	questions := q.Questions()
	var pagination *questionnaire.Pagination
	if page > 0 {
		var p questionnaire.Pagination
		questions, p = q.Page(page)
		pagination = &p
	}

	if asJSON {
		return writeJSON(w, struct {
			Questionnaire   string                         `json:"questionnaire"`
			Questions       []questionnaire.Question       `json:"questions"`
			ResponseOptions []questionnaire.ResponseOption `json:"responseOptions"`
			Pagination      *questionnaire.Pagination      `json:"pagination,omitempty"`
		}{q.Name(), questions, q.ResponseOptions(), pagination})
	}

	fmt.Fprintf(w, "Questionnaire: %s (%d questions)\n", q.Name(), q.Len())
	if pagination != nil {
		fmt.Fprintf(w, "Page %d of %d\n", pagination.CurrentPage, pagination.TotalPages)
	}

	labels := make([]string, 0, len(q.ResponseOptions()))
	for _, opt := range q.ResponseOptions() {
		labels = append(labels, fmt.Sprintf("%d=%s", opt.Value, opt.Label))
	}
	fmt.Fprintf(w, "Scale: %s\n\n", strings.Join(labels, ", "))

	if len(questions) == 0 {
		fmt.Fprintln(w, "No questions on this page.")
		return nil
	}
	for _, question := range questions {
		fmt.Fprintf(w, "%3d. %s\n", question.ID, question.Text)
	}
	return nil
}
