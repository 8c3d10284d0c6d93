package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/filelock"
	"github.com/harrison/attune/internal/report"
)

// NewExportCommand creates the export command
func NewExportCommand(opts *rootOptions) *cobra.Command {
	var (
		output string
		asHTML bool
		asPDF  bool
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a completed session as a report",
		Long: `Render the result of a completed session as a Markdown report, as a
standalone HTML page with --html, or as an A4 PDF with --pdf. PDF output needs
a TrueType font: set pdf_font (or ATTUNE_PDF_FONT) or install DejaVu Sans.

Without --output the report is written to stdout. With --output the file is
written atomically under an advisory lock, so concurrent exports to the same
path never interleave.`,
		Args: cobra.ExactArgs(1),
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

			outcome, err := svc.Results(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var content bytes.Buffer
			md := report.Markdown(a.q, outcome)
			switch {
			case asPDF:
				if err := report.PDF(&content, a.q, outcome, a.cfg.PDFFont); err != nil {
					return err
				}
			case asHTML:
				doc, err := report.Document(md)
				if err != nil {
					return err
				}
				content.WriteString(doc)
			default:
				content.WriteString(md)
			}

			if output == "" {
				_, err := a.out.Write(content.Bytes())
				return err
			}
			if err := filelock.WriteFile(cmd.Context(), output, content.Bytes(), 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(a.out, "Report written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write the report to (default stdout)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "render as a standalone HTML page")
	cmd.Flags().BoolVar(&asPDF, "pdf", false, "render as a PDF document")
	cmd.MarkFlagsMutuallyExclusive("html", "pdf")

	return cmd
}
