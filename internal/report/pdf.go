package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signintech/gopdf"

	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/questionnaire"
)

// DefaultFontPaths are tried in order when no font is configured.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// ErrNoFont means no TrueType font could be loaded for PDF output.
var ErrNoFont = errors.New("no TrueType font available for PDF output")

const (
	pdfFont      = "body"
	pdfMargin    = 50.0
	pdfTextWidth = 495.0 // A4 width minus both margins, in points
)

// FindFont returns fontPath when it exists, otherwise the first of
// DefaultFontPaths that does.
func FindFont(fontPath string) (string, error) {
	candidates := DefaultFontPaths
	if fontPath != "" {
		candidates = []string{fontPath}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if fontPath != "" {
		return "", fmt.Errorf("%w: %s not found", ErrNoFont, fontPath)
	}
	return "", fmt.Errorf("%w: set pdf_font or install DejaVu Sans", ErrNoFont)
}

// PDF writes the report for outcome as an A4 document to w. fontPath names a
// TrueType font; empty searches DefaultFontPaths.
func PDF(w io.Writer, q *questionnaire.Questionnaire, outcome *models.Outcome, fontPath string) error {
	font, err := FindFont(fontPath)
	if err != nil {
		return err
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin, pdfMargin)
	pdf.AddPage()
	if err := pdf.AddTTFFont(pdfFont, font); err != nil {
		return fmt.Errorf("load font %s: %w", font, err)
	}

	p := &pdfWriter{pdf: pdf}
	p.heading(20, DefaultTitle)
	p.gap(10)

	p.size(11)
	p.line(fmt.Sprintf("Session: %s", outcome.SessionID))
	p.line(fmt.Sprintf("Questionnaire: %s", q.Name()))
	if outcome.CompletedAt != nil {
		p.line(fmt.Sprintf("Completed: %s", outcome.CompletedAt.UTC().Format(time.RFC3339)))
	}
	if outcome.CompletionTime != nil {
		p.line(fmt.Sprintf("Completion time: %s", time.Duration(*outcome.CompletionTime)*time.Second))
	}
	p.gap(15)

	style := outcome.Classification.PrimaryStyle
	p.heading(14, "Primary style: "+StyleTitle(style))
	p.size(11)
	if desc, ok := styleDescriptions[style]; ok {
		p.paragraph(desc)
	}
	p.gap(15)

	p.heading(14, "Subscale scores")
	p.size(11)
	for _, row := range subscaleRows(q, outcome.SubscaleScores) {
		p.line(fmt.Sprintf("%s: %.2f (%s)", row.name, row.score, row.level))
	}
	p.paragraph(fmt.Sprintf("Scores are means on a %d to %d scale; %.2f and above counts as high.",
		q.ScaleMin(), q.ScaleMax(), q.ClassificationBoundary()))
	p.gap(15)

	p.heading(14, "Reliability")
	p.size(11)
	p.line("Attention check: " + yesNo(outcome.Flags.AttentionCheckPassed, "passed", "failed"))
	p.line("Defensive responding: " + yesNo(outcome.Flags.DefensiveResponding, "detected", "not detected"))
	p.line("Disorganization flag: " + yesNo(outcome.Classification.DisorganizationFlag, "raised", "not raised"))
	p.gap(15)

	p.heading(14, "Notes")
	p.size(11)
	if len(outcome.Notes) == 0 {
		p.line("No notes.")
	}
	for _, note := range outcome.Notes {
		p.paragraph("- " + note)
	}

	if p.err != nil {
		return fmt.Errorf("render pdf: %w", p.err)
	}
	if _, err := pdf.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pdfWriter keeps the first drawing error so the layout code stays linear.
type pdfWriter struct {
	pdf *gopdf.GoPdf
	err error
}

func (p *pdfWriter) size(pt int) {
	if p.err == nil {
		p.err = p.pdf.SetFont(pdfFont, "", pt)
	}
}

func (p *pdfWriter) heading(pt int, text string) {
	p.size(pt)
	p.line(text)
	p.gap(4)
}

func (p *pdfWriter) line(text string) {
	if p.err != nil {
		return
	}
	p.err = p.pdf.Cell(nil, text)
	p.pdf.Br(16)
}

func (p *pdfWriter) paragraph(text string) {
	if p.err != nil {
		return
	}
	lines, err := p.pdf.SplitText(text, pdfTextWidth)
	if err != nil {
		p.err = err
		return
	}
	for _, l := range lines {
		p.line(l)
	}
}

func (p *pdfWriter) gap(h float64) {
	if p.err == nil {
		p.pdf.Br(h)
	}
}
