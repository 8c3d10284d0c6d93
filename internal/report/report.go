// Package report renders a completed session as Markdown, that Markdown as
// HTML through goldmark, or the same content as a PDF document.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/questionnaire"
)

// DefaultTitle heads every report.
const DefaultTitle = "Attachment Style Report"

var styleDescriptions = map[models.AttachmentStyle]string{
	models.StyleSecure:   "Comfortable with closeness and with independence; relationship worries are low and intimacy is not avoided.",
	models.StyleAnxious:  "Strong desire for closeness paired with worry about the partner's availability and commitment.",
	models.StyleAvoidant: "Preference for self-reliance and emotional distance; closeness can feel uncomfortable.",
	models.StyleFearful:  "Desire for closeness alongside discomfort with it; both worry about the relationship and withdrawal from intimacy are high.",
}

var styleTitles = map[models.AttachmentStyle]string{
	models.StyleSecure:   "Secure",
	models.StyleAnxious:  "Anxious",
	models.StyleAvoidant: "Avoidant",
	models.StyleFearful:  "Fearful",
}

// Markdown renders outcome with the subscale display names and classification
// boundary of q.
func Markdown(q *questionnaire.Questionnaire, outcome *models.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", DefaultTitle)
	fmt.Fprintf(&b, "- **Session:** `%s`\n", outcome.SessionID)
	fmt.Fprintf(&b, "- **Questionnaire:** %s\n", q.Name())
	if outcome.CompletedAt != nil {
		fmt.Fprintf(&b, "- **Completed:** %s\n", outcome.CompletedAt.UTC().Format(time.RFC3339))
	}
	if outcome.CompletionTime != nil {
		fmt.Fprintf(&b, "- **Completion time:** %s\n", (time.Duration(*outcome.CompletionTime) * time.Second).String())
	}
	b.WriteString("\n")

	style := outcome.Classification.PrimaryStyle
	fmt.Fprintf(&b, "## Primary style: %s\n\n", StyleTitle(style))
	if desc, ok := styleDescriptions[style]; ok {
		b.WriteString(desc + "\n\n")
	}

	boundary := q.ClassificationBoundary()
	b.WriteString("## Subscale scores\n\n")
	b.WriteString("| Subscale | Score | Level |\n")
	b.WriteString("| --- | ---: | --- |\n")
	for _, row := range subscaleRows(q, outcome.SubscaleScores) {
		fmt.Fprintf(&b, "| %s | %.2f | %s |\n", row.name, row.score, row.level)
	}
	fmt.Fprintf(&b, "\nScores are means on a %d to %d scale; %.2f and above counts as high.\n\n",
		q.ScaleMin(), q.ScaleMax(), boundary)

	b.WriteString("## Reliability\n\n")
	fmt.Fprintf(&b, "- Attention check: %s\n", yesNo(outcome.Flags.AttentionCheckPassed, "passed", "failed"))
	fmt.Fprintf(&b, "- Defensive responding: %s\n", yesNo(outcome.Flags.DefensiveResponding, "detected", "not detected"))
	fmt.Fprintf(&b, "- Disorganization flag: %s\n\n", yesNo(outcome.Classification.DisorganizationFlag, "raised", "not raised"))

	b.WriteString("## Notes\n\n")
	if len(outcome.Notes) == 0 {
		b.WriteString("No notes.\n")
	}
	for _, note := range outcome.Notes {
		fmt.Fprintf(&b, "- %s\n", note)
	}
	return b.String()
}

// StyleTitle is the display form of a style.
func StyleTitle(style models.AttachmentStyle) string {
	if t, ok := styleTitles[style]; ok {
		return t
	}
	return string(style)
}

type subscaleRow struct {
	name  string
	score float64
	level string
}

// subscaleRows lists the scored subscales with display names. A score is high
// at or above its cut point: the disorganization threshold for disorganization
// and the classification boundary for everything else.
func subscaleRows(q *questionnaire.Questionnaire, scores models.SubscaleScores) []subscaleRow {
	rows := make([]subscaleRow, 0, len(questionnaire.ScoredSubscales))
	for _, kind := range questionnaire.ScoredSubscales {
		name := string(kind)
		if r, ok := q.Subscale(kind); ok && r.Name != "" {
			name = r.Name
		}
		score := scoreFor(scores, kind)
		cut := q.ClassificationBoundary()
		if kind == questionnaire.Disorganization {
			cut = q.Thresholds().Disorganization
		}
		level := "low"
		if score >= cut {
			level = "high"
		}
		rows = append(rows, subscaleRow{name: name, score: score, level: level})
	}
	return rows
}

func scoreFor(s models.SubscaleScores, kind questionnaire.SubscaleKind) float64 {
	switch kind {
	case questionnaire.Anxiety:
		return s.Anxiety
	case questionnaire.Avoidance:
		return s.Avoidance
	case questionnaire.Disorganization:
		return s.Disorganization
	case questionnaire.Secure:
		return s.Secure
	}
	return 0
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.Table))
}

// HTML converts Markdown to an HTML fragment.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := newMarkdown().Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// Title returns the text of the first level-1 heading, or DefaultTitle.
func Title(markdown string) string {
	source := []byte(markdown)
	doc := newMarkdown().Parser().Parse(text.NewReader(source))

	title := ""
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 1 {
			title = headingText(heading, source)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if title == "" {
		return DefaultTitle
	}
	return title
}

func headingText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(headingText(c, source))
	}
	return b.String()
}

// Document wraps the rendered Markdown in a standalone HTML page.
func Document(markdown string) (string, error) {
	body, err := HTML(markdown)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(Title(markdown)))
	b.WriteString("<style>body{font-family:sans-serif;max-width:48rem;margin:2rem auto;}table{border-collapse:collapse;}td,th{border:1px solid #ccc;padding:.3rem .6rem;}</style>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}
