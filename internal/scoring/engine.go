// Package scoring turns a complete set of Likert ratings into subscale scores,
// reliability flags, notes and an attachment-style classification.
//
// An Engine holds no mutable state; one instance may be shared by any number of
// goroutines. Everything it knows about items, ranges and thresholds comes from
// the questionnaire it was built with.
package scoring

import (
	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/questionnaire"
)

// Engine scores responses against one questionnaire definition.
type Engine struct {
	q *questionnaire.Questionnaire
}

// NewEngine binds an engine to a validated questionnaire.
func NewEngine(q *questionnaire.Questionnaire) *Engine {
	return &Engine{q: q}
}

// Questionnaire returns the definition the engine scores against.
func (e *Engine) Questionnaire() *questionnaire.Questionnaire {
	return e.q
}

// ReverseCode mirrors a rating across the scale midpoint: on a 1-5 scale it maps
// r to 6-r. Applying it twice returns the original rating.
func (e *Engine) ReverseCode(rating int) int {
	return e.q.ScaleMin() + e.q.ScaleMax() - rating
}

// ScoreSubscale returns the mean rating over every question id in the subscale's
// range, reverse-coding the items whose own reverse flag is set. The result is
// not rounded.
func (e *Engine) ScoreSubscale(responses models.Responses, name questionnaire.SubscaleKind) (float64, error) {
	r, ok := e.q.Subscale(name)
	if !ok {
		return 0, &questionnaire.ConfigurationError{
			Field:  "subscales." + string(name),
			Reason: "unknown subscale",
		}
	}

	var missing []int
	sum := 0
	for id := r.Start; id <= r.End; id++ {
		rating, ok := responses.Rating(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if question, _ := e.q.Question(id); question.Reverse {
			rating = e.ReverseCode(rating)
		}
		sum += rating
	}
	if len(missing) > 0 {
		return 0, &IncompleteResponseError{Missing: missing}
	}
	return float64(sum) / float64(r.Len()), nil
}

// Classify maps anxiety and avoidance scores onto one of four styles using the
// questionnaire's classification boundary.
func (e *Engine) Classify(anxiety, avoidance float64) models.AttachmentStyle {
	return ClassifyWithBoundary(e.q.ClassificationBoundary(), anxiety, avoidance)
}

// ClassifyWithBoundary is the 2x2 decision. A score equal to the boundary counts
// as high on its axis.
func ClassifyWithBoundary(boundary, anxiety, avoidance float64) models.AttachmentStyle {
	highAnxiety := anxiety >= boundary
	highAvoidance := avoidance >= boundary

	switch {
	case !highAnxiety && !highAvoidance:
		return models.StyleSecure
	case highAnxiety && !highAvoidance:
		return models.StyleAnxious
	case !highAnxiety && highAvoidance:
		return models.StyleAvoidant
	default:
		return models.StyleFearful
	}
}

// Evaluate runs the whole pipeline on one response set: validation, the four
// subscale scores, the reliability checks, classification and notes. It has no
// side effects; on error no partial result is returned.
func (e *Engine) Evaluate(responses models.Responses) (*models.Result, error) {
	if err := e.ValidateResponses(responses); err != nil {
		return nil, err
	}

	scores := make(map[questionnaire.SubscaleKind]float64, len(questionnaire.ScoredSubscales))
	for _, kind := range questionnaire.ScoredSubscales {
		score, err := e.ScoreSubscale(responses, kind)
		if err != nil {
			return nil, err
		}
		scores[kind] = score
	}

	flags := models.Flags{
		AttentionCheckPassed: e.AttentionCheckPassed(responses),
		DefensiveResponding:  e.DefensiveResponding(responses),
	}
	classification := models.Classification{
		PrimaryStyle:        e.Classify(scores[questionnaire.Anxiety], scores[questionnaire.Avoidance]),
		DisorganizationFlag: e.DisorganizationFlag(scores[questionnaire.Disorganization]),
	}

	return &models.Result{
		SubscaleScores: models.SubscaleScores{
			Anxiety:         scores[questionnaire.Anxiety],
			Avoidance:       scores[questionnaire.Avoidance],
			Disorganization: scores[questionnaire.Disorganization],
			Secure:          scores[questionnaire.Secure],
		},
		Classification: classification,
		Flags:          flags,
		Notes:          BuildNotes(flags, classification.DisorganizationFlag),
	}, nil
}
