package scoring

import (
	"fmt"

	"github.com/harrison/attune/internal/models"
)

const (
	// defensiveRatingCutoff is the raw rating at or above which a reverse-coded
	// item counts as a favorable answer. It is fixed; the questionnaire's
	// thresholds.defensive_responding value does not feed this check.
	defensiveRatingCutoff = 4

	// defensiveProportion of reverse-coded items that must be rated favorably
	// before the pattern is flagged.
	defensiveProportion = 0.8
)

// AllQuestionsAnswered reports whether every configured question id has a rating.
// Extra ids do not make it false; ValidateResponses rejects those separately.
func (e *Engine) AllQuestionsAnswered(responses models.Responses) bool {
	return len(e.MissingQuestions(responses)) == 0
}

// MissingQuestions lists configured question ids without a rating, ascending.
func (e *Engine) MissingQuestions(responses models.Responses) []int {
	var missing []int
	for _, id := range e.q.QuestionIDs() {
		if _, ok := responses.Rating(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// ValidateResponses is the gate in front of scoring. Missing ids are reported
// first as *IncompleteResponseError; then any answer to an unknown question or any
// rating off the scale is reported as *InvalidResponseValueError.
func (e *Engine) ValidateResponses(responses models.Responses) error {
	if missing := e.MissingQuestions(responses); len(missing) > 0 {
		return &IncompleteResponseError{Missing: missing}
	}
	for _, id := range responses.IDs() {
		rating := responses[id]
		if _, ok := e.q.Question(id); !ok {
			return &InvalidResponseValueError{QuestionID: id, Value: float64(rating), Reason: "no such question"}
		}
		if rating < e.q.ScaleMin() || rating > e.q.ScaleMax() {
			return &InvalidResponseValueError{
				QuestionID: id,
				Value:      float64(rating),
				Reason:     fmt.Sprintf("rating must be an integer between %d and %d", e.q.ScaleMin(), e.q.ScaleMax()),
			}
		}
	}
	return nil
}

// AttentionCheckPassed reports whether the attention item received exactly the
// expected answer.
func (e *Engine) AttentionCheckPassed(responses models.Responses) bool {
	check := e.q.AttentionCheck()
	got, ok := responses.Rating(check.QuestionID)
	return ok && got == check.ExpectedAnswer
}

// DefensiveResponding reports whether at least 80% of the reverse-coded items
// received a raw rating of 4 or more. A questionnaire with no reverse-coded items
// never flags.
func (e *Engine) DefensiveResponding(responses models.Responses) bool {
	reverse := e.q.ReverseQuestions()
	if len(reverse) == 0 {
		return false
	}
	high := 0
	for _, question := range reverse {
		if rating, ok := responses.Rating(question.ID); ok && rating >= defensiveRatingCutoff {
			high++
		}
	}
	return float64(high) >= defensiveProportion*float64(len(reverse))
}

// DisorganizationFlag reports whether the disorganization score reaches the
// configured threshold.
func (e *Engine) DisorganizationFlag(disorganizationScore float64) bool {
	return disorganizationScore >= e.q.Thresholds().Disorganization
}
