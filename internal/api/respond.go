package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/report"
	"github.com/harrison/attune/internal/scoring"
	"github.com/harrison/attune/internal/session"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

type validationBody struct {
	errorBody
	Details []fieldError `json:"details"`
}

type incompleteBody struct {
	errorBody
	MissingQuestions []int `json:"missingQuestions"`
}

type invalidResponse struct {
	QuestionID int      `json:"questionId"`
	Value      any      `json:"value,omitempty"`
	Keys       []string `json:"keys,omitempty"`
	Reason     string   `json:"reason"`
}

type invalidBody struct {
	errorBody
	InvalidResponses []invalidResponse `json:"invalidResponses"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Anything unrecognized is a
// 500 with a generic message; the detail goes to the log only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		incomplete   *scoring.IncompleteResponseError
		invalid      *scoring.InvalidResponseValueError
		nonIntegral  *models.NonIntegralRatingError
		duplicate    *models.DuplicateQuestionError
		nonCanonical *models.NonCanonicalKeyError
		validation   validator.ValidationErrors
		notFound     *session.NotFoundError
		completed    *session.AlreadyCompletedError
		notCompleted *session.NotCompletedError
		badRequest   *requestError
	)
	q := s.questionnaire()

	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusBadRequest, incompleteBody{
			errorBody:        errorBody{Error: "Incomplete assessment", Message: fmt.Sprintf("All %d questions must be answered", q.Len())},
			MissingQuestions: incomplete.Missing,
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, invalidBody{
			errorBody:        errorBody{Error: "Invalid responses", Message: ratingRangeMessage(s)},
			InvalidResponses: []invalidResponse{{QuestionID: invalid.QuestionID, Value: invalid.Value, Reason: invalid.Reason}},
		})
	case errors.As(err, &nonIntegral):
		writeJSON(w, http.StatusBadRequest, invalidBody{
			errorBody:        errorBody{Error: "Invalid responses", Message: ratingRangeMessage(s)},
			InvalidResponses: []invalidResponse{{QuestionID: nonIntegral.QuestionID, Value: nonIntegral.Value, Reason: "rating must be an integer"}},
		})
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusBadRequest, invalidBody{
			errorBody:        errorBody{Error: "Invalid responses", Message: "Each question may be answered only once"},
			InvalidResponses: []invalidResponse{{QuestionID: duplicate.QuestionID, Keys: duplicate.Keys, Reason: "question answered more than once"}},
		})
	case errors.As(err, &nonCanonical):
		writeJSON(w, http.StatusBadRequest, invalidBody{
			errorBody:        errorBody{Error: "Invalid responses", Message: "Question ids must be plain decimal integers"},
			InvalidResponses: []invalidResponse{{QuestionID: nonCanonical.QuestionID, Keys: []string{nonCanonical.Key}, Reason: "question id is not in canonical form"}},
		})
	case errors.As(err, &validation):
		details := make([]fieldError, 0, len(validation))
		for _, fe := range validation {
			details = append(details, fieldError{Field: fe.Field(), Message: fieldMessage(fe), Value: fe.Value()})
		}
		writeJSON(w, http.StatusBadRequest, validationBody{errorBody: errorBody{Error: "Validation failed"}, Details: details})
	case errors.As(err, &badRequest):
		writeJSON(w, http.StatusBadRequest, validationBody{
			errorBody: errorBody{Error: "Validation failed", Message: badRequest.message},
			Details:   badRequest.details,
		})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found", Message: "Assessment session not found"})
	case errors.As(err, &completed):
		writeJSON(w, http.StatusConflict, errorBody{Error: "Already completed", Message: "This assessment session has already been submitted"})
	case errors.As(err, &notCompleted):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Not completed", Message: "Assessment not yet completed"})
	case errors.Is(err, report.ErrNoFont):
		s.log.LogWarn(err.Error())
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "PDF unavailable", Message: "PDF reports are not configured on this server"})
	default:
		s.log.LogError(fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Server error", Message: "Internal server error"})
	}
}

func ratingRangeMessage(s *Server) string {
	q := s.questionnaire()
	return fmt.Sprintf("All responses must be integers between %d and %d", q.ScaleMin(), q.ScaleMax())
}

// requestError is a malformed request caught before validation tags run.
type requestError struct {
	message string
	details []fieldError
}

func (e *requestError) Error() string { return e.message }

func badBody(err error) error {
	return &requestError{message: "Invalid request body: " + err.Error()}
}
