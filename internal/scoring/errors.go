package scoring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel kinds for errors.Is checks at the API boundary.
var (
	ErrIncompleteResponse   = errors.New("incomplete response set")
	ErrInvalidResponseValue = errors.New("invalid response value")
)

// IncompleteResponseError reports question ids with no rating. Submissions that
// fail with it must be rejected without touching persisted state.
type IncompleteResponseError struct {
	Missing []int // ascending
}

func (e *IncompleteResponseError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = strconv.Itoa(id)
	}
	if len(ids) == 1 {
		return fmt.Sprintf("missing response for question %s", ids[0])
	}
	return fmt.Sprintf("missing responses for questions %s", strings.Join(ids, ", "))
}

func (e *IncompleteResponseError) Unwrap() error { return ErrIncompleteResponse }

// InvalidResponseValueError reports a rating that is off the scale or an answer to
// a question the questionnaire does not define.
type InvalidResponseValueError struct {
	QuestionID int
	Value      float64
	Reason     string
}

func (e *InvalidResponseValueError) Error() string {
	return fmt.Sprintf("question %d: invalid response %g: %s", e.QuestionID, e.Value, e.Reason)
}

func (e *InvalidResponseValueError) Unwrap() error { return ErrInvalidResponseValue }
