package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Responses maps a question id to its integer rating. Lookups go through Rating so
// a missing answer is always an explicit condition rather than a zero value.
type Responses map[int]int

// Rating returns the rating for a question id and whether one was given.
func (r Responses) Rating(id int) (int, bool) {
	v, ok := r[id]
	return v, ok
}

// IDs returns the answered question ids in ascending order.
func (r Responses) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clone returns an independent copy.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the set as an object keyed by decimal question id, the
// shape clients submit.
func (r Responses) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(r))
	for k, v := range r {
		m[strconv.Itoa(k)] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by decimal question id. Keys must be in
// canonical form ("7", not "07" or "+7") and name each question at most once.
// Ratings must be integral; 4.0 is accepted, 4.5 is not.
func (r *Responses) UnmarshalJSON(data []byte) error {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("responses must be an object of question id to rating: %w", err)
	}
	keys := sortedKeys(raw)
	ids := make(map[string]int, len(raw))
	seen := make(map[int]string, len(raw))
	for _, key := range keys {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("question id %q is not an integer", key)
		}
		if prev, dup := seen[id]; dup {
			return &DuplicateQuestionError{QuestionID: id, Keys: []string{prev, key}}
		}
		seen[id] = key
		ids[key] = id
	}

	out := make(Responses, len(raw))
	for _, key := range keys {
		id, num := ids[key], raw[key]
		if strconv.Itoa(id) != key {
			return &NonCanonicalKeyError{QuestionID: id, Key: key}
		}
		v, err := ratingFromNumber(num)
		if err != nil {
			if nonIntegral, ok := err.(*NonIntegralRatingError); ok {
				nonIntegral.QuestionID = id
				return nonIntegral
			}
			return fmt.Errorf("question %d: %w", id, err)
		}
		out[id] = v
	}
	*r = out
	return nil
}

func sortedKeys(m map[string]json.Number) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func ratingFromNumber(num json.Number) (int, error) {
	if i, err := num.Int64(); err == nil {
		return int(i), nil
	}
	f, err := num.Float64()
	if err != nil {
		return 0, fmt.Errorf("rating %q is not a number", num.String())
	}
	if f != float64(int64(f)) {
		return 0, &NonIntegralRatingError{Value: f}
	}
	return int(f), nil
}

// NonIntegralRatingError reports a rating such as 3.5 in a decoded response set.
type NonIntegralRatingError struct {
	QuestionID int
	Value      float64
}

func (e *NonIntegralRatingError) Error() string {
	return fmt.Sprintf("question %d: rating %g is not an integer", e.QuestionID, e.Value)
}

// DuplicateQuestionError reports two object keys that name the same question,
// such as "1" and "+1".
type DuplicateQuestionError struct {
	QuestionID int
	Keys       []string
}

func (e *DuplicateQuestionError) Error() string {
	return fmt.Sprintf("question %d: answered more than once (keys %q)", e.QuestionID, e.Keys)
}

// NonCanonicalKeyError reports a question id key that is not in plain decimal
// form.
type NonCanonicalKeyError struct {
	QuestionID int
	Key        string
}

func (e *NonCanonicalKeyError) Error() string {
	return fmt.Sprintf("question id %q must be written as %q", e.Key, strconv.Itoa(e.QuestionID))
}
