package questionnaire

// Pagination describes where a page sits within the full question list.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// Page returns the 1-based page n of questions using the configured page size.
// Pages below 1 are treated as page 1. A page past the end yields no questions
// but still reports accurate pagination.
func (q *Questionnaire) Page(n int) ([]Question, Pagination) {
	if n < 1 {
		n = 1
	}
	size := q.questionsPerPage
	total := (len(q.questions) + size - 1) / size

	start := (n - 1) * size
	if start > len(q.questions) {
		start = len(q.questions)
	}
	end := start + size
	if end > len(q.questions) {
		end = len(q.questions)
	}

	page := make([]Question, end-start)
	copy(page, q.questions[start:end])

	return page, Pagination{
		CurrentPage: n,
		TotalPages:  total,
		HasNext:     n < total,
		HasPrev:     n > 1,
	}
}
