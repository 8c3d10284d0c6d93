// Package questionnaire holds the static definition of an attachment-style
// inventory: its questions, scored subscale ranges, attention check, flag
// thresholds and response-option labels.
//
// A Questionnaire is built once by Load, Parse or Builtin, validated before it is
// returned, and never mutated afterwards. Callers pass it explicitly to the scoring
// engine so several variants can coexist in one process.
package questionnaire

import "sort"

// SubscaleKind identifies which construct a question measures.
type SubscaleKind string

const (
	Anxiety         SubscaleKind = "anxiety"
	Avoidance       SubscaleKind = "avoidance"
	Disorganization SubscaleKind = "disorganization"
	Secure          SubscaleKind = "secure"
	Attention       SubscaleKind = "attention"
	Defensive       SubscaleKind = "defensive"
)

// ScoredSubscales lists the subscales that produce a score, in reporting order.
var ScoredSubscales = []SubscaleKind{Anxiety, Avoidance, Disorganization, Secure}

// IsScored reports whether the kind has a subscale range and a mean score.
func (k SubscaleKind) IsScored() bool {
	switch k {
	case Anxiety, Avoidance, Disorganization, Secure:
		return true
	}
	return false
}

func (k SubscaleKind) valid() bool {
	return k.IsScored() || k == Attention || k == Defensive
}

// Question is a single inventory item.
type Question struct {
	ID       int          `yaml:"id" json:"id"`
	Text     string       `yaml:"text" json:"text"`
	Subscale SubscaleKind `yaml:"subscale" json:"subscale"`
	Reverse  bool         `yaml:"reverse" json:"reverse"`
}

// SubscaleRange is the closed interval of question ids belonging to a scored subscale.
type SubscaleRange struct {
	Start int    `yaml:"start" json:"start"`
	End   int    `yaml:"end" json:"end"`
	Name  string `yaml:"name" json:"name"`
}

// Contains reports whether id lies within [Start, End].
func (r SubscaleRange) Contains(id int) bool {
	return id >= r.Start && id <= r.End
}

// Len is the number of question ids in the range.
func (r SubscaleRange) Len() int {
	return r.End - r.Start + 1
}

// AttentionCheck names the item with a known correct answer.
type AttentionCheck struct {
	QuestionID     int `yaml:"question_id" json:"questionId"`
	ExpectedAnswer int `yaml:"expected_answer" json:"expectedAnswer"`
}

// Thresholds are the configured cut points for the reliability flags.
//
// Anxiety and Avoidance are carried for reporting only; classification uses the
// separate ClassificationBoundary. DefensiveResponding is optional and is not
// consulted by the defensive-responding check, which applies a fixed cutoff.
type Thresholds struct {
	Anxiety             float64  `yaml:"anxiety" json:"anxiety"`
	Avoidance           float64  `yaml:"avoidance" json:"avoidance"`
	Disorganization     float64  `yaml:"disorganization" json:"disorganization"`
	DefensiveResponding *float64 `yaml:"defensive_responding,omitempty" json:"defensiveResponding,omitempty"`
}

// ResponseOption is one labelled point on the rating scale.
type ResponseOption struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// DefaultClassificationBoundary is used when a definition does not set one.
const DefaultClassificationBoundary = 3.0

// DefaultQuestionsPerPage is used when a definition does not set a page size.
const DefaultQuestionsPerPage = 6

// Questionnaire is a validated, read-only inventory definition.
type Questionnaire struct {
	name                   string
	questions              []Question
	byID                   map[int]Question
	subscales              map[SubscaleKind]SubscaleRange
	attentionCheck         AttentionCheck
	thresholds             Thresholds
	classificationBoundary float64
	responseOptions        []ResponseOption
	questionsPerPage       int
	scaleMin               int
	scaleMax               int
}

// Name returns the definition's name, e.g. "reference".
func (q *Questionnaire) Name() string { return q.name }

// Questions returns the questions in presentation order. The slice is a copy.
func (q *Questionnaire) Questions() []Question {
	out := make([]Question, len(q.questions))
	copy(out, q.questions)
	return out
}

// Len is the total number of questions.
func (q *Questionnaire) Len() int { return len(q.questions) }

// Question looks up a question by id.
func (q *Questionnaire) Question(id int) (Question, bool) {
	question, ok := q.byID[id]
	return question, ok
}

// QuestionIDs returns every configured question id in ascending order.
func (q *Questionnaire) QuestionIDs() []int {
	ids := make([]int, 0, len(q.byID))
	for id := range q.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Subscale returns the range for a scored subscale.
func (q *Questionnaire) Subscale(kind SubscaleKind) (SubscaleRange, bool) {
	r, ok := q.subscales[kind]
	return r, ok
}

// ReverseQuestions returns every question flagged reverse, in id order. This is
// the item set inspected by the defensive-responding check.
func (q *Questionnaire) ReverseQuestions() []Question {
	var out []Question
	for _, id := range q.QuestionIDs() {
		if question := q.byID[id]; question.Reverse {
			out = append(out, question)
		}
	}
	return out
}

func (q *Questionnaire) AttentionCheck() AttentionCheck { return q.attentionCheck }

func (q *Questionnaire) Thresholds() Thresholds { return q.thresholds }

// ClassificationBoundary is the value T splitting low from high on both the
// anxiety and avoidance axes.
func (q *Questionnaire) ClassificationBoundary() float64 { return q.classificationBoundary }

// ResponseOptions returns the rating labels in ascending value order. The slice is a copy.
func (q *Questionnaire) ResponseOptions() []ResponseOption {
	out := make([]ResponseOption, len(q.responseOptions))
	copy(out, q.responseOptions)
	return out
}

func (q *Questionnaire) QuestionsPerPage() int { return q.questionsPerPage }

// ScaleMin is the lowest valid rating.
func (q *Questionnaire) ScaleMin() int { return q.scaleMin }

// ScaleMax is the highest valid rating.
func (q *Questionnaire) ScaleMax() int { return q.scaleMax }

// Label returns the response-option label for a rating, or "" when the rating is
// not on the scale.
func (q *Questionnaire) Label(value int) string {
	for _, opt := range q.responseOptions {
		if opt.Value == value {
			return opt.Label
		}
	}
	return ""
}
