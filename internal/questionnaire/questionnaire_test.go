package questionnaire

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyYAML is a minimal valid definition: two items per scored subscale plus an
// attention item and a reverse-coded defensive item.
const tinyYAML = `
name: tiny
questions_per_page: 4
response_options:
  - { value: 1, label: "Strongly Disagree" }
  - { value: 2, label: "Disagree" }
  - { value: 3, label: "Neutral" }
  - { value: 4, label: "Agree" }
  - { value: 5, label: "Strongly Agree" }
subscales:
  anxiety: { start: 1, end: 2, name: "Anxiety" }
  avoidance: { start: 3, end: 4, name: "Avoidance" }
  disorganization: { start: 5, end: 6, name: "Disorganization" }
  secure: { start: 7, end: 8, name: "Secure" }
attention_check: { question_id: 9, expected_answer: 4 }
thresholds: { anxiety: 3.5, avoidance: 3.5, disorganization: 3.5 }
questions:
  - { id: 1, subscale: anxiety, text: "a1" }
  - { id: 2, subscale: anxiety, text: "a2" }
  - { id: 3, subscale: avoidance, text: "v1" }
  - { id: 4, subscale: avoidance, text: "v2" }
  - { id: 5, subscale: disorganization, text: "d1" }
  - { id: 6, subscale: disorganization, text: "d2" }
  - { id: 7, subscale: secure, text: "s1" }
  - { id: 8, subscale: secure, text: "s2", reverse: true }
  - { id: 9, subscale: attention, text: "pick agree" }
  - { id: 10, subscale: defensive, text: "never jealous", reverse: true }
`

func TestParseTiny(t *testing.T) {
	q, err := Parse([]byte(tinyYAML))
	require.NoError(t, err)

	assert.Equal(t, "tiny", q.Name())
	assert.Equal(t, 10, q.Len())
	assert.Equal(t, 1, q.ScaleMin())
	assert.Equal(t, 5, q.ScaleMax())
	assert.Equal(t, DefaultClassificationBoundary, q.ClassificationBoundary())
	assert.Nil(t, q.Thresholds().DefensiveResponding)
	assert.Equal(t, AttentionCheck{QuestionID: 9, ExpectedAnswer: 4}, q.AttentionCheck())
	assert.Equal(t, "Agree", q.Label(4))
	assert.Equal(t, "", q.Label(9))

	rev := q.ReverseQuestions()
	require.Len(t, rev, 2)
	assert.Equal(t, 8, rev[0].ID)
	assert.Equal(t, 10, rev[1].ID)

	r, ok := q.Subscale(Secure)
	require.True(t, ok)
	assert.Equal(t, 2, r.Len())
	_, ok = q.Subscale(Attention)
	assert.False(t, ok)
}

func TestBuiltinVariants(t *testing.T) {
	assert.Equal(t, []string{"compact", "reference"}, BuiltinNames())

	t.Run("reference", func(t *testing.T) {
		q, err := Builtin("reference")
		require.NoError(t, err)
		assert.Equal(t, 30, q.Len())
		assert.Equal(t, 6, q.QuestionsPerPage())
		assert.Equal(t, 3.0, q.ClassificationBoundary())
		assert.Equal(t, AttentionCheck{QuestionID: 29, ExpectedAnswer: 4}, q.AttentionCheck())
		require.NotNil(t, q.Thresholds().DefensiveResponding)
		assert.Equal(t, 4.0, *q.Thresholds().DefensiveResponding)

		rev := q.ReverseQuestions()
		require.Len(t, rev, 1)
		assert.Equal(t, 30, rev[0].ID)

		for _, kind := range ScoredSubscales {
			_, ok := q.Subscale(kind)
			assert.True(t, ok, "subscale %s", kind)
		}
	})

	t.Run("compact", func(t *testing.T) {
		q, err := Builtin("compact")
		require.NoError(t, err)
		assert.Equal(t, 22, q.Len())
		assert.Nil(t, q.Thresholds().DefensiveResponding)
		assert.Equal(t, DefaultClassificationBoundary, q.ClassificationBoundary())

		secure, _ := q.Subscale(Secure)
		for id := secure.Start; id <= secure.End; id++ {
			question, ok := q.Question(id)
			require.True(t, ok)
			assert.True(t, question.Reverse, "secure item %d should be reverse-coded", id)
		}
		assert.Len(t, q.ReverseQuestions(), 5)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Builtin("nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compact, reference")
	})
}

func TestParseRejectsInconsistentDefinitions(t *testing.T) {
	tests := []struct {
		name      string
		old, new  string
		wantField string
	}{
		{
			name:      "duplicate id",
			old:       `{ id: 2, subscale: anxiety, text: "a2" }`,
			new:       `{ id: 1, subscale: anxiety, text: "a2" }`,
			wantField: "questions[1]",
		},
		{
			name:      "id beyond question count",
			old:       `{ id: 10, subscale: defensive`,
			new:       `{ id: 11, subscale: defensive`,
			wantField: "questions[9]",
		},
		{
			name:      "unknown subscale kind",
			old:       `{ id: 5, subscale: disorganization`,
			new:       `{ id: 5, subscale: chaos`,
			wantField: "questions[4]",
		},
		{
			name:      "overlapping ranges",
			old:       `avoidance: { start: 3, end: 4`,
			new:       `avoidance: { start: 2, end: 4`,
			wantField: "subscales.anxiety",
		},
		{
			name:      "missing range",
			old:       `  secure: { start: 7, end: 8, name: "Secure" }` + "\n",
			new:       "",
			wantField: "subscales.secure",
		},
		{
			name:      "range for unscored subscale",
			old:       `  secure: { start: 7, end: 8, name: "Secure" }`,
			new:       `  secure: { start: 7, end: 8, name: "Secure" }` + "\n" + `  attention: { start: 9, end: 9, name: "Attention" }`,
			wantField: "subscales.attention",
		},
		{
			name:      "range beyond question count",
			old:       `secure: { start: 7, end: 8`,
			new:       `secure: { start: 7, end: 12`,
			wantField: "subscales.secure",
		},
		{
			name:      "question tagged with wrong subscale inside range",
			old:       `{ id: 4, subscale: avoidance`,
			new:       `{ id: 4, subscale: anxiety`,
			wantField: "questions[3]",
		},
		{
			name:      "attention check on non-attention item",
			old:       `question_id: 9`,
			new:       `question_id: 10`,
			wantField: "attention_check.question_id",
		},
		{
			name:      "attention answer off scale",
			old:       `expected_answer: 4`,
			new:       `expected_answer: 7`,
			wantField: "attention_check.expected_answer",
		},
		{
			name:      "non-contiguous options",
			old:       `{ value: 3, label: "Neutral" }`,
			new:       `{ value: 9, label: "Neutral" }`,
			wantField: "response_options",
		},
		{
			name:      "disorganization threshold off scale",
			old:       `disorganization: 3.5 }`,
			new:       `disorganization: 6.5 }`,
			wantField: "thresholds.disorganization",
		},
		{
			name:      "negative page size",
			old:       `questions_per_page: 4`,
			new:       `questions_per_page: -1`,
			wantField: "questions_per_page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, tinyYAML, tt.old, "fixture replacement target must exist")
			_, err := Parse([]byte(strings.Replace(tinyYAML, tt.old, tt.new, 1)))
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want *ConfigurationError, got %T: %v", err, err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(strings.Replace(tinyYAML, "questions_per_page: 4", "questions_per_pgae: 4", 1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty definition")
}

func TestLoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tinyYAML), 0644))

	q, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", q.Name())

	q, err = Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", q.Name())

	q, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "reference", q.Name())

	q, err = Resolve("compact")
	require.NoError(t, err)
	assert.Equal(t, "compact", q.Name())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPage(t *testing.T) {
	q, err := Builtin("reference")
	require.NoError(t, err)

	tests := []struct {
		page      int
		wantFirst int
		wantLen   int
		want      Pagination
	}{
		{page: 1, wantFirst: 1, wantLen: 6, want: Pagination{CurrentPage: 1, TotalPages: 5, HasNext: true, HasPrev: false}},
		{page: 0, wantFirst: 1, wantLen: 6, want: Pagination{CurrentPage: 1, TotalPages: 5, HasNext: true, HasPrev: false}},
		{page: 3, wantFirst: 13, wantLen: 6, want: Pagination{CurrentPage: 3, TotalPages: 5, HasNext: true, HasPrev: true}},
		{page: 5, wantFirst: 25, wantLen: 6, want: Pagination{CurrentPage: 5, TotalPages: 5, HasNext: false, HasPrev: true}},
		{page: 9, wantLen: 0, want: Pagination{CurrentPage: 9, TotalPages: 5, HasNext: false, HasPrev: true}},
	}
	for _, tt := range tests {
		questions, pagination := q.Page(tt.page)
		assert.Equal(t, tt.want, pagination, "page %d", tt.page)
		require.Len(t, questions, tt.wantLen, "page %d", tt.page)
		if tt.wantLen > 0 {
			assert.Equal(t, tt.wantFirst, questions[0].ID)
		}
	}

	compact, err := Builtin("compact")
	require.NoError(t, err)
	questions, pagination := compact.Page(5)
	assert.Len(t, questions, 2)
	assert.Equal(t, 5, pagination.TotalPages)
}

func TestQuestionsReturnsCopy(t *testing.T) {
	q, err := Parse([]byte(tinyYAML))
	require.NoError(t, err)

	qs := q.Questions()
	qs[0].Text = "mutated"
	first, _ := q.Question(1)
	assert.Equal(t, "a1", first.Text)
	assert.Equal(t, "a1", q.Questions()[0].Text)
}
