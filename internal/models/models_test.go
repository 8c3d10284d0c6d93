package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponsesRating(t *testing.T) {
	r := Responses{1: 4, 3: 1}

	v, ok := r.Rating(1)
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	_, ok = r.Rating(2)
	assert.False(t, ok, "missing id must be reported, not read as zero")

	assert.Equal(t, []int{1, 3}, r.IDs())

	clone := r.Clone()
	clone[1] = 5
	assert.Equal(t, 4, r[1])
}

func TestResponsesJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Responses
		wantErr bool
	}{
		{name: "integers", input: `{"1":4,"2":1}`, want: Responses{1: 4, 2: 1}},
		{name: "integral floats", input: `{"7":3.0}`, want: Responses{7: 3}},
		{name: "empty object", input: `{}`, want: Responses{}},
		{name: "non-numeric key", input: `{"q1":4}`, wantErr: true},
		{name: "not an object", input: `[4,5]`, wantErr: true},
		{name: "non-integral rating", input: `{"2":3.5}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Responses
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponsesNonIntegralCarriesQuestionID(t *testing.T) {
	var got Responses
	err := json.Unmarshal([]byte(`{"12":2.5}`), &got)

	var nonIntegral *NonIntegralRatingError
	require.True(t, errors.As(err, &nonIntegral), "got %T", err)
	assert.Equal(t, 12, nonIntegral.QuestionID)
	assert.Equal(t, 2.5, nonIntegral.Value)
}

func TestResponsesRejectsAliasedQuestionIDs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantID   int
		wantKeys []string
	}{
		{name: "sign prefix", input: `{"1":5,"+1":1}`, wantID: 1, wantKeys: []string{"+1", "1"}},
		{name: "leading zero", input: `{"01":3,"1":5}`, wantID: 1, wantKeys: []string{"01", "1"}},
		{name: "three spellings", input: `{"1":5,"+1":1,"01":3}`, wantID: 1, wantKeys: []string{"+1", "01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Map iteration order varies, so repeat to catch order-dependent results.
			for i := 0; i < 50; i++ {
				var got Responses
				err := json.Unmarshal([]byte(tt.input), &got)

				var duplicate *DuplicateQuestionError
				require.True(t, errors.As(err, &duplicate), "got %T: %v", err, err)
				assert.Equal(t, tt.wantID, duplicate.QuestionID)
				assert.Equal(t, tt.wantKeys, duplicate.Keys)
				assert.Nil(t, got)
			}
		})
	}
}

func TestResponsesRejectsNonCanonicalKey(t *testing.T) {
	for _, input := range []string{`{"+4":2}`, `{"007":2}`, `{"-0":2}`} {
		var got Responses
		err := json.Unmarshal([]byte(input), &got)

		var nonCanonical *NonCanonicalKeyError
		require.True(t, errors.As(err, &nonCanonical), "%s: got %T", input, err)
	}

	var got Responses
	require.NoError(t, json.Unmarshal([]byte(`{"0":2,"-3":1}`), &got), "canonical negatives decode; range checks happen later")
	assert.Equal(t, Responses{0: 2, -3: 1}, got)
}

func TestResponsesMarshalRoundTripShape(t *testing.T) {
	data, err := json.Marshal(Responses{2: 5, 10: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"2":5,"10":1}`, string(data))
}

func TestParseAttachmentStyle(t *testing.T) {
	for _, style := range AttachmentStyles {
		got, err := ParseAttachmentStyle(string(style))
		require.NoError(t, err)
		assert.Equal(t, style, got)
	}
	_, err := ParseAttachmentStyle("dismissive")
	assert.Error(t, err)
}

func TestCompletionSeconds(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got := CompletionSeconds(start, start.Add(95*time.Second+600*time.Millisecond))
	require.NotNil(t, got)
	assert.Equal(t, int64(96), *got)

	got = CompletionSeconds(start, start.Add(95*time.Second+400*time.Millisecond))
	require.NotNil(t, got)
	assert.Equal(t, int64(95), *got)

	assert.Nil(t, CompletionSeconds(time.Time{}, start))
}

func TestSessionOutcome(t *testing.T) {
	s := &Session{ID: "abc", StartedAt: time.Now()}
	assert.False(t, s.IsComplete())
	assert.Nil(t, s.Outcome())

	done := s.StartedAt.Add(time.Minute)
	secs := int64(60)
	s.CompletedAt = &done
	s.CompletionTime = &secs
	s.Result = &Result{
		SubscaleScores: SubscaleScores{Anxiety: 5, Avoidance: 1, Disorganization: 1, Secure: 5},
		Classification: Classification{PrimaryStyle: StyleAnxious},
		Flags:          Flags{AttentionCheckPassed: true},
	}

	out := s.Outcome()
	require.NotNil(t, out)
	assert.Equal(t, "abc", out.SessionID)
	assert.Equal(t, StyleAnxious, out.Classification.PrimaryStyle)
	assert.NotNil(t, out.Notes, "notes must serialize as [] rather than null")
	assert.Empty(t, out.Notes)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"notes":[]`)
	assert.Contains(t, string(data), `"completionTime":60`)
}
