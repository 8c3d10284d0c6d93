package questionnaire

import (
	"fmt"
	"sort"
	"strings"
)

// validate applies defaults and checks the definition for internal consistency.
// The first problem found is returned as a *ConfigurationError.
func validate(def *definition) error {
	if strings.TrimSpace(def.Name) == "" {
		def.Name = "custom"
	}
	if def.QuestionsPerPage == 0 {
		def.QuestionsPerPage = DefaultQuestionsPerPage
	}
	if def.QuestionsPerPage < 0 {
		return newConfigError("questions_per_page", "must be > 0, got %d", def.QuestionsPerPage)
	}
	if def.ClassificationBoundary == nil {
		b := DefaultClassificationBoundary
		def.ClassificationBoundary = &b
	}

	if err := validateResponseOptions(def); err != nil {
		return err
	}
	if err := validateQuestions(def); err != nil {
		return err
	}
	if err := validateSubscales(def); err != nil {
		return err
	}
	if err := validateAttentionCheck(def); err != nil {
		return err
	}

	lo := float64(def.ResponseOptions[0].Value)
	hi := float64(def.ResponseOptions[len(def.ResponseOptions)-1].Value)
	if d := def.Thresholds.Disorganization; d < lo || d > hi {
		return newConfigError("thresholds.disorganization", "%.2f is outside the rating scale [%g, %g]", d, lo, hi)
	}
	if b := *def.ClassificationBoundary; b < lo || b > hi {
		return newConfigError("classification_boundary", "%.2f is outside the rating scale [%g, %g]", b, lo, hi)
	}
	return nil
}

func validateResponseOptions(def *definition) error {
	opts := def.ResponseOptions
	if len(opts) < 2 {
		return newConfigError("response_options", "at least two options are required, got %d", len(opts))
	}
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Value < opts[j].Value })
	for i, opt := range opts {
		if strings.TrimSpace(opt.Label) == "" {
			return newConfigError(fmt.Sprintf("response_options[%d]", i), "value %d has no label", opt.Value)
		}
		if i > 0 && opt.Value != opts[i-1].Value+1 {
			return newConfigError("response_options", "values must be contiguous integers, found %d after %d", opt.Value, opts[i-1].Value)
		}
	}
	return nil
}

// validateQuestions checks that ids are exactly 1..N with no duplicates.
func validateQuestions(def *definition) error {
	n := len(def.Questions)
	if n == 0 {
		return newConfigError("questions", "no questions defined")
	}
	seen := make(map[int]bool, n)
	for i, q := range def.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if q.ID < 1 || q.ID > n {
			return newConfigError(field, "id %d is outside [1, %d]", q.ID, n)
		}
		if seen[q.ID] {
			return newConfigError(field, "duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
		if !q.Subscale.valid() {
			return newConfigError(field, "question %d has unknown subscale %q", q.ID, q.Subscale)
		}
		if strings.TrimSpace(q.Text) == "" {
			return newConfigError(field, "question %d has no text", q.ID)
		}
	}
	return nil
}

// validateSubscales checks that the four scored ranges exist, lie within the
// question ids, do not overlap, and agree with each question's own subscale.
func validateSubscales(def *definition) error {
	n := len(def.Questions)
	for key := range def.Subscales {
		if !SubscaleKind(key).IsScored() {
			return newConfigError("subscales."+key, "not a scored subscale")
		}
	}

	for _, kind := range ScoredSubscales {
		field := "subscales." + string(kind)
		r, ok := def.Subscales[string(kind)]
		if !ok {
			return newConfigError(field, "range is missing")
		}
		if strings.TrimSpace(r.Name) == "" {
			return newConfigError(field, "display name is missing")
		}
		if r.Start > r.End {
			return newConfigError(field, "start %d is after end %d", r.Start, r.End)
		}
		if r.Start < 1 || r.End > n {
			return newConfigError(field, "range [%d, %d] is outside question ids [1, %d]", r.Start, r.End, n)
		}
	}

	for i, a := range ScoredSubscales {
		ra := def.Subscales[string(a)]
		for _, b := range ScoredSubscales[i+1:] {
			rb := def.Subscales[string(b)]
			if ra.Start <= rb.End && rb.Start <= ra.End {
				return newConfigError("subscales."+string(a), "range [%d, %d] overlaps %s [%d, %d]", ra.Start, ra.End, b, rb.Start, rb.End)
			}
		}
	}

	for i, q := range def.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		for _, kind := range ScoredSubscales {
			r := def.Subscales[string(kind)]
			if r.Contains(q.ID) && q.Subscale != kind {
				return newConfigError(field, "question %d lies in the %s range but is tagged %q", q.ID, kind, q.Subscale)
			}
		}
		if q.Subscale.IsScored() && !def.Subscales[string(q.Subscale)].Contains(q.ID) {
			return newConfigError(field, "question %d is tagged %q but lies outside its range", q.ID, q.Subscale)
		}
	}
	return nil
}

func validateAttentionCheck(def *definition) error {
	ac := def.AttentionCheck
	if ac == nil {
		return newConfigError("attention_check", "is missing")
	}
	var found *Question
	for i := range def.Questions {
		if def.Questions[i].ID == ac.QuestionID {
			found = &def.Questions[i]
			break
		}
	}
	if found == nil {
		return newConfigError("attention_check.question_id", "question %d does not exist", ac.QuestionID)
	}
	if found.Subscale != Attention {
		return newConfigError("attention_check.question_id", "question %d is tagged %q, want %q", ac.QuestionID, found.Subscale, Attention)
	}
	for _, opt := range def.ResponseOptions {
		if opt.Value == ac.ExpectedAnswer {
			return nil
		}
	}
	return newConfigError("attention_check.expected_answer", "%d is not a response option value", ac.ExpectedAnswer)
}
