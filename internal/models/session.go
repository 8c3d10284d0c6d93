package models

import (
	"math"
	"time"
)

// Session is the persisted record of one questionnaire administration. It is
// created empty, populated once at submission, and read-only afterwards.
type Session struct {
	ID             string     `json:"sessionId"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Responses      Responses  `json:"responses,omitempty"`
	Result         *Result    `json:"result,omitempty"`
	CompletionTime *int64     `json:"completionTime,omitempty"` // seconds
	UserAgent      string     `json:"userAgent,omitempty"`
	IPAddress      string     `json:"ipAddress,omitempty"`
}

// IsComplete reports whether the session has been scored.
func (s *Session) IsComplete() bool {
	return s.CompletedAt != nil && s.Result != nil
}

// Outcome is the caller-facing record returned after submission and by result lookups.
type Outcome struct {
	SessionID      string         `json:"sessionId"`
	SubscaleScores SubscaleScores `json:"subscaleScores"`
	Classification Classification `json:"classification"`
	Flags          Flags          `json:"flags"`
	Notes          []string       `json:"notes"`
	CompletedAt    *time.Time     `json:"completedAt"`
	CompletionTime *int64         `json:"completionTime"`
}

// Outcome builds the output record of a completed session. It returns nil when
// the session has not been scored.
func (s *Session) Outcome() *Outcome {
	if !s.IsComplete() {
		return nil
	}
	notes := s.Result.Notes
	if notes == nil {
		notes = []string{}
	}
	return &Outcome{
		SessionID:      s.ID,
		SubscaleScores: s.Result.SubscaleScores,
		Classification: s.Result.Classification,
		Flags:          s.Result.Flags,
		Notes:          notes,
		CompletedAt:    s.CompletedAt,
		CompletionTime: s.CompletionTime,
	}
}

// CompletionSeconds is the elapsed time between start and end rounded to the
// nearest whole second. It returns nil when either time is unset.
func CompletionSeconds(start, end time.Time) *int64 {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	secs := int64(math.Round(end.Sub(start).Seconds()))
	return &secs
}

// StyleStats aggregates completed sessions sharing a primary style.
type StyleStats struct {
	Style             AttachmentStyle `json:"style"`
	Count             int             `json:"count"`
	AvgCompletionTime *float64        `json:"avgCompletionTime"`
}

// Stats is the per-style breakdown over all completed sessions.
type Stats struct {
	Styles []StyleStats `json:"statistics"`
	Total  int          `json:"totalAssessments"`
}
