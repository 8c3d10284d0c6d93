package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/harrison/attune/internal/models"
)

// row is the storage-neutral shape both stores scan into.
type row struct {
	id             string
	startedAt      time.Time
	completedAt    *time.Time
	responses      []byte
	result         []byte
	completionTime sql.NullInt64
	userAgent      sql.NullString
	ipAddress      sql.NullString
}

func (r row) session() (*models.Session, error) {
	s := &models.Session{
		ID:          r.id,
		StartedAt:   r.startedAt,
		CompletedAt: r.completedAt,
		UserAgent:   r.userAgent.String,
		IPAddress:   r.ipAddress.String,
	}
	if r.completionTime.Valid {
		secs := r.completionTime.Int64
		s.CompletionTime = &secs
	}
	if len(r.responses) > 0 {
		if err := json.Unmarshal(r.responses, &s.Responses); err != nil {
			return nil, fmt.Errorf("decode responses for session %s: %w", r.id, err)
		}
	}
	if len(r.result) > 0 {
		var result models.Result
		if err := json.Unmarshal(r.result, &result); err != nil {
			return nil, fmt.Errorf("decode result for session %s: %w", r.id, err)
		}
		s.Result = &result
	}
	return s, nil
}

func encodeCompletion(c Completion) (responses, result []byte, err error) {
	if c.Result == nil {
		return nil, nil, fmt.Errorf("complete session %s: result is required", c.SessionID)
	}
	if responses, err = json.Marshal(c.Responses); err != nil {
		return nil, nil, fmt.Errorf("encode responses: %w", err)
	}
	if result, err = json.Marshal(c.Result); err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return responses, result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// styleRow is one GROUP BY primary_style line.
type styleRow struct {
	style string
	count int
	avg   sql.NullFloat64
}

// buildStats orders styles by descending count, then name, and totals them.
func buildStats(rows []styleRow) (*models.Stats, error) {
	stats := &models.Stats{Styles: []models.StyleStats{}}
	for _, r := range rows {
		style, err := models.ParseAttachmentStyle(r.style)
		if err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
		entry := models.StyleStats{Style: style, Count: r.count}
		if r.avg.Valid {
			avg := r.avg.Float64
			entry.AvgCompletionTime = &avg
		}
		stats.Styles = append(stats.Styles, entry)
		stats.Total += r.count
	}
	sort.SliceStable(stats.Styles, func(i, j int) bool {
		if stats.Styles[i].Count != stats.Styles[j].Count {
			return stats.Styles[i].Count > stats.Styles[j].Count
		}
		return stats.Styles[i].Style < stats.Styles[j].Style
	})
	return stats, nil
}
