// Package session persists assessment sessions and orchestrates submissions.
//
// A session is created unscored, then completed exactly once: the responses,
// result and completion timestamps are written together by a single conditional
// update, so readers never see a half-scored session and a second submission
// loses with *AlreadyCompletedError.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/attune/internal/models"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Drivers lists the accepted driver names.
var Drivers = []string{DriverSQLite, DriverPostgres}

// Store is the persistence boundary for sessions.
type Store interface {
	// Create inserts a new, unscored session.
	Create(ctx context.Context, s *models.Session) error
	// Get loads a session or returns *NotFoundError.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Complete scores a session atomically. It returns *NotFoundError for an
	// unknown id and *AlreadyCompletedError when the session was completed first.
	Complete(ctx context.Context, c Completion) error
	// Stats aggregates completed sessions by primary style.
	Stats(ctx context.Context) (*models.Stats, error)
	Close() error
}

// Completion carries everything written when a session is scored.
type Completion struct {
	SessionID      string
	Responses      models.Responses
	Result         *models.Result
	CompletedAt    time.Time
	CompletionTime *int64
	UserAgent      string
	IPAddress      string
}

// Open connects to the named driver and brings its schema up to date.
// For sqlite the dsn is a file path or ":memory:".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3":
		return NewSQLiteStore(ctx, dsn)
	case DriverPostgres, "postgresql":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (want one of %s)", driver, strings.Join(Drivers, ", "))
	}
}

// IsValidDriver reports whether Open accepts driver.
func IsValidDriver(driver string) bool {
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3", DriverPostgres, "postgresql":
		return true
	}
	return false
}

// Existence lookups for resolveMissedCompletion, one per placeholder style.
const (
	existsQuerySQLite   = `SELECT 1 FROM sessions WHERE session_id = ?`
	existsQueryPostgres = `SELECT 1 FROM sessions WHERE session_id = $1`
)

// resolveMissedCompletion explains a Complete whose conditional update touched
// no rows: the session is either unknown or was completed first. existsQuery
// selects a row by session id in the driver's placeholder style.
func resolveMissedCompletion(ctx context.Context, db *sql.DB, existsQuery, id string) error {
	var exists int
	err := db.QueryRowContext(ctx, existsQuery, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("complete session %s: %w", id, err)
	}
	return &AlreadyCompletedError{ID: id}
}
