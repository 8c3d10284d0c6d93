package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/attune/internal/models"
)

// SQLiteStore keeps sessions in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and applies
// pending migrations. ":memory:" gives a private in-process database.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and keeps a :memory: database alive.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(ctx, db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry retries statements that fail with "database is locked", backing
// off exponentially from baseDelay.
func execWithRetry(ctx context.Context, db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.ExecContext(ctx, stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create inserts a new, unscored session.
func (s *SQLiteStore) Create(ctx context.Context, sess *models.Session) error {
	query := `
INSERT INTO sessions (session_id, started_at, user_agent, ip_address)
VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID,
		formatTime(sess.StartedAt),
		nullString(sess.UserAgent),
		nullString(sess.IPAddress),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

// Get loads a session by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
SELECT session_id, started_at, completed_at, responses, result, completion_time, user_agent, ip_address
FROM sessions WHERE session_id = ?`

	var (
		r           row
		startedAt   string
		completedAt sql.NullString
		responses   sql.NullString
		result      sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.id, &startedAt, &completedAt, &responses, &result,
		&r.completionTime, &r.userAgent, &r.ipAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	if r.startedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("session %s started_at: %w", id, err)
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("session %s completed_at: %w", id, err)
		}
		r.completedAt = &t
	}
	if responses.Valid {
		r.responses = []byte(responses.String)
	}
	if result.Valid {
		r.result = []byte(result.String)
	}
	return r.session()
}

// Complete writes the result in one conditional UPDATE guarded by
// completed_at IS NULL.
func (s *SQLiteStore) Complete(ctx context.Context, c Completion) error {
	responses, result, err := encodeCompletion(c)
	if err != nil {
		return err
	}

	query := `
UPDATE sessions SET
    completed_at = ?,
    responses = ?,
    result = ?,
    primary_style = ?,
    completion_time = ?,
    user_agent = COALESCE(?, user_agent),
    ip_address = COALESCE(?, ip_address)
WHERE session_id = ? AND completed_at IS NULL`

	res, err := s.db.ExecContext(ctx, query,
		formatTime(c.CompletedAt),
		string(responses),
		string(result),
		string(c.Result.Classification.PrimaryStyle),
		nullInt(c.CompletionTime),
		nullString(c.UserAgent),
		nullString(c.IPAddress),
		c.SessionID,
	)
	if err != nil {
		return fmt.Errorf("complete session %s: %w", c.SessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete session %s: %w", c.SessionID, err)
	}
	if n == 1 {
		return nil
	}
	return resolveMissedCompletion(ctx, s.db, existsQuerySQLite, c.SessionID)
}

// Stats groups completed sessions by primary style.
func (s *SQLiteStore) Stats(ctx context.Context) (*models.Stats, error) {
	query := `
SELECT primary_style, COUNT(*), AVG(completion_time)
FROM sessions
WHERE completed_at IS NOT NULL
GROUP BY primary_style`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var grouped []styleRow
	for rows.Next() {
		var r styleRow
		if err := rows.Scan(&r.style, &r.count, &r.avg); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		grouped = append(grouped, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return buildStats(grouped)
}

// Timestamps are stored as UTC RFC3339Nano text so they sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
