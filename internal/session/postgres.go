package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/harrison/attune/internal/models"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

const (
	pingAttempts = 10
	pingDelay    = 500 * time.Millisecond
)

// PostgresStore keeps sessions in PostgreSQL through lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn, waiting for the server to accept
// connections, and runs the embedded migrations. dsn must be a
// postgres:// URL.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: database URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pingWithRetry(ctx, db, pingAttempts, pingDelay); err != nil {
		db.Close()
		return nil, err
	}
	if err := migratePostgres(dsn); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}

func migratePostgres(dsn string) error {
	src, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Create inserts a new, unscored session.
func (s *PostgresStore) Create(ctx context.Context, sess *models.Session) error {
	query := `
INSERT INTO sessions (session_id, started_at, user_agent, ip_address)
VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.StartedAt.UTC(), nullString(sess.UserAgent), nullString(sess.IPAddress)); err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

// Get loads a session by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `
SELECT session_id, started_at, completed_at, responses, result, completion_time, user_agent, ip_address
FROM sessions WHERE session_id = $1`

	var (
		r           row
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.id, &r.startedAt, &completedAt, &r.responses, &r.result,
		&r.completionTime, &r.userAgent, &r.ipAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.completedAt = &t
	}
	return r.session()
}

// Complete writes the result in one conditional UPDATE guarded by
// completed_at IS NULL.
func (s *PostgresStore) Complete(ctx context.Context, c Completion) error {
	responses, result, err := encodeCompletion(c)
	if err != nil {
		return err
	}

	query := `
UPDATE sessions SET
    completed_at = $1,
    responses = $2,
    result = $3,
    primary_style = $4,
    completion_time = $5,
    user_agent = COALESCE($6, user_agent),
    ip_address = COALESCE($7, ip_address)
WHERE session_id = $8 AND completed_at IS NULL`

	res, err := s.db.ExecContext(ctx, query,
		c.CompletedAt.UTC(),
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
	return resolveMissedCompletion(ctx, s.db, existsQueryPostgres, c.SessionID)
}

// Stats groups completed sessions by primary style.
func (s *PostgresStore) Stats(ctx context.Context) (*models.Stats, error) {
	query := `
SELECT primary_style, COUNT(*), AVG(completion_time)::DOUBLE PRECISION
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
