package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/attune/internal/logger"
	"github.com/harrison/attune/internal/models"
	"github.com/harrison/attune/internal/scoring"
)

// Metadata is optional client information recorded with a session.
type Metadata struct {
	UserAgent string
	IPAddress string
}

// Service creates sessions, scores submissions and serves results.
type Service struct {
	store  Store
	engine *scoring.Engine
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the random UUID session ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService wires a store to a scoring engine.
func NewService(store Store, engine *scoring.Engine, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: engine,
		logger: logger.Nop(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the scoring engine submissions are evaluated with.
func (s *Service) Engine() *scoring.Engine {
	return s.engine
}

// CreateSession starts a new unscored session.
func (s *Service) CreateSession(ctx context.Context, meta Metadata) (*models.Session, error) {
	sess := &models.Session{
		ID:        s.newID(),
		StartedAt: s.now().UTC(),
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.LogDebug(fmt.Sprintf("Session %s created", sess.ID))
	return sess, nil
}

// Submit scores responses for an open session. Validation failures
// (*scoring.IncompleteResponseError, *scoring.InvalidResponseValueError) leave
// the session untouched. Non-empty metadata replaces what was recorded at
// creation.
func (s *Service) Submit(ctx context.Context, id string, responses models.Responses, meta Metadata) (*models.Outcome, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.IsComplete() {
		return nil, &AlreadyCompletedError{ID: id}
	}

	result, err := s.engine.Evaluate(responses)
	if err != nil {
		s.logger.LogDebug(fmt.Sprintf("Session %s rejected submission: %v", id, err))
		return nil, err
	}

	completedAt := s.now().UTC()
	completion := Completion{
		SessionID:      id,
		Responses:      responses.Clone(),
		Result:         result,
		CompletedAt:    completedAt,
		CompletionTime: models.CompletionSeconds(sess.StartedAt, completedAt),
		UserAgent:      meta.UserAgent,
		IPAddress:      meta.IPAddress,
	}
	if err := s.store.Complete(ctx, completion); err != nil {
		return nil, err
	}

	sess.CompletedAt = &completedAt
	sess.Responses = completion.Responses
	sess.Result = result
	sess.CompletionTime = completion.CompletionTime
	outcome := sess.Outcome()
	s.logger.LogOutcome(*outcome)
	return outcome, nil
}

// Results returns the outcome of a completed session.
func (s *Service) Results(ctx context.Context, id string) (*models.Outcome, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.IsComplete() {
		return nil, &NotCompletedError{ID: id}
	}
	return sess.Outcome(), nil
}

// Session returns the stored session, complete or not.
func (s *Service) Session(ctx context.Context, id string) (*models.Session, error) {
	return s.store.Get(ctx, id)
}

// Stats returns per-style counts and mean completion time.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	return s.store.Stats(ctx)
}
