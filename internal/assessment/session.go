package assessment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one run of an assessment: the assessment, its answers and the
// flow over them. A new session replaces the previous one; nothing is shared
// between runs.
type Session struct {
	ID         string
	TypeKey    string
	Assessment *Assessment
	Store      *Store
	Flow       *Flow
	StartedAt  time.Time

	logger *zap.Logger
	closed bool
}

// NewSession validates a and starts a fresh run over it.
func NewSession(typeKey string, a *Assessment, logger *zap.Logger) (*Session, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("cannot start assessment %q: %w", typeKey, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store := NewStore(len(a.Questions))
	s := &Session{
		ID:         uuid.NewString(),
		TypeKey:    typeKey,
		Assessment: a,
		Store:      store,
		Flow:       NewFlow(a, store),
		StartedAt:  time.Now(),
	}
	s.logger = logger.With(zap.String("session", s.ID), zap.String("assessment", typeKey))
	s.logger.Info("assessment started",
		zap.Int("questions", len(a.Questions)),
		zap.Int("contextual_questions", len(a.ContextualQuestions)))
	return s, nil
}

// Advance forwards to the flow and logs phase changes.
func (s *Session) Advance() (Step, error) {
	step, err := s.Flow.Advance()
	if err != nil {
		s.logger.Debug("advance blocked", zap.Error(err), zap.Int("index", s.Flow.Index()))
		return step, err
	}
	switch step {
	case StepPhaseSwitched:
		s.logger.Info("switched to contextual questions")
	case StepSubmit:
		s.logger.Info("assessment ready to submit")
	}
	return step, nil
}

// Close disposes the session. Later calls are no-ops.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Info("assessment closed",
		zap.Stringer("status", s.Flow.Status()),
		zap.Duration("elapsed", time.Since(s.StartedAt)))
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed }
