// Package chat runs the prompt submission pipeline for a user session:
// record the prompt, gate or estimate it, record the assistant reply and
// feed the outcome to the gamification engine.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenpoint-eco/greenpoint/internal/app/engagement"
	"github.com/greenpoint-eco/greenpoint/internal/app/validation"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
	"github.com/greenpoint-eco/greenpoint/internal/infra/observability"
)

// Estimator scores a prompt. Implemented by energy.Estimator.
type Estimator interface {
	Estimate(ctx context.Context, prompt string) domain.Evaluation
}

// Engine applies outcomes. Implemented by engagement.Engine.
type Engine interface {
	ProcessOutcome(ctx context.Context, userID string, o domain.Outcome) (engagement.Result, error)
}

// Teams adjusts team scores. Implemented by leaderboard.Service.
type Teams interface {
	AdjustScore(ctx context.Context, id string, delta int) (domain.Team, error)
}

// SubmitResult is everything one submission produced.
type SubmitResult struct {
	UserMessage      domain.ChatMessage      `json:"userMessage"`
	AssistantMessage domain.ChatMessage      `json:"assistantMessage"`
	Metrics          domain.EnergyMetrics    `json:"metrics"`
	Validation       domain.ValidationResult `json:"validation"`
	Evaluation       domain.Classification   `json:"evaluation"`
	Source           domain.EvaluationSource `json:"source"`
	Blocked          bool                    `json:"blocked"`
	BlockReason      string                  `json:"blockReason,omitempty"`
	Engagement       engagement.Result       `json:"engagement"`
}

// EvaluateResult is the team-scoped evaluation answer.
type EvaluateResult struct {
	Success         bool                    `json:"success"`
	Evaluation      domain.Classification   `json:"evaluation"`
	TeamUpdate      domain.TeamScoreChanged `json:"teamUpdate"`
	TeamUpdateError string                  `json:"teamUpdateError,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the message timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service runs submissions.
type Service struct {
	store     domain.Store
	estimator Estimator
	engine    Engine
	teams     Teams
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
	locks     sync.Map // user id → *sync.Mutex
}

// New creates a chat service.
func New(store domain.Store, estimator Estimator, engine Engine, teams Teams, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		estimator: estimator,
		engine:    engine,
		teams:     teams,
		log:       logger.OrNop(log).Component("chat"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Submit processes one prompt for userID. Submissions for the same user
// are serialized.
func (s *Service) Submit(ctx context.Context, userID, prompt string) (SubmitResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return SubmitResult{}, domain.ErrEmptyPrompt
	}

	unlock := s.lock(userID)
	defer unlock()

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return SubmitResult{}, err
	}

	res := SubmitResult{
		UserMessage: domain.ChatMessage{
			ID:        s.newID(),
			Role:      domain.RoleUser,
			Content:   prompt,
			Timestamp: s.now().UTC(),
		},
		Validation: validation.Validate(prompt),
	}
	if err := s.store.AppendMessage(ctx, userID, res.UserMessage); err != nil {
		return SubmitResult{}, fmt.Errorf("save prompt: %w", err)
	}

	var ev domain.Evaluation
	if b, blocked := validation.Gate(prompt); blocked {
		ev = blockedEvaluation(b)
		res.Blocked = true
		res.BlockReason = string(b.Reason)
		observability.PromptsBlocked.WithLabelValues(string(b.Reason)).Inc()
		observability.PromptsEvaluated.WithLabelValues(string(ev.Metrics.Efficiency), string(ev.Source)).Inc()
		s.log.Debug("prompt blocked", "user", userID, "reason", b.Reason)
	} else {
		ev = s.estimator.Estimate(ctx, prompt)
	}

	metrics := ev.Metrics
	res.Metrics = metrics
	res.Evaluation = ev.Classification
	res.Source = ev.Source
	res.AssistantMessage = domain.ChatMessage{
		ID:        s.newID(),
		Role:      domain.RoleAssistant,
		Content:   ev.Classification.Response,
		Timestamp: s.now().UTC(),
		Metrics:   &metrics,
	}
	if err := s.store.AppendMessage(ctx, userID, res.AssistantMessage); err != nil {
		return SubmitResult{}, fmt.Errorf("save reply: %w", err)
	}

	eng, err := s.engine.ProcessOutcome(ctx, userID, domain.Outcome{
		Metrics:        metrics,
		EcoResponsible: ev.Classification.IsEcoResponsible,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("apply outcome: %w", err)
	}
	res.Engagement = eng
	return res, nil
}

func blockedEvaluation(b validation.Block) domain.Evaluation {
	return domain.Evaluation{
		Metrics: b.Metrics,
		Classification: domain.Classification{
			IsEcoResponsible: false,
			Score:            100 - b.Metrics.Usage,
			Explanation:      b.Validation.Message,
			Response:         b.Response,
		},
		Source: domain.SourceGate,
	}
}

// History returns the user's messages, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, userID)
}

// Reset clears the user's history.
func (s *Service) Reset(ctx context.Context, userID string) error {
	unlock := s.lock(userID)
	defer unlock()

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.store.ClearMessages(ctx, userID)
}

// Evaluate scores prompt and moves teamID's score by the eco bonus or cost.
// A team failure is reported in TeamUpdateError; the evaluation still succeeds.
func (s *Service) Evaluate(ctx context.Context, prompt, teamID string) (EvaluateResult, error) {
	if strings.TrimSpace(prompt) == "" || strings.TrimSpace(teamID) == "" {
		return EvaluateResult{}, fmt.Errorf("prompt and teamId: %w", domain.ErrMissingField)
	}

	ev := s.estimator.Estimate(ctx, prompt)
	delta := domain.TeamDelta(ev.Classification.IsEcoResponsible)
	res := EvaluateResult{
		Success:    true,
		Evaluation: ev.Classification,
		TeamUpdate: domain.TeamScoreChanged{TeamID: teamID, PointChange: delta},
	}

	team, err := s.teams.AdjustScore(ctx, teamID, delta)
	if err != nil {
		s.log.Warn("team score update failed", "team", teamID, "error", err)
		res.TeamUpdateError = err.Error()
		return res, nil
	}
	res.TeamUpdate.NewScore = team.Score
	return res, nil
}
