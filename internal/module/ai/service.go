package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/config"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/metrics"
	"github.com/noteshare/server/internal/utils/pagination"
)

const maxPromptLength = 4000

// Service handles text generation. Provider calls go through a circuit
// breaker; a tripped breaker rejects generations without burning the user's
// credits, since the effect fails before the debit phase.
type Service struct {
	repo       Repository
	completer  Completer
	breaker    *gobreaker.CircuitBreaker[*Completion]
	dispatcher *workflow.Dispatcher
	model      string
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewService creates a new AI service.
func NewService(
	repo Repository,
	completer Completer,
	dispatcher *workflow.Dispatcher,
	cfg *config.AIConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	failureThreshold := cfg.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 5
	}

	s := &Service{
		repo:       repo,
		completer:  completer,
		dispatcher: dispatcher,
		model:      cfg.Model,
		log:        log,
		metrics:    m,
	}

	settings := gobreaker.Settings{
		Name:        "ai-provider",
		MaxRequests: 1,
		Timeout:     cfg.CircuitTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.WarnContext(context.Background(), "provider circuit state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if s.metrics != nil {
				s.metrics.SetProviderHealth(s.model, to == gobreaker.StateClosed)
			}
		},
	}
	s.breaker = gobreaker.NewCircuitBreaker[*Completion](settings)

	return s
}

// Generate produces a completion for the prompt, charging the generation
// cost. The provider call and the stored record are the effect; if the debit
// then loses the balance race the record is removed, though the provider
// tokens are already spent.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, prompt string) (*Generation, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if len(prompt) > maxPromptLength {
		// Cut on a rune boundary so the truncated prompt stays valid UTF-8.
		cut := maxPromptLength
		for cut > 0 && !utf8.RuneStart(prompt[cut]) {
			cut--
		}
		prompt = prompt[:cut]
	}

	var created *Generation
	effect := workflow.Effect{
		Run: func(ctx context.Context) (uuid.UUID, error) {
			completion, err := s.complete(ctx, prompt)
			if err != nil {
				return uuid.Nil, err
			}

			gen := &Generation{
				ID:               uuid.New(),
				UserID:           userID,
				Prompt:           prompt,
				Content:          completion.Content,
				Model:            completion.Model,
				PromptTokens:     completion.PromptTokens,
				CompletionTokens: completion.CompletionTokens,
			}
			if err := s.repo.Create(ctx, gen); err != nil {
				return uuid.Nil, fmt.Errorf("store generation: %w", err)
			}

			created = gen
			return gen.ID, nil
		},
		Compensate: func(ctx context.Context) error {
			return s.repo.Delete(ctx, created.ID)
		},
	}

	if _, err := s.dispatcher.Invoke(ctx, userID, credits.ActionAIGenerate, effect); err != nil {
		return nil, err
	}

	return created, nil
}

// GetGeneration retrieves one of the user's generations.
func (s *Service) GetGeneration(ctx context.Context, userID, id uuid.UUID) (*Generation, error) {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.UserID != userID {
		return nil, ErrGenerationNotFound
	}
	return gen, nil
}

// ListGenerations lists the user's generations, newest first.
func (s *Service) ListGenerations(ctx context.Context, userID uuid.UUID, p *pagination.Pagination) ([]Generation, int64, error) {
	return s.repo.ListByUser(ctx, userID, p.Offset(), p.Limit())
}

// complete runs the provider call through the circuit breaker.
func (s *Service) complete(ctx context.Context, prompt string) (*Completion, error) {
	start := time.Now()

	completion, err := s.breaker.Execute(func() (*Completion, error) {
		return s.completer.Complete(ctx, prompt)
	})

	status := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "circuit_open"
		err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	case err != nil:
		status = "error"
	}

	if s.metrics != nil {
		s.metrics.RecordAIRequest(s.model, status, time.Since(start))
	}

	if err != nil {
		s.log.ErrorContext(ctx, "provider request failed",
			"model", s.model,
			"status", status,
			"error", err,
		)
		return nil, err
	}

	return completion, nil
}
