// Package advisor shapes requests to a chat-completion model and parses its
// JSON answers into typed food, diet and plan responses.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trimtrack/internal/domain"

	"github.com/google/uuid"
)

// Completer sends one chat request and returns the raw text of the answer.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Config configures the production completer.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// Outcomes passed to the observer.
const (
	OutcomeOK        = "ok"
	OutcomeMock      = "mock"
	OutcomeMalformed = "malformed"
	OutcomeTransport = "transport"
	OutcomeError     = "error"
)

// Advisor runs the advisory variants. With no completer it answers from
// deterministic mocks of the same shape.
type Advisor struct {
	completer   Completer
	model       string
	temperature float64
	maxTokens   int
	now         func() time.Time
	newID       func() string
	observe     func(variant, outcome string)
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithCompleter replaces the completer, typically with a fake in tests.
func WithCompleter(c Completer) Option {
	return func(a *Advisor) { a.completer = c }
}

// WithClock sets the time source used to stamp responses.
func WithClock(now func() time.Time) Option {
	return func(a *Advisor) { a.now = now }
}

// WithIDGenerator sets the id source for plans and exercises.
func WithIDGenerator(newID func() string) Option {
	return func(a *Advisor) { a.newID = newID }
}

// WithObserver registers a callback invoked once per call with its variant
// and outcome.
func WithObserver(fn func(variant, outcome string)) Option {
	return func(a *Advisor) { a.observe = fn }
}

// New builds an Advisor. When cfg.APIKey is not configured the advisor
// serves mocks.
func New(cfg Config, opts ...Option) *Advisor {
	a := &Advisor{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		now:         time.Now,
		newID:       uuid.NewString,
		observe:     func(string, string) {},
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if a.temperature == 0 {
		a.temperature = 0.3
	}
	if a.maxTokens == 0 {
		a.maxTokens = 2000
	}
	if Configured(cfg.APIKey) {
		a.completer = NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mocked reports whether answers come from the mock generator.
func (a *Advisor) Mocked() bool {
	return a.completer == nil
}

type variant struct {
	name     string
	system   string
	required []string
}

var (
	foodVariant = variant{name: "food", system: foodSystemPrompt, required: []string{"foods", "nutrition"}}
	dietVariant = variant{name: "diet", system: dietSystemPrompt, required: []string{"summary", "recommendations"}}
	planVariant = variant{name: "plan", system: planSystemPrompt, required: []string{"plan", "exercises"}}
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrMalformedAIResponse):
		return OutcomeMalformed
	case errors.Is(err, domain.ErrTransport):
		return OutcomeTransport
	default:
		return OutcomeError
	}
}

// run performs one completion for v and decodes it into dst.
func (a *Advisor) run(ctx context.Context, v variant, prompt string, dst any) error {
	raw, err := a.completer.Complete(ctx, ChatRequest{
		Model: a.model,
		Messages: []ChatMessage{
			{Role: "system", Content: v.system},
			{Role: "user", Content: prompt},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err == nil {
		err = decodeStrict(raw, v.required, dst)
	}
	a.observe(v.name, outcomeOf(err))
	if err != nil {
		return fmt.Errorf("%s advice: %w", v.name, err)
	}
	return nil
}

// AnalyzeFood estimates calories and nutrition for a free-text meal.
func (a *Advisor) AnalyzeFood(ctx context.Context, input string) (*FoodAnalysis, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: food description is empty", domain.ErrInvalidValue)
	}
	if a.Mocked() {
		a.observe(foodVariant.name, OutcomeMock)
		return mockFood(input), nil
	}

	var out FoodAnalysis
	if err := a.run(ctx, foodVariant, foodPrompt(input), &out); err != nil {
		return nil, err
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return &out, nil
}

// DietSuggestions proposes what to eat for the rest of the day. The answer is
// stamped with the generation time and the requesting user.
func (a *Advisor) DietSuggestions(ctx context.Context, req DietRequest) (*DietAdvice, error) {
	metrics := domain.ComputeHealthMetrics(&req.Profile, req.CurrentWeight)
	now := a.now()

	var out *DietAdvice
	if a.Mocked() {
		a.observe(dietVariant.name, OutcomeMock)
		out = mockDiet(req, metrics, now)
	} else {
		out = &DietAdvice{}
		if err := a.run(ctx, dietVariant, dietPrompt(req, metrics), out); err != nil {
			return nil, err
		}
	}
	out.GeneratedAt = now.UTC().Format(time.RFC3339)
	out.UserID = req.UserID
	return out, nil
}

// WeightLossPlan builds a plan with milestones and exercises. Health metrics
// are always computed locally and attached to the answer.
func (a *Advisor) WeightLossPlan(ctx context.Context, req PlanRequest) (*PlanAnalysis, error) {
	metrics := domain.ComputeHealthMetrics(&req.Profile, req.CurrentWeight)
	now := a.now()

	var out *PlanAnalysis
	if a.Mocked() {
		a.observe(planVariant.name, OutcomeMock)
		out = mockPlan(req, metrics, now)
	} else {
		out = &PlanAnalysis{}
		if err := a.run(ctx, planVariant, planPrompt(req, metrics), out); err != nil {
			return nil, err
		}
	}

	if out.Plan.ID == "" {
		out.Plan.ID = a.newID()
	}
	if out.Plan.CreatedAt == "" {
		out.Plan.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	out.Plan.UserID = req.Profile.UserID
	out.Plan.CurrentWeight = req.CurrentWeight
	out.Plan.TargetWeight = req.TargetWeight
	for i := range out.Exercises {
		if out.Exercises[i].ID == "" {
			out.Exercises[i].ID = a.newID()
		}
	}
	out.HealthMetrics = &metrics
	return out, nil
}
