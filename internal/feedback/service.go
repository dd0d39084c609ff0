// Package feedback produces the AI written parts of the tutor: feedback on a
// single step and the evaluation narrative attached to a scored submission.
// The numeric result never depends on the model.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/llm"
	"github.com/jayainhufs/coding-sam/internal/scoring"
)

const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 900

	emptyEvaluationText = "Could not generate the analysis."
	emptyStepText       = "Feedback generation failed."
)

// Config tunes model requests
type Config struct {
	Model       string // empty uses the provider default
	Temperature float64
	MaxTokens   int
}

// EvaluateRequest is a submit-evaluation request
type EvaluateRequest struct {
	Summary         domain.ProfileSummary
	AIRequestCount  int
	HintCount       int
	SolvedThreshold int
}

// EvaluateResponse is the numeric result plus a narrative. Text may be the
// local fallback, in which case Fallback is set.
type EvaluateResponse struct {
	OK              bool            `json:"ok"`
	Text            string          `json:"text"`
	Fallback        bool            `json:"fallback,omitempty"`
	AvgRaw          int             `json:"avgRaw"`
	FinalAvg        int             `json:"finalAvg"`
	Penalty         scoring.Penalty `json:"penalty"`
	SolvedThreshold int             `json:"solvedThreshold"`
	SolvedNow       bool            `json:"solvedNow"`
}

// ProblemRef identifies the problem a step belongs to
type ProblemRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// StepRequest asks for feedback on one step
type StepRequest struct {
	Step      domain.StepKey  `json:"step"`
	UserInput json.RawMessage `json:"userInput,omitempty"`
	Problem   ProblemRef      `json:"problem"`
}

// Service generates feedback and evaluations
type Service struct {
	registry  llm.LLMRegistry
	prompter  *Prompter
	validator *Validator
	cfg       Config
}

// NewService creates a new feedback service. A nil registry always uses the
// local fallback.
func NewService(registry llm.LLMRegistry, cfg Config) *Service {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Service{
		registry:  registry,
		prompter:  NewPrompter(),
		validator: NewValidator(),
		cfg:       cfg,
	}
}

// evaluateWire mirrors the request JSON. Averages may arrive as fractions.
type evaluateWire struct {
	Summary struct {
		Avg         map[domain.StepKey]float64 `json:"avg"`
		Attempts    int                        `json:"attempts"`
		SolvedCount int                        `json:"solvedCount"`
		Weakest     []domain.StepKey           `json:"weakest"`
		Strength    []domain.StepKey           `json:"strength"`
	} `json:"summary"`
	AIRequestCount  *int     `json:"aiRequestCount"`
	HintCount       *int     `json:"hintCount"`
	SolvedThreshold *float64 `json:"solvedThreshold"`
}

// DecodeEvaluateRequest validates and decodes a raw submit-evaluation body.
// Missing counters default to 0 and a missing threshold to 80. A fractional
// threshold is rounded up since final averages are whole numbers.
func (s *Service) DecodeEvaluateRequest(raw []byte) (*EvaluateRequest, error) {
	if err := s.validator.ValidateEvaluate(raw); err != nil {
		return nil, err
	}

	var w evaluateWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	req := &EvaluateRequest{
		Summary: domain.ProfileSummary{
			Avg:         make(map[domain.StepKey]int, len(w.Summary.Avg)),
			Attempts:    w.Summary.Attempts,
			SolvedCount: w.Summary.SolvedCount,
			Weakest:     w.Summary.Weakest,
			Strength:    w.Summary.Strength,
		},
		SolvedThreshold: scoring.DefaultSolvedThreshold,
	}
	for step, v := range w.Summary.Avg {
		req.Summary.Avg[step] = domain.RoundScore(v)
	}
	if w.AIRequestCount != nil {
		req.AIRequestCount = *w.AIRequestCount
	}
	if w.HintCount != nil {
		req.HintCount = *w.HintCount
	}
	if w.SolvedThreshold != nil {
		req.SolvedThreshold = int(math.Ceil(*w.SolvedThreshold))
	}
	return req, nil
}

// DecodeStepRequest validates and decodes a raw step feedback body
func (s *Service) DecodeStepRequest(raw []byte) (*StepRequest, error) {
	if err := s.validator.ValidateStep(raw); err != nil {
		return nil, err
	}
	var req StepRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return &req, nil
}

// Evaluate scores the summary and attaches a narrative. Provider failures
// never fail the call: the local fallback is used instead.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) *EvaluateResponse {
	final := scoring.ComputeFinal(
		domain.StepScores(req.Summary.Avg),
		scoring.Usage{AIRequestCount: req.AIRequestCount, HintCount: req.HintCount},
		req.SolvedThreshold,
	)

	resp := &EvaluateResponse{
		OK:              true,
		AvgRaw:          final.AvgRaw,
		FinalAvg:        final.FinalAvg,
		Penalty:         final.Penalty,
		SolvedThreshold: final.SolvedThreshold,
		SolvedNow:       final.SolvedNow,
	}

	text, err := s.generate(ctx, s.prompter.EvaluationSystemPrompt(), s.prompter.BuildEvaluationPrompt(req.Summary))
	if err != nil {
		slog.Warn("evaluation narrative unavailable, using fallback", "error", err)
		resp.Text = LocalFallback(req.Summary)
		resp.Fallback = true
		return resp
	}
	if text == "" {
		text = emptyEvaluationText
	}
	resp.Text = text
	return resp
}

// StepFeedback asks the model for feedback on one step. It returns
// ErrProviderUnavailable when no answer could be produced.
func (s *Service) StepFeedback(ctx context.Context, req StepRequest) (string, error) {
	if !req.Step.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidStep, req.Step)
	}

	content, err := s.prompter.BuildStepPrompt(req)
	if err != nil {
		return "", err
	}

	text, err := s.generate(ctx, s.prompter.StepSystemPrompt(req.Step), content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	if text == "" {
		text = emptyStepText
	}
	return text, nil
}

func (s *Service) generate(ctx context.Context, system, prompt string) (string, error) {
	if s.registry == nil {
		return "", llm.ErrNoDefaultProvider
	}
	provider, err := s.registry.Default()
	if err != nil {
		return "", fmt.Errorf("get LLM provider: %w", err)
	}

	resp, err := provider.Generate(ctx, &llm.Request{
		Model:       s.cfg.Model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		System:      system,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return "", llm.ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Content), nil
}
