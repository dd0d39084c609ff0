package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config holds runner configuration
type Config struct {
	Timeout       time.Duration // whole run, including compile
	MaxConcurrent int
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		MaxConcurrent: 4,
	}
}

// Observer is notified after every run. It is used for metrics.
type Observer func(executor string, lang string, ok bool, elapsed time.Duration)

// Service handles code execution
type Service struct {
	config   Config
	executor Executor
	slots    chan struct{}
	observe  Observer
}

// NewService creates a new runner service
func NewService(cfg Config, executor Executor) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &Service{
		config:   cfg,
		executor: executor,
		slots:    make(chan struct{}, cfg.MaxConcurrent),
	}
}

// SetObserver registers fn to be called after each run
func (s *Service) SetObserver(fn Observer) {
	s.observe = fn
}

// ExecutorName returns the name of the underlying executor
func (s *Service) ExecutorName() string {
	return s.executor.Name()
}

// Execute validates and runs the request. At most MaxConcurrent runs are in
// flight; extra callers wait for a slot or for ctx to end.
func (s *Service) Execute(ctx context.Context, req RunRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for runner slot: %w", ctx.Err())
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := s.executor.Run(ctx, req)
	elapsed := time.Since(start)

	ok := err == nil && result.OK()
	if s.observe != nil {
		s.observe(s.executor.Name(), string(req.Language), ok, elapsed)
	}

	if err != nil {
		slog.Warn("run failed", "executor", s.executor.Name(), "language", req.Language, "error", err)
		return nil, fmt.Errorf("run %s: %w", req.Language, err)
	}

	slog.Debug("run finished",
		"executor", s.executor.Name(),
		"language", req.Language,
		"ok", ok,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result, nil
}
