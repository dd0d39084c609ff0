package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jayainhufs/coding-sam/internal/config"
	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/feedback"
	"github.com/jayainhufs/coding-sam/internal/llm"
	"github.com/jayainhufs/coding-sam/internal/problem"
	"github.com/jayainhufs/coding-sam/internal/profile"
	"github.com/jayainhufs/coding-sam/internal/progress"
	"github.com/jayainhufs/coding-sam/internal/queue"
	"github.com/jayainhufs/coding-sam/internal/runner"
	"github.com/jayainhufs/coding-sam/internal/scoring"
	"github.com/jayainhufs/coding-sam/internal/storage"
)

// Version is reported by /status
const Version = "0.3.0"

// providerOrder fixes registration order, which decides the automatic
// default provider.
var providerOrder = []string{"openai", "claude", "gemini", "ollama"}

// Server represents the coding-sam daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	handler http.Handler
	metrics *Metrics

	// Services
	llmRegistry    llm.LLMRegistry
	catalog        *problem.Catalog
	scorer         *scoring.Scorer
	feedback       *feedback.Service
	trackers       *progress.Manager
	profileService profile.ProfileService
	runner         *runner.Service
	executor       runner.Executor
	runs           *queue.Tracker

	// Queue plumbing, nil when the queue is disabled
	queueConn *queue.Connection
	consumer  *queue.Consumer
	results   *queue.ResultConsumer

	closers []func() error
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config   *config.LocalConfig
	DataDir  string          // store location; ~/.codingsam/data when empty
	Store    storage.Store   // overrides storage.driver
	Executor runner.Executor // overrides runner.executor
	Registry *llm.Registry   // overrides provider setup
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		cfg.Config = config.DefaultLocalConfig()
	}
	s := &Server{
		cfg:     cfg.Config,
		router:  http.NewServeMux(),
		metrics: NewMetrics(),
	}

	// LLM providers
	registry := cfg.Registry
	if registry == nil {
		registry = llm.NewRegistry()
		if err := s.setupLLMProviders(ctx, registry); err != nil {
			return nil, fmt.Errorf("setup llm providers: %w", err)
		}
	}
	s.llmRegistry = registry
	s.closers = append(s.closers, registry.Close)

	// Problem catalog
	s.catalog = problem.NewCatalog(problem.NewLoader(s.cfg.Problems.Catalog))
	if err := s.catalog.Load(); err != nil {
		return nil, fmt.Errorf("load problems: %w", err)
	}

	// Progress store
	store := cfg.Store
	if store == nil {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dir, err := config.Dir()
			if err != nil {
				return nil, err
			}
			dataDir = filepath.Join(dir, "data")
		}
		opened, closeStore, err := openStore(ctx, s.cfg.Storage, dataDir)
		if err != nil {
			return nil, err
		}
		store = opened
		s.closers = append(s.closers, closeStore)
	}

	s.scorer = scoring.NewScorer(scoring.DefaultKeywords().Merge(s.cfg.Scoring.Keywords))
	s.feedback = feedback.NewService(s.llmRegistry, feedback.Config{
		Temperature: s.cfg.LLM.Temperature,
		MaxTokens:   s.cfg.LLM.MaxTokens,
	})
	s.trackers = progress.NewManager(store)
	s.profileService = profile.NewService(s.trackers, s.catalog)

	// Code runner
	s.executor = cfg.Executor
	if s.executor == nil {
		s.executor = s.newExecutor()
	}
	s.runner = runner.NewService(runner.DefaultConfig(), s.executor)
	s.runner.SetObserver(s.metrics.ObserveRun)

	if s.cfg.Queue.Enabled {
		if err := s.setupQueue(ctx); err != nil {
			slog.Warn("run queue not available, async runs disabled", "error", err)
		}
	}

	s.setupRoutes()

	var limited http.Handler = s.router
	if rl := s.cfg.Daemon.RateLimit; rl.Enabled {
		limited = newRateLimiter(rl.RequestsPerMinute, rl.Burst).middleware(s.router)
	}
	s.handler = recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.metrics.middleware(limited))))

	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // LLM calls and docker runs
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupLLMProviders initializes configured LLM providers
func (s *Server) setupLLMProviders(ctx context.Context, registry *llm.Registry) error {
	for _, name := range providerOrder {
		providerCfg, ok := s.cfg.LLM.Providers[name]
		if !ok || providerCfg == nil || !providerCfg.Enabled {
			continue
		}

		var (
			provider llm.Provider
			err      error
		)
		switch name {
		case "claude":
			provider, err = llm.NewClaudeProvider(llm.ClaudeConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
		case "openai":
			provider, err = llm.NewOpenAIProvider(llm.OpenAIConfig{
				APIKey:  providerCfg.APIKey,
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
		case "gemini":
			provider, err = llm.NewGeminiProvider(ctx, llm.GeminiConfig{
				APIKey: providerCfg.APIKey,
				Model:  providerCfg.Model,
			})
		case "ollama":
			provider = llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			})
		}
		if err != nil {
			slog.Debug("skipping LLM provider", "name", name, "error", err)
			continue
		}

		if res := s.cfg.LLM.Resilience; res.Enabled {
			provider = llm.NewResilientProvider(provider, llm.ResilientConfig{
				EnableCircuitBreaker: true,
				EnableRetry:          true,
				EnableBulkhead:       true,
				EnableRateLimit:      true,
				MaxAttempts:          res.MaxAttempts,
				MaxConcurrent:        res.MaxConcurrent,
				RatePerSecond:        res.RatePerSecond,
				Timeout:              time.Duration(res.TimeoutSeconds) * time.Second,
			})
		}

		registry.Register(name, provider)
		slog.Info("registered LLM provider", "name", name, "model", providerCfg.Model)
	}

	if def := s.cfg.LLM.DefaultProvider; def != "" && def != "auto" {
		if err := registry.SetDefault(def); err != nil {
			slog.Warn("default LLM provider not available", "name", def, "error", err)
		}
	}

	if len(registry.List()) == 0 {
		slog.Warn("no LLM provider configured, evaluations use the local fallback")
	}
	return nil
}

// newExecutor builds the configured executor. Docker falls back to Piston
// when the daemon cannot be reached.
func (s *Server) newExecutor() runner.Executor {
	rc := s.cfg.Runner
	piston := func() runner.Executor {
		return runner.NewPistonExecutor(runner.PistonConfig{
			URL:     rc.Piston.URL,
			Timeout: time.Duration(rc.Piston.TimeoutSeconds) * time.Second,
		})
	}

	if rc.Executor != config.ExecutorDocker {
		return piston()
	}

	executor, err := runner.NewDockerExecutor(runner.DockerConfig{
		Images:     rc.Docker.Images,
		MemoryMB:   rc.Docker.MemoryMB,
		CPULimit:   rc.Docker.CPULimit,
		NetworkOff: rc.Docker.NetworkOff,
		Timeout:    time.Duration(rc.Docker.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		slog.Warn("Docker executor not available, using piston executor", "error", err)
		return piston()
	}
	return executor
}

// setupQueue connects to RabbitMQ and starts the run workers and the result
// listener
func (s *Server) setupQueue(ctx context.Context) error {
	qc := s.cfg.Queue

	conn, err := queue.NewConnection(qc.URL)
	if err != nil {
		return err
	}

	consumer := queue.NewConsumer(conn, queue.NewRunHandler(s.runner), queue.ConsumerConfig{
		Workers:  qc.Workers,
		Prefetch: qc.Prefetch,
	})
	if err := consumer.Start(ctx); err != nil {
		conn.Close()
		return err
	}

	results := queue.NewResultConsumer(conn)
	if err := results.Start(ctx); err != nil {
		consumer.Stop()
		conn.Close()
		return err
	}

	s.queueConn = conn
	s.consumer = consumer
	s.results = results
	s.runs = queue.NewTracker(queue.NewProducer(conn), results, 0)
	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /status", s.handleStatus)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}

	// Problems
	s.router.HandleFunc("GET /v1/problems", s.handleListProblems)
	s.router.HandleFunc("GET /v1/problems/recommended", s.handleRecommendedProblem)
	s.router.HandleFunc("GET /v1/problems/{id}", s.handleGetProblem)
	s.router.HandleFunc("GET /v1/problems/{id}/templates", s.handleProblemTemplates)
	s.router.HandleFunc("GET /v1/tags", s.handleTopTags)

	// Scoring & feedback
	s.router.HandleFunc("POST /v1/score", s.handleScore)
	s.router.HandleFunc("POST /v1/feedback", s.handleFeedback)
	s.router.HandleFunc("POST /v1/evaluate", s.handleEvaluate)

	// Progress
	s.router.HandleFunc("POST /v1/problems/{id}/submissions", s.handleSubmit)
	s.router.HandleFunc("GET /v1/progress", s.handleListProgress)
	s.router.HandleFunc("GET /v1/progress/{id}", s.handleGetProgress)
	s.router.HandleFunc("GET /v1/xp", s.handleXP)

	// Profile
	s.router.HandleFunc("GET /v1/profile", s.handleProfile)
	s.router.HandleFunc("GET /v1/dashboard", s.handleDashboard)

	// Runs
	s.router.HandleFunc("POST /v1/run", s.handleRun)
	s.router.HandleFunc("POST /v1/runs", s.handleQueueRun)
	s.router.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
}

// Handler returns the full middleware chain
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Services exposes the wired services so other transports can share them
type Services struct {
	Catalog         *problem.Catalog
	Scorer          *scoring.Scorer
	Feedback        *feedback.Service
	Trackers        *progress.Manager
	Profiles        profile.ProfileService
	Runner          *runner.Service
	SolvedThreshold int
}

// Services returns the services behind the HTTP routes
func (s *Server) Services() Services {
	return Services{
		Catalog:         s.catalog,
		Scorer:          s.scorer,
		Feedback:        s.feedback,
		Trackers:        s.trackers,
		Profiles:        s.profileService,
		Runner:          s.runner,
		SolvedThreshold: s.cfg.Scoring.SolvedThreshold,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting coding-sam daemon",
		"addr", s.server.Addr,
		"llm_providers", s.llmRegistry.List(),
		"executor", s.executor.Name(),
		"queue", s.runs != nil,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)

	if s.consumer != nil {
		s.consumer.Stop()
	}
	if s.results != nil {
		s.results.Stop()
	}
	if s.queueConn != nil {
		if cerr := s.queueConn.Close(); cerr != nil {
			slog.Warn("failed to close queue connection", "error", cerr)
		}
	}

	if closer, ok := s.executor.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil {
			slog.Warn("failed to close executor", "error", cerr)
		}
	}

	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i](); cerr != nil {
			slog.Warn("failed to release resource", "error", cerr)
		}
	}

	return err
}

// Helper methods

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// fail maps err onto a status code and writes a JSON error
func (s *Server) fail(w http.ResponseWriter, message string, err error) {
	s.jsonError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProblemNotFound),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidStep),
		errors.Is(err, domain.ErrInvalidProblem),
		errors.Is(err, domain.ErrUnsupportedLanguage),
		errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQueueDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
