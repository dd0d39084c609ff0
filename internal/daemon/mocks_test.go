package daemon

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/jayainhufs/coding-sam/internal/config"
	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/llm"
	"github.com/jayainhufs/coding-sam/internal/profile"
	"github.com/jayainhufs/coding-sam/internal/runner"
	"github.com/jayainhufs/coding-sam/internal/storage"
)

var errNotImplemented = errors.New("mock: not implemented")

// mockProvider implements llm.Provider for testing
type mockProvider struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.content}, nil
}

// mockExecutor implements runner.Executor for testing
type mockExecutor struct {
	runFn func(ctx context.Context, req runner.RunRequest) (*runner.Result, error)
}

func (m *mockExecutor) Name() string { return "mock" }

func (m *mockExecutor) Run(ctx context.Context, req runner.RunRequest) (*runner.Result, error) {
	if m.runFn != nil {
		return m.runFn(ctx, req)
	}
	code := 0
	return &runner.Result{
		Language: string(req.Language),
		Version:  "test",
		Run:      runner.StageResult{Stdout: req.Stdin, Output: req.Stdin, Code: &code},
	}, nil
}

// mockProfileService implements profile.ProfileService for testing
type mockProfileService struct {
	summaryFn   func(ctx context.Context, userID string) (*domain.ProfileSummary, error)
	dashboardFn func(ctx context.Context, userID string) (*profile.Dashboard, error)
}

func (m *mockProfileService) Summary(ctx context.Context, userID string) (*domain.ProfileSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockProfileService) Dashboard(ctx context.Context, userID string) (*profile.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, userID)
	}
	return nil, errNotImplemented
}

var _ profile.ProfileService = (*mockProfileService)(nil)

// testServer bundles a server with the fakes behind it
type testServer struct {
	server   *Server
	provider *mockProvider
	executor *mockExecutor
	store    *storage.MemoryStore
}

func (ts *testServer) handler() http.Handler { return ts.server.Handler() }

// newTestServer creates a server over an in-memory store, a mock LLM
// provider and a mock executor
func newTestServer(t *testing.T, mutate ...func(*config.LocalConfig)) *testServer {
	t.Helper()

	cfg := config.DefaultLocalConfig()
	cfg.Daemon.Port = 0
	cfg.Storage.Driver = config.DriverMemory
	cfg.Daemon.RateLimit.Enabled = false
	for _, fn := range mutate {
		fn(cfg)
	}

	provider := &mockProvider{content: "Diagnosis: keep going."}
	registry := llm.NewRegistry()
	registry.Register("mock", provider)

	store := storage.NewMemoryStore()
	executor := &mockExecutor{}

	server, err := NewServer(context.Background(), ServerConfig{
		Config:   cfg,
		Store:    store,
		Executor: executor,
		Registry: registry,
	})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	t.Cleanup(func() {
		for _, c := range server.closers {
			_ = c()
		}
	})

	return &testServer{
		server:   server,
		provider: provider,
		executor: executor,
		store:    store,
	}
}
