package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockProvider is a test implementation of Provider
type mockProvider struct {
	name     string
	response *Response
	err      error
	failN    int32 // fail this many calls with err before succeeding
	calls    atomic.Int32
	lastReq  *Request
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	n := m.calls.Add(1)
	m.lastReq = req
	if m.err != nil && (m.failN == 0 || n <= m.failN) {
		return nil, m.err
	}
	return m.response, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if len(r.List()) != 0 {
		t.Errorf("List() = %v, want empty", r.List())
	}
}

func TestRegistry_SetDefault(t *testing.T) {
	r := NewRegistry()
	r.Register("claude", &mockProvider{name: "claude"})

	if err := r.SetDefault("claude"); err != nil {
		t.Errorf("SetDefault(claude) error = %v", err)
	}
	if err := r.SetDefault("auto"); err != nil {
		t.Errorf("SetDefault(auto) error = %v", err)
	}
	if err := r.SetDefault("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("SetDefault(missing) error = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register("ollama", &mockProvider{name: "ollama"})

	p, err := r.Get("ollama")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Name() = %v, want ollama", p.Name())
	}

	if _, err := r.Get("nope"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistry_Default(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Default(); !errors.Is(err, ErrNoDefaultProvider) {
		t.Errorf("Default() on empty registry error = %v", err)
	}

	r.Register("openai", &mockProvider{name: "openai"})
	r.Register("claude", &mockProvider{name: "claude"})

	// auto picks the first registered provider
	p, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Default() = %v, want openai", p.Name())
	}

	r.SetDefault("claude")
	p, _ = r.Default()
	if p.Name() != "claude" {
		t.Errorf("Default() = %v, want claude", p.Name())
	}
	if r.DefaultName() != "claude" {
		t.Errorf("DefaultName() = %v, want claude", r.DefaultName())
	}
}

func TestRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"gemini", "claude", "ollama", "claude"} {
		r.Register(n, &mockProvider{name: n})
	}

	got := fmt.Sprint(r.List())
	if got != "[gemini claude ollama]" {
		t.Errorf("List() = %v", got)
	}
}

func TestRegistry_Concurrency(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Register(fmt.Sprintf("p%d", i), &mockProvider{name: "p"})
		}(i)
		go func() {
			defer wg.Done()
			r.List()
			r.Default()
		}()
	}
	wg.Wait()

	if len(r.List()) != 50 {
		t.Errorf("List() len = %d, want 50", len(r.List()))
	}
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	rp := NewResilientProvider(&mockProvider{name: "m"}, ResilientConfig{EnableRateLimit: true})
	r.Register("m", rp)
	r.Register("plain", &mockProvider{name: "plain"})

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDefaultResilientConfig(t *testing.T) {
	cfg := DefaultResilientConfig()

	if !cfg.EnableCircuitBreaker || !cfg.EnableRetry || !cfg.EnableBulkhead || !cfg.EnableRateLimit {
		t.Error("all patterns should be enabled by default")
	}
	if cfg.MaxConcurrent != 5 {
		t.Errorf("MaxConcurrent = %v, want 5", cfg.MaxConcurrent)
	}
	if cfg.RatePerSecond != 2 {
		t.Errorf("RatePerSecond = %v, want 2", cfg.RatePerSecond)
	}
}

func TestNewResilientProvider(t *testing.T) {
	rp := NewResilientProvider(&mockProvider{name: "test"}, DefaultResilientConfig())
	defer rp.Close()

	if rp.Name() != "test" {
		t.Errorf("Name() = %v, want test", rp.Name())
	}
	if rp.circuitBreaker == nil || rp.retrier == nil || rp.bulkhead == nil || rp.rateLimit == nil {
		t.Error("all patterns should be configured")
	}
}

func TestNewResilientProvider_NoPatterns(t *testing.T) {
	rp := NewResilientProvider(&mockProvider{name: "test"}, ResilientConfig{})

	if rp.circuitBreaker != nil || rp.retrier != nil || rp.bulkhead != nil || rp.rateLimit != nil {
		t.Error("no pattern should be configured when all are disabled")
	}
}

func TestResilientProvider_Generate_Success(t *testing.T) {
	p := &mockProvider{
		name:     "test",
		response: &Response{Content: "Drill 1: restate the problem"},
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry:    true,
		EnableBulkhead: true,
		MaxConcurrent:  2,
	})

	resp, err := rp.Generate(context.Background(), &Request{System: "coach"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "Drill 1: restate the problem" {
		t.Errorf("Content = %v", resp.Content)
	}
	if p.lastReq.System != "coach" {
		t.Errorf("request not forwarded, System = %q", p.lastReq.System)
	}
}

func TestResilientProvider_RetriesTransientErrors(t *testing.T) {
	p := &mockProvider{
		name:     "test",
		response: &Response{Content: "ok"},
		err:      &APIError{Provider: "test", StatusCode: 503, Err: errors.New("overloaded")},
		failN:    2,
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry:  true,
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %v, want ok", resp.Content)
	}
	if got := p.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestResilientProvider_DoesNotRetryClientErrors(t *testing.T) {
	p := &mockProvider{
		name: "test",
		err:  &APIError{Provider: "test", StatusCode: 401, Err: errors.New("bad key")},
	}
	rp := NewResilientProvider(p, ResilientConfig{
		EnableRetry:  true,
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	if _, err := rp.Generate(context.Background(), &Request{}); err == nil {
		t.Fatal("Generate() expected error")
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestResilientProvider_Generate_NoPatterns(t *testing.T) {
	p := &mockProvider{name: "test", err: errors.New("boom")}
	rp := NewResilientProvider(p, ResilientConfig{})

	_, err := rp.Generate(context.Background(), &Request{})
	if err == nil || err.Error() != "boom" {
		t.Errorf("Generate() error = %v, want boom", err)
	}
}

func TestIsRetryableHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api 429", &APIError{StatusCode: 429, Err: errors.New("slow down")}, true},
		{"api 500", &APIError{StatusCode: 500, Err: errors.New("x")}, true},
		{"api 400", &APIError{StatusCode: 400, Err: errors.New("x")}, false},
		{"wrapped api 502", fmt.Errorf("call: %w", &APIError{StatusCode: 502, Err: errors.New("x")}), true},
		{"message status 504", errors.New("upstream status 504"), true},
		{"plain", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableHTTPError(tt.err); got != tt.want {
				t.Errorf("isRetryableHTTPError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	inner := errors.New("quota")
	err := &APIError{Provider: "openai", StatusCode: 429, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("APIError should unwrap to inner error")
	}
	if err.Error() != "openai API error (status 429): quota" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNewLLMHTTPClient(t *testing.T) {
	c := newLLMHTTPClient()
	if c.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", c.Timeout)
	}
	if c.Transport == nil {
		t.Error("Transport should be set")
	}
}
