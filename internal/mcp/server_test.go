package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/feedback"
	"github.com/jayainhufs/coding-sam/internal/llm"
	"github.com/jayainhufs/coding-sam/internal/problem"
	"github.com/jayainhufs/coding-sam/internal/profile"
	"github.com/jayainhufs/coding-sam/internal/progress"
	"github.com/jayainhufs/coding-sam/internal/runner"
	"github.com/jayainhufs/coding-sam/internal/scoring"
	"github.com/jayainhufs/coding-sam/internal/storage"
)

// setupTestServer creates a test MCP server over in-memory services
func setupTestServer(t *testing.T, provider llm.Provider, executor runner.Executor) *Server {
	t.Helper()

	catalog := problem.NewCatalog(problem.NewLoader(""))
	if err := catalog.Load(); err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	registry := llm.NewRegistry()
	if provider != nil {
		registry.Register("mock", provider)
	}

	trackers := progress.NewManager(storage.NewMemoryStore())

	return NewServer(Config{
		Catalog:         catalog,
		Scorer:          scoring.NewScorer(scoring.DefaultKeywords()),
		Feedback:        feedback.NewService(registry, feedback.Config{}),
		Trackers:        trackers,
		Profiles:        profile.NewService(trackers, catalog),
		Runner:          runner.NewService(runner.DefaultConfig(), executor),
		SolvedThreshold: 80,
	})
}

// mockProvider is a simple mock LLM provider for testing
type mockProvider struct {
	content string
	err     error
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.content}, nil
}

// mockExecutor echoes stdin, or returns the configured result
type mockExecutor struct {
	result *runner.Result
}

func (m *mockExecutor) Name() string { return "mock" }

func (m *mockExecutor) Run(ctx context.Context, req runner.RunRequest) (*runner.Result, error) {
	if m.result != nil {
		return m.result, nil
	}
	code := 0
	return &runner.Result{
		Language: string(req.Language),
		Run:      runner.StageResult{Stdout: req.Stdin, Code: &code},
	}, nil
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t, &mockProvider{content: "ok"}, &mockExecutor{})

	if server == nil {
		t.Fatal("NewServer returned nil")
	}
	if server.mcpServer == nil {
		t.Error("mcpServer is nil")
	}
	if server.userID != DefaultUserID {
		t.Errorf("userID = %q, want %q", server.userID, DefaultUserID)
	}
}

func TestNewServer_NilConfig(t *testing.T) {
	server := NewServer(Config{})

	if server == nil {
		t.Fatal("NewServer returned nil")
	}
	if server.scorer == nil {
		t.Error("scorer should default when not configured")
	}
}

func TestGetMCPServer(t *testing.T) {
	server := setupTestServer(t, nil, &mockExecutor{})

	if server.GetMCPServer() == nil {
		t.Error("GetMCPServer returned nil")
	}
}

func TestHandleProblems(t *testing.T) {
	server := setupTestServer(t, nil, &mockExecutor{})
	ctx := context.Background()

	t.Run("search by tag", func(t *testing.T) {
		out, err := server.handleProblems(ctx, ProblemsInput{Tags: []string{"hashmap"}})
		if err != nil {
			t.Fatalf("handleProblems: %v", err)
		}
		if out.Total != 2 {
			t.Errorf("Total = %d, want 2", out.Total)
		}
		for _, p := range out.Problems {
			if !contains(p.Tags, "hashmap") {
				t.Errorf("problem %s missing tag hashmap", p.ID)
			}
		}
	})

	t.Run("difficulty and limit", func(t *testing.T) {
		out, err := server.handleProblems(ctx, ProblemsInput{Difficulty: "Medium", Limit: 2})
		if err != nil {
			t.Fatalf("handleProblems: %v", err)
		}
		if out.Total != 4 || len(out.Problems) != 2 {
			t.Errorf("Total = %d, len = %d; want 4, 2", out.Total, len(out.Problems))
		}
	})

	t.Run("by id", func(t *testing.T) {
		out, err := server.handleProblems(ctx, ProblemsInput{ID: "two-sum"})
		if err != nil {
			t.Fatalf("handleProblems: %v", err)
		}
		if out.Problem == nil || out.Problem.ID != "two-sum" {
			t.Fatalf("Problem = %+v", out.Problem)
		}
		if out.Templates == nil || out.Templates.Understand == "" {
			t.Error("expected templates for two-sum")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := server.handleProblems(ctx, ProblemsInput{ID: "nope"})
		if !errors.Is(err, domain.ErrProblemNotFound) {
			t.Errorf("err = %v, want ErrProblemNotFound", err)
		}
	})
}

func TestHandleScore(t *testing.T) {
	server := setupTestServer(t, nil, &mockExecutor{})
	ctx := context.Background()

	t.Run("single step", func(t *testing.T) {
		text := "input is an array, output is the max sum, edge case: all negative"
		out, err := server.handleScore(ctx, ScoreInput{Step: "understand", Text: text})
		if err != nil {
			t.Fatalf("handleScore: %v", err)
		}
		want, _ := scoring.Breakdown(text, scoring.DefaultKeywords()[domain.StepUnderstand])
		if out.Scores[domain.StepUnderstand] != want {
			t.Errorf("score = %d, want %d", out.Scores[domain.StepUnderstand], want)
		}
		if len(out.Matched) == 0 {
			t.Error("expected matched keywords")
		}
	})

	t.Run("several steps skip blanks", func(t *testing.T) {
		out, err := server.handleScore(ctx, ScoreInput{Inputs: map[string]string{
			"understand": "something",
			"pattern":    "   ",
		}})
		if err != nil {
			t.Fatalf("handleScore: %v", err)
		}
		if _, ok := out.Scores[domain.StepPattern]; ok {
			t.Error("blank step should not be scored")
		}
		if out.Scores[domain.StepUnderstand] != 40 {
			t.Errorf("understand = %d, want 40", out.Scores[domain.StepUnderstand])
		}
	})

	t.Run("invalid step", func(t *testing.T) {
		if _, err := server.handleScore(ctx, ScoreInput{Step: "implement", Text: "x"}); !errors.Is(err, domain.ErrInvalidStep) {
			t.Errorf("err = %v, want ErrInvalidStep", err)
		}
	})
}

func TestHandleSubmit(t *testing.T) {
	server := setupTestServer(t, nil, &mockExecutor{})
	ctx := context.Background()

	perfect := map[string]int{
		"understand": 100, "decompose": 100, "pattern": 100, "abstract": 100, "pseudocode": 100,
	}

	out, err := server.handleSubmit(ctx, SubmitInput{
		ProblemID:      "two-sum",
		Scores:         perfect,
		AIRequestCount: 2,
		HintCount:      1,
	})
	if err != nil {
		t.Fatalf("handleSubmit: %v", err)
	}
	if out.Result.FinalAvg != 98 || !out.Result.SolvedNow {
		t.Errorf("result = %+v, want finalAvg 98 solved", out.Result)
	}
	if out.State != domain.StateSolved {
		t.Errorf("state = %v, want solved", out.State)
	}
	if out.XPAwarded != progress.RewardFor(98) {
		t.Errorf("XPAwarded = %d, want %d", out.XPAwarded, progress.RewardFor(98))
	}

	level, err := server.handleLevel(ctx, UserInput{})
	if err != nil {
		t.Fatalf("handleLevel: %v", err)
	}
	if level.XP != out.XP || level.Streak.Days != 1 {
		t.Errorf("level = %+v, want xp %d streak 1", level, out.XP)
	}

	// another learner starts from zero
	other, err := server.handleLevel(ctx, UserInput{UserID: "guest-2"})
	if err != nil {
		t.Fatalf("handleLevel: %v", err)
	}
	if other.XP != 0 {
		t.Errorf("other learner XP = %d, want 0", other.XP)
	}
}

func TestHandleSubmit_ClampsScores(t *testing.T) {
	server := setupTestServer(t, nil, &mockExecutor{})

	out, err := server.handleSubmit(context.Background(), SubmitInput{
		ProblemID: "two-sum",
		Scores:    map[string]int{"understand": 1000},
	})
	if err != nil {
		t.Fatalf("handleSubmit: %v", err)
	}
	if out.Result.AvgRaw != 20 || out.Result.SolvedNow || out.XPAwarded != 0 {
		t.Errorf("result = %+v, xp awarded = %d", out.Result, out.XPAwarded)
	}
	if got := out.Progress.Scores[domain.StepUnderstand]; got != 100 {
		t.Errorf("stored understand = %d, want 100", got)
	}
}

func TestHandleSubmit_Errors(t *testing.T) {
	server := setupTestServer(t, nil, &mockExecutor{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input SubmitInput
		want  error
	}{
		{"unknown problem", SubmitInput{ProblemID: "nope", Scores: map[string]int{"understand": 1}}, domain.ErrProblemNotFound},
		{"no scores", SubmitInput{ProblemID: "two-sum"}, domain.ErrInvalidRequest},
		{"bad step", SubmitInput{ProblemID: "two-sum", Scores: map[string]int{"coding": 1}}, domain.ErrInvalidStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := server.handleSubmit(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandleEvaluate(t *testing.T) {
	ctx := context.Background()
	ai, hints := 3, 1
	input := EvaluateInput{
		Summary: SummaryInput{
			Avg:         map[string]float64{"understand": 80, "decompose": 80, "pattern": 80, "abstract": 80, "pseudocode": 80},
			Attempts:    3,
			SolvedCount: 1,
			Weakest:     []string{"understand", "decompose"},
			Strength:    []string{"pattern", "abstract"},
		},
		AIRequestCount: &ai,
		HintCount:      &hints,
	}

	t.Run("model text", func(t *testing.T) {
		server := setupTestServer(t, &mockProvider{content: "Diagnosis: steady."}, &mockExecutor{})
		out, err := server.handleEvaluate(ctx, input)
		if err != nil {
			t.Fatalf("handleEvaluate: %v", err)
		}
		if !out.OK || out.Fallback || out.Text != "Diagnosis: steady." {
			t.Errorf("out = %+v", out)
		}
		if out.AvgRaw != 80 || out.FinalAvg != 77 {
			t.Errorf("avgRaw/finalAvg = %d/%d, want 80/77", out.AvgRaw, out.FinalAvg)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		server := setupTestServer(t, &mockProvider{err: errors.New("down")}, &mockExecutor{})
		out, err := server.handleEvaluate(ctx, input)
		if err != nil {
			t.Fatalf("handleEvaluate: %v", err)
		}
		if !out.Fallback || !strings.HasPrefix(out.Text, "Summary:") {
			t.Errorf("expected local fallback, got %+v", out)
		}
	})

	t.Run("invalid threshold", func(t *testing.T) {
		server := setupTestServer(t, nil, &mockExecutor{})
		bad := input
		threshold := 150.0
		bad.SolvedThreshold = &threshold
		if _, err := server.handleEvaluate(ctx, bad); err == nil {
			t.Error("expected error for threshold out of range")
		}
	})
}

func TestHandleProfile(t *testing.T) {
	server := setupTestServer(t, nil, &mockExecutor{})
	ctx := context.Background()

	_, err := server.handleSubmit(ctx, SubmitInput{
		ProblemID: "valid-parentheses",
		Scores:    map[string]int{"understand": 90, "decompose": 50, "pattern": 70, "abstract": 60, "pseudocode": 80},
	})
	if err != nil {
		t.Fatalf("handleSubmit: %v", err)
	}

	dash, err := server.handleProfile(ctx, UserInput{})
	if err != nil {
		t.Fatalf("handleProfile: %v", err)
	}
	if dash.Summary.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", dash.Summary.Attempts)
	}
	if len(dash.Summary.Weakest) == 0 || dash.Summary.Weakest[0] != domain.StepDecompose {
		t.Errorf("Weakest = %v, want decompose first", dash.Summary.Weakest)
	}
	if len(dash.Solved) != 0 {
		t.Errorf("Solved = %v, want none (avg 70)", dash.Solved)
	}
}

func TestHandleRun(t *testing.T) {
	ctx := context.Background()

	t.Run("echo", func(t *testing.T) {
		server := setupTestServer(t, nil, &mockExecutor{})
		out, err := server.handleRun(ctx, RunInput{Language: "Python", Code: "print(input())", Stdin: "7"})
		if err != nil {
			t.Fatalf("handleRun: %v", err)
		}
		if !out.OK || out.Stdout != "7" || out.Summary != "Run: ✓" {
			t.Errorf("out = %+v", out)
		}
	})

	t.Run("compile error", func(t *testing.T) {
		code := 1
		server := setupTestServer(t, nil, &mockExecutor{result: &runner.Result{
			Language: "c",
			Compile:  &runner.StageResult{Stderr: "error: expected ';'", Output: "error: expected ';'", Code: &code},
		}})
		out, err := server.handleRun(ctx, RunInput{Language: "c", Code: "int main() { return 0 }"})
		if err != nil {
			t.Fatalf("handleRun: %v", err)
		}
		if out.OK || out.CompileOutput == "" || out.Summary != "Compile: ✗ | Run: skipped" {
			t.Errorf("out = %+v", out)
		}
	})

	t.Run("unsupported language", func(t *testing.T) {
		server := setupTestServer(t, nil, &mockExecutor{})
		if _, err := server.handleRun(ctx, RunInput{Language: "go", Code: "package main"}); !errors.Is(err, domain.ErrUnsupportedLanguage) {
			t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
