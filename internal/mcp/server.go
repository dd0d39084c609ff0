package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/feedback"
	"github.com/jayainhufs/coding-sam/internal/problem"
	"github.com/jayainhufs/coding-sam/internal/profile"
	"github.com/jayainhufs/coding-sam/internal/progress"
	"github.com/jayainhufs/coding-sam/internal/runner"
	"github.com/jayainhufs/coding-sam/internal/scoring"
)

// DefaultUserID is used when a tool call names no user
const DefaultUserID = "anon"

// Server wraps the MCP server with coding-sam functionality
type Server struct {
	mcpServer *server.Server

	catalog   *problem.Catalog
	scorer    *scoring.Scorer
	feedback  *feedback.Service
	trackers  profile.TrackerSource
	profiles  profile.ProfileService
	runner    *runner.Service
	userID    string
	threshold int
}

// Config contains configuration for the MCP server
type Config struct {
	Catalog         *problem.Catalog
	Scorer          *scoring.Scorer
	Feedback        *feedback.Service
	Trackers        profile.TrackerSource
	Profiles        profile.ProfileService
	Runner          *runner.Service
	UserID          string // learner the tools act for when a call names none
	SolvedThreshold int
}

// NewServer creates a new MCP server for coding-sam
func NewServer(cfg Config) *Server {
	s := &Server{
		catalog:   cfg.Catalog,
		scorer:    cfg.Scorer,
		feedback:  cfg.Feedback,
		trackers:  cfg.Trackers,
		profiles:  cfg.Profiles,
		runner:    cfg.Runner,
		userID:    cfg.UserID,
		threshold: cfg.SolvedThreshold,
	}
	if s.userID == "" {
		s.userID = DefaultUserID
	}
	if s.scorer == nil {
		s.scorer = scoring.NewScorer(nil)
	}

	s.mcpServer = server.New(server.Info{
		Name:    "coding-sam",
		Version: "0.3.0",
	}, server.WithInstructions(`
coding-sam is a coding practice tutor. Every problem is worked through five
written steps before any code: understand, decompose, pattern, abstract,
pseudocode.

Available tools:
- codingsam_problems: Search the problem catalog or fetch one problem
- codingsam_score: Score written step text with the keyword heuristic
- codingsam_submit: Record a finished attempt; updates progress, XP and streak
- codingsam_evaluate: Final score with penalties plus a coaching narrative
- codingsam_profile: Weakest/strongest steps, solved problems, recommendation
- codingsam_level: XP, level and streak
- codingsam_run: Run python, c or java code with stdin

Scoring:
- Each step scores 40 for any text plus 12 per matched keyword, capped at 100
- The first AI request is free, then -1 per request and -1 per hint
- A problem is solved when the final average reaches the threshold (default 80)
`))

	s.registerTools()

	return s
}

// registerTools registers all coding-sam MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("codingsam_problems").
		Description("Search practice problems by text, difficulty and tags, or fetch one problem with its step templates.").
		Handler(s.handleProblems)

	s.mcpServer.Tool("codingsam_score").
		Description("Score the text of one step, or of several steps at once.").
		Handler(s.handleScore)

	s.mcpServer.Tool("codingsam_submit").
		Description("Record an attempt at a problem. Returns the final score, progress, XP and streak.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("codingsam_evaluate").
		Description("Evaluate a profile summary: penalized final average plus a coaching narrative.").
		Handler(s.handleEvaluate)

	s.mcpServer.Tool("codingsam_profile").
		Description("Get the learner dashboard: step averages, weakest and strongest steps, solved problems.").
		Handler(s.handleProfile)

	s.mcpServer.Tool("codingsam_level").
		Description("Get XP, level progress and the daily streak.").
		Handler(s.handleLevel)

	s.mcpServer.Tool("codingsam_run").
		Description("Run a program in the sandbox and return its output.").
		Handler(s.handleRun)
}

// Input/Output types for tools

type ProblemsInput struct {
	ID         string   `json:"id,omitempty" jsonschema:"description=Problem ID; when set the other filters are ignored"`
	Query      string   `json:"query,omitempty" jsonschema:"description=Free text matched against title, description and tags"`
	Difficulty string   `json:"difficulty,omitempty" jsonschema:"description=Difficulty filter,enum=Easy,enum=Medium,enum=Hard"`
	Tags       []string `json:"tags,omitempty" jsonschema:"description=Problems must carry all of these tags"`
	Sort       string   `json:"sort,omitempty" jsonschema:"description=Sort order,enum=recommended,enum=difficulty,enum=title"`
	Limit      int      `json:"limit,omitempty" jsonschema:"description=Maximum number of problems (default 20)"`
}

type ProblemSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
}

type ProblemsOutput struct {
	Total     int               `json:"total"`
	Problems  []ProblemSummary  `json:"problems"`
	Problem   *domain.Problem   `json:"problem,omitempty"`
	Templates *domain.Templates `json:"templates,omitempty"`
}

type ScoreInput struct {
	Step   string            `json:"step,omitempty" jsonschema:"description=Step to score,enum=understand,enum=decompose,enum=pattern,enum=abstract,enum=pseudocode"`
	Text   string            `json:"text,omitempty" jsonschema:"description=Text written for the step"`
	Inputs map[string]string `json:"inputs,omitempty" jsonschema:"description=Step -> text map to score several steps at once"`
}

type ScoreOutput struct {
	Scores  map[domain.StepKey]int `json:"scores"`
	AvgRaw  int                    `json:"avg_raw"`
	Matched []string               `json:"matched,omitempty"`
}

type SubmitInput struct {
	UserID          string            `json:"user_id,omitempty" jsonschema:"description=Learner ID (default anon)"`
	ProblemID       string            `json:"problem_id" jsonschema:"description=Problem ID"`
	Inputs          map[string]string `json:"inputs,omitempty" jsonschema:"description=Step -> text; scored with the keyword heuristic"`
	Scores          map[string]int    `json:"scores,omitempty" jsonschema:"description=Step -> score 0-100; used when inputs is empty"`
	AIRequestCount  int               `json:"ai_request_count,omitempty" jsonschema:"description=AI feedback requests made during the attempt"`
	HintCount       int               `json:"hint_count,omitempty" jsonschema:"description=Hints opened during the attempt"`
	SolvedThreshold int               `json:"solved_threshold,omitempty" jsonschema:"description=Final average needed to count as solved (default 80)"`
}

type EvaluateInput struct {
	Summary         SummaryInput `json:"summary" jsonschema:"description=Profile summary to evaluate"`
	AIRequestCount  *int         `json:"ai_request_count,omitempty" jsonschema:"description=AI feedback requests (default 0)"`
	HintCount       *int         `json:"hint_count,omitempty" jsonschema:"description=Hints opened (default 0)"`
	SolvedThreshold *float64     `json:"solved_threshold,omitempty" jsonschema:"description=Threshold in [1,100] (default 80)"`
}

type SummaryInput struct {
	Avg         map[string]float64 `json:"avg" jsonschema:"description=Average score per step"`
	Attempts    int                `json:"attempts"`
	SolvedCount int                `json:"solved_count"`
	Weakest     []string           `json:"weakest"`
	Strength    []string           `json:"strength"`
}

type UserInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"description=Learner ID (default anon)"`
}

type LevelOutput struct {
	XP     int                  `json:"xp"`
	Level  progress.Level       `json:"level"`
	Streak progress.StreakState `json:"streak"`
}

type RunInput struct {
	Language string `json:"language" jsonschema:"description=Program language,enum=python,enum=c,enum=java"`
	Code     string `json:"code" jsonschema:"description=Program source"`
	Stdin    string `json:"stdin,omitempty" jsonschema:"description=Standard input"`
}

type RunOutput struct {
	OK            bool   `json:"ok"`
	ExitCode      *int   `json:"exit_code,omitempty"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr,omitempty"`
	CompileOutput string `json:"compile_output,omitempty"`
	Summary       string `json:"summary"`
}

// Tool handlers

func (s *Server) handleProblems(ctx context.Context, input ProblemsInput) (ProblemsOutput, error) {
	if input.ID != "" {
		p, err := s.catalog.Get(input.ID)
		if err != nil {
			return ProblemsOutput{}, err
		}
		tpl, err := s.catalog.Templates(input.ID)
		if err != nil {
			return ProblemsOutput{}, err
		}
		return ProblemsOutput{
			Total:     1,
			Problems:  []ProblemSummary{summarize(p)},
			Problem:   p,
			Templates: &tpl,
		}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	page := s.catalog.Search(problem.Query{
		Text:       input.Query,
		Difficulty: domain.Difficulty(input.Difficulty),
		Tags:       input.Tags,
		Sort:       input.Sort,
		Limit:      limit,
	})

	out := ProblemsOutput{Total: page.Total, Problems: make([]ProblemSummary, 0, len(page.Items))}
	for _, p := range page.Items {
		out.Problems = append(out.Problems, summarize(p))
	}
	return out, nil
}

func summarize(p *domain.Problem) ProblemSummary {
	return ProblemSummary{
		ID:         p.ID,
		Title:      p.Title,
		Difficulty: string(p.Difficulty),
		Tags:       p.Tags,
	}
}

func (s *Server) handleScore(ctx context.Context, input ScoreInput) (ScoreOutput, error) {
	if len(input.Inputs) > 0 {
		inputs, err := stepMap(input.Inputs)
		if err != nil {
			return ScoreOutput{}, err
		}
		scores := s.scorer.ScoreSteps(inputs)
		return ScoreOutput{Scores: scores, AvgRaw: scoring.RawAverage(scores)}, nil
	}

	step, err := domain.ParseStep(input.Step)
	if err != nil {
		return ScoreOutput{}, fmt.Errorf("step or inputs is required: %w", err)
	}
	score, matched := scoring.Breakdown(input.Text, s.scorer.Keywords(step))
	scores := domain.StepScores{step: score}
	return ScoreOutput{
		Scores:  scores,
		AvgRaw:  scoring.RawAverage(scores),
		Matched: matched,
	}, nil
}

func (s *Server) handleSubmit(ctx context.Context, input SubmitInput) (progress.Outcome, error) {
	if _, err := s.catalog.Get(input.ProblemID); err != nil {
		return progress.Outcome{}, err
	}

	var scores domain.StepScores
	switch {
	case len(input.Inputs) > 0:
		inputs, err := stepMap(input.Inputs)
		if err != nil {
			return progress.Outcome{}, err
		}
		scores = s.scorer.ScoreSteps(inputs)
	case len(input.Scores) > 0:
		scores = make(domain.StepScores, len(input.Scores))
		for k, v := range input.Scores {
			step, err := domain.ParseStep(k)
			if err != nil {
				return progress.Outcome{}, err
			}
			scores[step] = v
		}
	default:
		return progress.Outcome{}, fmt.Errorf("%w: inputs or scores is required", domain.ErrInvalidRequest)
	}

	threshold := input.SolvedThreshold
	if threshold == 0 {
		threshold = s.threshold
	}

	out, err := s.trackers.For(s.user(input.UserID)).Submit(ctx, progress.Submission{
		ProblemID:       input.ProblemID,
		Scores:          scores,
		Usage:           scoring.Usage{AIRequestCount: input.AIRequestCount, HintCount: input.HintCount},
		SolvedThreshold: threshold,
	})
	if err != nil {
		return progress.Outcome{}, err
	}
	return *out, nil
}

func (s *Server) handleEvaluate(ctx context.Context, input EvaluateInput) (feedback.EvaluateResponse, error) {
	// Re-encode in the HTTP shape so the same schema validation applies.
	wire := map[string]any{
		"summary": map[string]any{
			"avg":         nonNilMap(input.Summary.Avg),
			"attempts":    input.Summary.Attempts,
			"solvedCount": input.Summary.SolvedCount,
			"weakest":     nonNilSlice(input.Summary.Weakest),
			"strength":    nonNilSlice(input.Summary.Strength),
		},
	}
	if input.AIRequestCount != nil {
		wire["aiRequestCount"] = *input.AIRequestCount
	}
	if input.HintCount != nil {
		wire["hintCount"] = *input.HintCount
	}
	if input.SolvedThreshold != nil {
		wire["solvedThreshold"] = *input.SolvedThreshold
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return feedback.EvaluateResponse{}, err
	}
	req, err := s.feedback.DecodeEvaluateRequest(raw)
	if err != nil {
		return feedback.EvaluateResponse{}, err
	}
	return *s.feedback.Evaluate(ctx, *req), nil
}

func (s *Server) handleProfile(ctx context.Context, input UserInput) (profile.Dashboard, error) {
	dash, err := s.profiles.Dashboard(ctx, s.user(input.UserID))
	if err != nil {
		return profile.Dashboard{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return *dash, nil
}

func (s *Server) handleLevel(ctx context.Context, input UserInput) (LevelOutput, error) {
	tracker := s.trackers.For(s.user(input.UserID))

	total, err := tracker.XP().Total(ctx)
	if err != nil {
		return LevelOutput{}, err
	}
	streak, err := tracker.Streak().Current(ctx)
	if err != nil {
		return LevelOutput{}, err
	}
	return LevelOutput{
		XP:     total,
		Level:  progress.XPToLevel(total),
		Streak: streak,
	}, nil
}

func (s *Server) handleRun(ctx context.Context, input RunInput) (RunOutput, error) {
	lang, err := runner.ParseLanguage(input.Language)
	if err != nil {
		return RunOutput{}, err
	}

	result, err := s.runner.Execute(ctx, runner.RunRequest{
		Language: lang,
		Source:   input.Code,
		Stdin:    input.Stdin,
	})
	if err != nil {
		return RunOutput{}, err
	}

	output := RunOutput{
		OK:       result.OK(),
		ExitCode: result.Run.Code,
		Stdout:   result.Run.Stdout,
		Stderr:   result.Run.Stderr,
	}

	var summary []string
	if result.Compile != nil {
		output.CompileOutput = result.Compile.Output
		if result.Compile.OK() {
			summary = append(summary, "Compile: ✓")
		} else {
			summary = append(summary, "Compile: ✗")
		}
	}
	switch {
	case result.Compile != nil && !result.Compile.OK():
		summary = append(summary, "Run: skipped")
	case result.Run.OK():
		summary = append(summary, "Run: ✓")
	case result.Run.Signal != "":
		summary = append(summary, "Run: killed ("+result.Run.Signal+")")
	default:
		summary = append(summary, "Run: ✗")
	}
	output.Summary = strings.Join(summary, " | ")

	return output, nil
}

func (s *Server) user(id string) string {
	if id == "" {
		return s.userID
	}
	return id
}

func stepMap(in map[string]string) (map[domain.StepKey]string, error) {
	out := make(map[domain.StepKey]string, len(in))
	for k, v := range in {
		step, err := domain.ParseStep(strings.TrimSpace(k))
		if err != nil {
			return nil, err
		}
		out[step] = v
	}
	return out, nil
}

func nonNilMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
