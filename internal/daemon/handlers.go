package daemon

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/problem"
	"github.com/jayainhufs/coding-sam/internal/progress"
	"github.com/jayainhufs/coding-sam/internal/queue"
	"github.com/jayainhufs/coding-sam/internal/runner"
	"github.com/jayainhufs/coding-sam/internal/scoring"
)

// maxBodyBytes bounds request bodies. Run requests carry source code.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":           "running",
		"version":          Version,
		"llm_providers":    s.llmRegistry.List(),
		"default_provider": s.llmRegistry.DefaultName(),
		"runner":           s.executor.Name(),
		"storage":          s.cfg.Storage.Driver,
		"queue":            s.runs != nil,
		"problems":         len(s.catalog.All()),
	})
}

// Problem handlers

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	limit, err := intParam(params.Get("limit"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid limit", err)
		return
	}
	offset, err := intParam(params.Get("offset"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid offset", err)
		return
	}

	page := s.catalog.Search(problem.Query{
		Text:       params.Get("q"),
		Difficulty: domain.Difficulty(params.Get("difficulty")),
		Tags:       params["tag"],
		Sort:       params.Get("sort"),
		Limit:      limit,
		Offset:     offset,
	})
	s.jsonResponse(w, http.StatusOK, page)
}

func (s *Server) handleRecommendedProblem(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Recommended()
	if err != nil {
		s.fail(w, "no problems available", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.PathValue("id"))
	if err != nil {
		s.fail(w, "problem not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleProblemTemplates(w http.ResponseWriter, r *http.Request) {
	t, err := s.catalog.Templates(r.PathValue("id"))
	if err != nil {
		s.fail(w, "problem not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, t)
}

func (s *Server) handleTopTags(w http.ResponseWriter, r *http.Request) {
	n := problem.DefaultTopTags
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := intParam(raw)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid n", err)
			return
		}
		n = v
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"tags": s.catalog.TopTags(n),
	})
}

// Scoring & feedback handlers

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step   string            `json:"step"`
		Text   string            `json:"text"`
		Inputs map[string]string `json:"inputs"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if len(req.Inputs) > 0 {
		inputs, err := parseStepMap(req.Inputs)
		if err != nil {
			s.fail(w, "invalid step", err)
			return
		}
		scores := s.scorer.ScoreSteps(inputs)
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"scores": scores,
			"avgRaw": scoring.RawAverage(scores),
		})
		return
	}

	step, err := domain.ParseStep(req.Step)
	if err != nil {
		s.fail(w, "step or inputs is required", err)
		return
	}
	score, matched := scoring.Breakdown(req.Text, s.scorer.Keywords(step))
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"step":    step,
		"score":   score,
		"matched": matched,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req, err := s.feedback.DecodeStepRequest(raw)
	if err != nil {
		s.fail(w, "invalid feedback request", err)
		return
	}

	message, err := s.feedback.StepFeedback(r.Context(), *req)
	if err != nil {
		s.fail(w, "feedback generation failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"message": message})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	evalError := func(err error) {
		s.jsonResponse(w, http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
	}

	raw, err := readBody(r)
	if err != nil {
		evalError(err)
		return
	}
	req, err := s.feedback.DecodeEvaluateRequest(raw)
	if err != nil {
		evalError(err)
		return
	}

	resp := s.feedback.Evaluate(r.Context(), *req)
	s.metrics.ObserveEvaluation(resp.Fallback, resp.SolvedNow)
	s.jsonResponse(w, http.StatusOK, resp)
}

// Progress handlers

func (s *Server) tracker(w http.ResponseWriter, r *http.Request) (*progress.Tracker, string, bool) {
	id, err := userID(r)
	if err != nil {
		s.fail(w, "invalid user", err)
		return nil, "", false
	}
	return s.trackers.For(id), id, true
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	tracker, _, ok := s.tracker(w, r)
	if !ok {
		return
	}

	problemID := r.PathValue("id")
	if _, err := s.catalog.Get(problemID); err != nil {
		s.fail(w, "problem not found", err)
		return
	}

	var req struct {
		Inputs          map[string]string `json:"inputs"`
		Scores          map[string]int    `json:"scores"`
		AIRequestCount  int               `json:"aiRequestCount"`
		HintCount       int               `json:"hintCount"`
		SolvedThreshold int               `json:"solvedThreshold"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var scores domain.StepScores
	switch {
	case len(req.Inputs) > 0:
		inputs, err := parseStepMap(req.Inputs)
		if err != nil {
			s.fail(w, "invalid step", err)
			return
		}
		scores = s.scorer.ScoreSteps(inputs)
	case len(req.Scores) > 0:
		scores = make(domain.StepScores, len(req.Scores))
		for k, v := range req.Scores {
			step, err := domain.ParseStep(k)
			if err != nil {
				s.fail(w, "invalid step", err)
				return
			}
			scores[step] = v
		}
	default:
		s.jsonError(w, http.StatusBadRequest, "inputs or scores is required", nil)
		return
	}

	threshold := req.SolvedThreshold
	if threshold == 0 {
		threshold = s.cfg.Scoring.SolvedThreshold
	}

	out, err := tracker.Submit(r.Context(), progress.Submission{
		ProblemID:       problemID,
		Scores:          scores,
		Usage:           scoring.Usage{AIRequestCount: req.AIRequestCount, HintCount: req.HintCount},
		SolvedThreshold: threshold,
	})
	if err != nil {
		s.fail(w, "failed to record submission", err)
		return
	}
	s.metrics.ObserveSubmission(out.Result.SolvedNow)
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	tracker, _, ok := s.tracker(w, r)
	if !ok {
		return
	}
	all, err := tracker.All(r.Context())
	if err != nil {
		s.fail(w, "failed to load progress", err)
		return
	}
	solved, err := tracker.Solved(r.Context())
	if err != nil {
		s.fail(w, "failed to load solved list", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"progress": all,
		"solved":   solved,
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	tracker, _, ok := s.tracker(w, r)
	if !ok {
		return
	}
	rec, err := tracker.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "progress not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

func (s *Server) handleXP(w http.ResponseWriter, r *http.Request) {
	tracker, _, ok := s.tracker(w, r)
	if !ok {
		return
	}
	total, err := tracker.XP().Total(r.Context())
	if err != nil {
		s.fail(w, "failed to load xp", err)
		return
	}
	streak, err := tracker.Streak().Current(r.Context())
	if err != nil {
		s.fail(w, "failed to load streak", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"xp":     total,
		"level":  progress.XPToLevel(total),
		"streak": streak,
	})
}

// Profile handlers

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		s.fail(w, "invalid user", err)
		return
	}
	summary, err := s.profileService.Summary(r.Context(), id)
	if err != nil {
		s.fail(w, "failed to get profile", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		s.fail(w, "invalid user", err)
		return
	}
	dash, err := s.profileService.Dashboard(r.Context(), id)
	if err != nil {
		s.fail(w, "failed to get dashboard", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, dash)
}

// Run handlers

type runRequest struct {
	Language  string `json:"language"`
	Code      string `json:"code"`
	Stdin     string `json:"stdin"`
	ProblemID string `json:"problemId,omitempty"`
}

func (req runRequest) toRunner() (runner.RunRequest, error) {
	lang, err := runner.ParseLanguage(req.Language)
	if err != nil {
		return runner.RunRequest{}, err
	}
	out := runner.RunRequest{Language: lang, Source: req.Code, Stdin: req.Stdin}
	return out, out.Validate()
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		s.handleQueueRun(w, r)
		return
	}

	var req runRequest
	if err := decodeBody(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	runReq, err := req.toRunner()
	if err != nil {
		s.fail(w, "invalid run request", err)
		return
	}

	result, err := s.runner.Execute(r.Context(), runReq)
	if err != nil {
		s.fail(w, "run failed", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"ok":     result.OK(),
		"result": result,
	})
}

func (s *Server) handleQueueRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.fail(w, "async runs are not enabled", domain.ErrQueueDisabled)
		return
	}
	uid, err := userID(r)
	if err != nil {
		s.fail(w, "invalid user", err)
		return
	}

	var req runRequest
	if err := decodeBody(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	runReq, err := req.toRunner()
	if err != nil {
		s.fail(w, "invalid run request", err)
		return
	}

	timeout := time.Duration(s.cfg.Queue.JobTimeoutSeconds) * time.Second
	job := queue.NewRunJob(uid, req.ProblemID, runReq, timeout)
	pending, err := s.runs.Submit(r.Context(), job)
	if err != nil {
		s.fail(w, "failed to queue run", err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"id":     job.ID,
		"status": pending.Status,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.fail(w, "async runs are not enabled", domain.ErrQueueDisabled)
		return
	}
	uid, err := userID(r)
	if err != nil {
		s.fail(w, "invalid user", err)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid run id", err)
		return
	}

	result, err := s.runs.Get(uid, id)
	if err != nil {
		s.fail(w, "run not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// Request helpers

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrInvalidRequest, maxBodyBytes)
	}
	return data, nil
}

func decodeBody(r *http.Request, v any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func parseStepMap(in map[string]string) (map[domain.StepKey]string, error) {
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

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", domain.ErrInvalidRequest, raw)
	}
	return v, nil
}
