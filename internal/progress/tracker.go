package progress

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/scoring"
	"github.com/jayainhufs/coding-sam/internal/storage"
)

// Submission is one finished attempt at a problem.
type Submission struct {
	ProblemID       string
	Scores          domain.StepScores
	Usage           scoring.Usage
	SolvedThreshold int
}

// Outcome reports everything a submission changed.
type Outcome struct {
	ProblemID string                 `json:"problemId"`
	Progress  domain.ProblemProgress `json:"progress"`
	Previous  domain.ProgressState   `json:"previousState"`
	State     domain.ProgressState   `json:"state"`
	Result    scoring.FinalScore     `json:"result"`
	XPAwarded int                    `json:"xpAwarded"`
	XP        int                    `json:"xp"`
	Level     Level                  `json:"level"`
	Streak    StreakState            `json:"streak"`
}

// Advance computes the next progress record from prev. The first submission
// starts attempts at 1, later ones increment it. Scores are replaced, never
// merged. SolvedAt is set, or refreshed, whenever solvedNow is true and is
// kept otherwise.
func Advance(prev *domain.ProblemProgress, scores domain.StepScores, solvedNow bool, now time.Time) domain.ProblemProgress {
	next := domain.ProblemProgress{
		Scores:   scores.Normalized(),
		Attempts: 1,
	}
	if prev != nil {
		next.Attempts = max(0, prev.Attempts) + 1
		next.SolvedAt = prev.SolvedAt
	}
	if solvedNow {
		at := now.UTC()
		next.SolvedAt = &at
	}
	return next
}

// Tracker owns the progress records, XP and streak of a single user.
type Tracker struct {
	mu     sync.Mutex
	store  storage.Store
	xp     *XP
	streak *Streak
	now    func() time.Time
}

// NewTracker creates a tracker over store. A nil clock uses time.Now.
func NewTracker(store storage.Store, loc *time.Location, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		store:  store,
		xp:     NewXP(store),
		streak: NewStreak(store, loc),
		now:    now,
	}
}

// XP returns the user's XP counter.
func (t *Tracker) XP() *XP { return t.xp }

// Streak returns the user's streak tracker.
func (t *Tracker) Streak() *Streak { return t.streak }

// Submit scores a submission and records it. A solved submission adds the
// problem to the solved list and awards XP.
func (t *Tracker) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.ProblemID == "" {
		return nil, fmt.Errorf("%w: problem id is required", domain.ErrInvalidRequest)
	}

	scores := sub.Scores.Normalized()
	result := scoring.ComputeFinal(scores, sub.Usage, sub.SolvedThreshold)

	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	now := t.now()
	var prev *domain.ProblemProgress
	if rec, ok := records[sub.ProblemID]; ok {
		prev = &rec
	}

	next := Advance(prev, scores, result.SolvedNow, now)
	records[sub.ProblemID] = next
	if err := storage.SetJSON(ctx, t.store, KeyProgress, records); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}

	out := &Outcome{
		ProblemID: sub.ProblemID,
		Progress:  next,
		Previous:  prev.State(),
		State:     next.State(),
		Result:    result,
	}

	if result.SolvedNow {
		if err := t.markSolved(ctx, sub.ProblemID); err != nil {
			return nil, err
		}
		out.XPAwarded = RewardFor(result.FinalAvg)
		if _, err := t.xp.Add(ctx, out.XPAwarded); err != nil {
			return nil, err
		}
	}

	if out.XP, err = t.xp.Total(ctx); err != nil {
		return nil, err
	}
	out.Level = XPToLevel(out.XP)

	if out.Streak, err = t.streak.Touch(ctx, now); err != nil {
		return nil, err
	}

	slog.Info("submission recorded",
		"problem_id", sub.ProblemID,
		"attempts", next.Attempts,
		"final_avg", result.FinalAvg,
		"solved", result.SolvedNow,
		"xp_awarded", out.XPAwarded,
	)

	return out, nil
}

// Get returns the progress record of one problem, or domain.ErrNotFound.
func (t *Tracker) Get(ctx context.Context, problemID string) (*domain.ProblemProgress, error) {
	records, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := records[problemID]
	if !ok {
		return nil, fmt.Errorf("progress for %q: %w", problemID, domain.ErrNotFound)
	}
	return &rec, nil
}

// All returns every progress record keyed by problem id.
func (t *Tracker) All(ctx context.Context) (map[string]domain.ProblemProgress, error) {
	return t.load(ctx)
}

// Records returns every progress record ordered by problem id.
func (t *Tracker) Records(ctx context.Context) ([]domain.ProblemProgress, error) {
	records, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.ProblemProgress, 0, len(ids))
	for _, id := range ids {
		out = append(out, records[id])
	}
	return out, nil
}

// Solved returns the ids of solved problems in the order they were first
// solved.
func (t *Tracker) Solved(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := storage.GetJSON(ctx, t.store, KeySolved, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (t *Tracker) markSolved(ctx context.Context, problemID string) error {
	ids, err := t.Solved(ctx)
	if err != nil {
		return fmt.Errorf("read solved: %w", err)
	}
	if slices.Contains(ids, problemID) {
		return nil
	}
	if err := storage.SetJSON(ctx, t.store, KeySolved, append(ids, problemID)); err != nil {
		return fmt.Errorf("save solved: %w", err)
	}
	return nil
}

func (t *Tracker) load(ctx context.Context) (map[string]domain.ProblemProgress, error) {
	records := make(map[string]domain.ProblemProgress)
	if _, err := storage.GetJSON(ctx, t.store, KeyProgress, &records); err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if records == nil {
		records = make(map[string]domain.ProblemProgress)
	}
	return records, nil
}
