package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/progress"
)

// topTopics is the number of topics shown on the dashboard
const topTopics = 5

// Dashboard is everything the learner home screen shows
type Dashboard struct {
	Summary      domain.ProfileSummary `json:"summary"`
	Steps        []StepStat            `json:"steps"`
	LearningRate int                   `json:"learningRate"`
	XP           int                   `json:"xp"`
	Level        progress.Level        `json:"level"`
	Streak       progress.StreakState  `json:"streak"`
	Solved       []string              `json:"solved"`
	Topics       []TopicStat           `json:"topics"`
	Recommended  *domain.Problem       `json:"recommended,omitempty"`
}

// Service handles profile business logic
type Service struct {
	trackers TrackerSource
	problems ProblemSource
}

// NewService creates a new profile service. problems may be nil, in which
// case the dashboard has no recommendation and no topic breakdown.
func NewService(trackers TrackerSource, problems ProblemSource) *Service {
	return &Service{trackers: trackers, problems: problems}
}

// Summary aggregates the user's progress records
func (s *Service) Summary(ctx context.Context, userID string) (*domain.ProfileSummary, error) {
	records, err := s.trackers.For(userID).Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	summary := Aggregate(records)
	return &summary, nil
}

// Dashboard combines the summary with XP, streak and recommendations
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	tracker := s.trackers.For(userID)

	all, err := tracker.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	records, err := tracker.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	steps := StepStats(records)
	dash := &Dashboard{
		Summary:      Aggregate(records),
		Steps:        steps,
		LearningRate: LearningRate(sampledAverages(steps)),
	}

	if dash.XP, err = tracker.XP().Total(ctx); err != nil {
		return nil, err
	}
	dash.Level = progress.XPToLevel(dash.XP)

	if dash.Streak, err = tracker.Streak().Current(ctx); err != nil {
		return nil, err
	}
	if dash.Solved, err = tracker.Solved(ctx); err != nil {
		return nil, err
	}

	dash.Topics = TopicStats(all, s.tagsOf, topTopics)

	if s.problems != nil {
		rec, err := s.problems.Recommended()
		if err != nil && !errors.Is(err, domain.ErrProblemNotFound) {
			return nil, err
		}
		dash.Recommended = rec
	}

	slog.Debug("dashboard built", "user", userID, "records", len(records), "xp", dash.XP)
	return dash, nil
}

func (s *Service) tagsOf(problemID string) []string {
	if s.problems == nil {
		return nil
	}
	p, err := s.problems.Get(problemID)
	if err != nil {
		return nil
	}
	return p.Tags
}

// sampledAverages keeps only steps that have at least one sample.
func sampledAverages(steps []StepStat) domain.StepScores {
	out := make(domain.StepScores, len(steps))
	for _, st := range steps {
		if st.Samples > 0 {
			out[st.Step] = st.Avg
		}
	}
	return out
}
