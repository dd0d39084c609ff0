package profile

import (
	"context"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/progress"
)

// ProfileService defines the interface for profile operations
// used by the daemon handlers
type ProfileService interface {
	// Summary aggregates the user's progress records
	Summary(ctx context.Context, userID string) (*domain.ProfileSummary, error)

	// Dashboard combines the summary with XP, streak and recommendations
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
}

// TrackerSource hands out per-user progress trackers
type TrackerSource interface {
	For(userID string) *progress.Tracker
}

// ProblemSource looks up problems for recommendations and topic stats
type ProblemSource interface {
	Get(id string) (*domain.Problem, error)
	Recommended() (*domain.Problem, error)
}

// Ensure Service implements ProfileService
var _ ProfileService = (*Service)(nil)
