package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/jayainhufs/coding-sam/internal/storage"
)

// DateLayout is the calendar date format of the last-active value.
const DateLayout = "2006-01-02"

// StreakState is the persisted streak bookkeeping.
type StreakState struct {
	Days       int    `json:"days"`
	LastActive string `json:"lastActive,omitempty"`
}

// AdvanceStreak applies one day of activity. Dates are compared as local
// calendar dates in loc, never as durations:
//
//	last == today      -> unchanged
//	last == yesterday  -> days + 1
//	anything else      -> 1
func AdvanceStreak(prev StreakState, now time.Time, loc *time.Location) StreakState {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	today := local.Format(DateLayout)
	yesterday := local.AddDate(0, 0, -1).Format(DateLayout)

	switch prev.LastActive {
	case today:
		return prev
	case yesterday:
		return StreakState{Days: max(0, prev.Days) + 1, LastActive: today}
	default:
		return StreakState{Days: 1, LastActive: today}
	}
}

// Streak persists the daily streak of one user.
type Streak struct {
	store storage.Store
	loc   *time.Location
}

// NewStreak creates a streak tracker that decides day boundaries in loc.
func NewStreak(store storage.Store, loc *time.Location) *Streak {
	if loc == nil {
		loc = time.Local
	}
	return &Streak{store: store, loc: loc}
}

// Current returns the stored streak without modifying it.
func (s *Streak) Current(ctx context.Context) (StreakState, error) {
	var st StreakState
	if _, err := storage.GetJSON(ctx, s.store, KeyStreak, &st.Days); err != nil {
		return StreakState{}, err
	}
	if _, err := storage.GetJSON(ctx, s.store, KeyLastActive, &st.LastActive); err != nil {
		return StreakState{}, err
	}
	return st, nil
}

// Touch records activity at now and returns the updated streak.
func (s *Streak) Touch(ctx context.Context, now time.Time) (StreakState, error) {
	prev, err := s.Current(ctx)
	if err != nil {
		return StreakState{}, fmt.Errorf("read streak: %w", err)
	}

	next := AdvanceStreak(prev, now, s.loc)
	if next == prev {
		return next, nil
	}

	if err := storage.SetJSON(ctx, s.store, KeyStreak, next.Days); err != nil {
		return StreakState{}, fmt.Errorf("write streak: %w", err)
	}
	if err := storage.SetJSON(ctx, s.store, KeyLastActive, next.LastActive); err != nil {
		return StreakState{}, fmt.Errorf("write last active: %w", err)
	}
	return next, nil
}
