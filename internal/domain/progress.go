package domain

import "time"

// ProblemProgress is the persisted per-problem record for one user.
type ProblemProgress struct {
	Scores   StepScores `json:"scores"`
	Attempts int        `json:"attempts"`
	SolvedAt *time.Time `json:"solvedAt,omitempty"`
}

// Solved reports whether the problem has ever been solved.
func (p ProblemProgress) Solved() bool {
	return p.SolvedAt != nil
}

// State returns the lifecycle state of the record.
func (p *ProblemProgress) State() ProgressState {
	switch {
	case p == nil || p.Attempts == 0:
		return StateUnattempted
	case p.SolvedAt != nil:
		return StateSolved
	default:
		return StateAttempted
	}
}

// ProgressState is the position of a problem in the progress lifecycle.
type ProgressState string

const (
	StateUnattempted ProgressState = "unattempted"
	StateAttempted   ProgressState = "attempted"
	StateSolved      ProgressState = "solved"
)

// ProfileSummary is derived from all progress records of a user. It is
// never stored.
//
// SolvedCount is the number of records aggregated, i.e. problems with any
// recorded progress, not only solved ones. The name is kept for
// compatibility with existing clients.
type ProfileSummary struct {
	Avg         map[StepKey]int `json:"avg"`
	Attempts    int             `json:"attempts"`
	SolvedCount int             `json:"solvedCount"`
	Weakest     []StepKey       `json:"weakest"`
	Strength    []StepKey       `json:"strength"`
}
