package scoring

import "github.com/jayainhufs/coding-sam/internal/domain"

// Penalty rule constants.
const (
	PenaltyPerRequest = 1
	PenaltyPerHint    = 1

	DefaultSolvedThreshold = 80

	PenaltyRule = "first AI request free; then -1 per request and -1 per hint"
)

// Usage holds the assistance counters of one session. Hints are a subset of
// AI requests and are charged in both terms.
type Usage struct {
	AIRequestCount int `json:"aiRequestCount"`
	HintCount      int `json:"hintCount"`
}

// Penalty describes the deduction applied to a submission.
type Penalty struct {
	AIRequestCount int    `json:"aiRequestCount"`
	HintCount      int    `json:"hintCount"`
	Units          int    `json:"units"`
	Rule           string `json:"rule"`
}

// FinalScore is the numeric outcome of a finished attempt.
type FinalScore struct {
	AvgRaw          int     `json:"avgRaw"`
	FinalAvg        int     `json:"finalAvg"`
	Penalty         Penalty `json:"penalty"`
	SolvedThreshold int     `json:"solvedThreshold"`
	SolvedNow       bool    `json:"solvedNow"`
}

// PenaltyUnits returns max(0, requests-1) + max(0, hints).
func PenaltyUnits(requests, hints int) int {
	return max(0, requests-1)*PenaltyPerRequest + max(0, hints)*PenaltyPerHint
}

// NormalizeThreshold clamps t into [1,100]; zero selects the default.
func NormalizeThreshold(t int) int {
	if t == 0 {
		return DefaultSolvedThreshold
	}
	return max(1, min(100, t))
}

// RawAverage is the rounded mean of the five step scores. Missing steps
// count as 0, each score is clamped into [0,100] and the divisor is always
// the number of steps.
func RawAverage(scores domain.StepScores) int {
	sum := 0
	for _, step := range domain.Steps {
		sum += domain.ClampScore(scores[step])
	}
	return domain.RoundScore(float64(sum) / float64(domain.StepCount))
}

// ComputeFinal applies the usage penalty to a submission's scores. It never
// fails: negative counters are treated as 0 and the threshold is clamped.
func ComputeFinal(scores domain.StepScores, usage Usage, threshold int) FinalScore {
	requests := max(0, usage.AIRequestCount)
	hints := max(0, usage.HintCount)
	threshold = NormalizeThreshold(threshold)

	avgRaw := RawAverage(scores)
	units := PenaltyUnits(requests, hints)
	finalAvg := domain.ClampScore(avgRaw - units)

	return FinalScore{
		AvgRaw:   avgRaw,
		FinalAvg: finalAvg,
		Penalty: Penalty{
			AIRequestCount: requests,
			HintCount:      hints,
			Units:          units,
			Rule:           PenaltyRule,
		},
		SolvedThreshold: threshold,
		SolvedNow:       finalAvg >= threshold,
	}
}
