package profile

import (
	"sort"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// summaryEdge is how many steps are reported as weakest and as strongest.
const summaryEdge = 2

// StepStat is the aggregate of one step across all records.
type StepStat struct {
	Step    domain.StepKey `json:"step"`
	Label   string         `json:"label"`
	Avg     int            `json:"avg"`
	Samples int            `json:"samples"`
}

// StepStats averages every step over the records that carry a score for
// it. Scores are clamped before summing. The result is in canonical order.
func StepStats(records []domain.ProblemProgress) []StepStat {
	stats := make([]StepStat, 0, domain.StepCount)
	for _, step := range domain.Steps {
		sum, cnt := 0, 0
		for _, rec := range records {
			v, ok := rec.Scores.Get(step)
			if !ok {
				continue
			}
			sum += domain.ClampScore(v)
			cnt++
		}

		avg := 0
		if cnt > 0 {
			avg = domain.RoundScore(float64(sum) / float64(cnt))
		}
		stats = append(stats, StepStat{Step: step, Label: step.Label(), Avg: avg, Samples: cnt})
	}
	return stats
}

// Aggregate summarizes all progress records of a user.
//
// Steps without samples average 0. Steps are ranked by ascending average
// with ties kept in canonical order, so weakest is the first two and
// strength the last two in reverse.
func Aggregate(records []domain.ProblemProgress) domain.ProfileSummary {
	stats := StepStats(records)

	avg := make(map[domain.StepKey]int, len(stats))
	for _, st := range stats {
		avg[st.Step] = st.Avg
	}

	attempts := 0
	for _, rec := range records {
		attempts += max(0, rec.Attempts)
	}

	ranked := make([]domain.StepKey, 0, len(stats))
	for _, st := range stats {
		ranked = append(ranked, st.Step)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return avg[ranked[i]] < avg[ranked[j]]
	})

	weakest := append([]domain.StepKey(nil), ranked[:summaryEdge]...)
	strength := make([]domain.StepKey, 0, summaryEdge)
	for i := len(ranked) - 1; i >= len(ranked)-summaryEdge; i-- {
		strength = append(strength, ranked[i])
	}

	return domain.ProfileSummary{
		Avg:         avg,
		Attempts:    attempts,
		SolvedCount: len(records),
		Weakest:     weakest,
		Strength:    strength,
	}
}

// LearningRate is the rounded mean of the present scores, clamped to
// [0,100]. It is 0 when no step has a score.
func LearningRate(scores domain.StepScores) int {
	sum, cnt := 0, 0
	for _, step := range domain.Steps {
		v, ok := scores.Get(step)
		if !ok {
			continue
		}
		sum += v
		cnt++
	}
	if cnt == 0 {
		return 0
	}
	return domain.ClampScore(domain.RoundScore(float64(sum) / float64(cnt)))
}
