package profile

import (
	"sort"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// TopicStat represents practice statistics for a single problem tag
type TopicStat struct {
	Topic    string `json:"topic"`
	Problems int    `json:"problems"`
	Attempts int    `json:"attempts"`
	Avg      int    `json:"avg"`
	Trend    string `json:"trend"` // "new", "strong", "stable", "struggling", "learning"
}

// TopicStats groups progress records by the tags of their problems.
// Records whose problem is unknown are counted under "general".
func TopicStats(records map[string]domain.ProblemProgress, tagsOf func(problemID string) []string, n int) []TopicStat {
	type acc struct {
		problems, attempts, rateSum int
	}
	byTopic := make(map[string]*acc)

	for id, rec := range records {
		tags := tagsOf(id)
		if len(tags) == 0 {
			tags = []string{"general"}
		}
		rate := LearningRate(rec.Scores)
		for _, tag := range tags {
			a, ok := byTopic[tag]
			if !ok {
				a = &acc{}
				byTopic[tag] = a
			}
			a.problems++
			a.attempts += max(0, rec.Attempts)
			a.rateSum += rate
		}
	}

	topics := make([]TopicStat, 0, len(byTopic))
	for tag, a := range byTopic {
		avg := domain.RoundScore(float64(a.rateSum) / float64(a.problems))
		topics = append(topics, TopicStat{
			Topic:    tag,
			Problems: a.problems,
			Attempts: a.attempts,
			Avg:      avg,
			Trend:    determineTrend(a.attempts, avg),
		})
	}

	// Most practiced first
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Attempts != topics[j].Attempts {
			return topics[i].Attempts > topics[j].Attempts
		}
		return topics[i].Topic < topics[j].Topic
	})

	if n > 0 && len(topics) > n {
		topics = topics[:n]
	}
	return topics
}

// determineTrend labels a topic from its attempt count and average score
func determineTrend(attempts, avg int) string {
	if attempts <= 2 {
		return "new"
	}

	// Simple heuristic based on the average
	if avg >= 80 {
		return "strong"
	} else if avg >= 50 {
		return "stable"
	} else if attempts > 5 {
		return "struggling"
	}

	return "learning"
}
