package scoring

import (
	"strings"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// Heuristic constants. The arithmetic is part of the public contract and
// must stay stable across releases; the keyword lists are not.
const (
	BaseScore      = 40
	KeywordBonus   = 12
	MaxScore       = 100
	emptyTextScore = 0
)

// ScoreOf scores one step's free text against a keyword list.
// Empty (after trimming) text scores 0; otherwise the score starts at 40 and
// gains 12 for every keyword found case-insensitively, capped at 100.
func ScoreOf(text string, keywords []string) int {
	score, _ := Breakdown(text, keywords)
	return score
}

// Breakdown is ScoreOf that also reports which keywords matched, in list
// order.
func Breakdown(text string, keywords []string) (int, []string) {
	if strings.TrimSpace(text) == "" {
		return emptyTextScore, nil
	}

	lower := strings.ToLower(text)
	score := BaseScore
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			score += KeywordBonus
			matched = append(matched, kw)
		}
	}

	return min(score, MaxScore), matched
}

// Keywords is the per-step keyword table.
type Keywords map[domain.StepKey][]string

// DefaultKeywords returns the built-in editorial keyword sets.
func DefaultKeywords() Keywords {
	return Keywords{
		domain.StepUnderstand: {"input", "output", "constraint", "edge", "example"},
		domain.StepDecompose:  {"step", "parse", "loop", "state", "return"},
		domain.StepPattern:    {"o(n", "hash", "two pointer", "sort", "dp", "greedy"},
		domain.StepAbstract:   {"type", "range", "state", "transition", "empty"},
		domain.StepPseudocode: {"for", "if", "while", "return", "invariant"},
	}
}

// Merge returns a copy of k with the steps present in override replaced.
// Unknown step keys in override are ignored.
func (k Keywords) Merge(override map[string][]string) Keywords {
	out := make(Keywords, len(k))
	for step, kws := range k {
		out[step] = append([]string(nil), kws...)
	}
	for name, kws := range override {
		step, err := domain.ParseStep(name)
		if err != nil {
			continue
		}
		out[step] = append([]string(nil), kws...)
	}
	return out
}

// Scorer scores whole submissions with a fixed keyword table.
type Scorer struct {
	keywords Keywords
}

// NewScorer creates a scorer. A nil table falls back to DefaultKeywords.
func NewScorer(keywords Keywords) *Scorer {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	return &Scorer{keywords: keywords}
}

// Keywords returns the keyword list used for step.
func (s *Scorer) Keywords(step domain.StepKey) []string {
	return s.keywords[step]
}

// Score scores a single step.
func (s *Scorer) Score(step domain.StepKey, text string) int {
	return ScoreOf(text, s.keywords[step])
}

// ScoreSteps scores every step that has non-blank input. Steps without
// input stay absent so the lifecycle can tell "skipped" from "scored 0".
func (s *Scorer) ScoreSteps(inputs map[domain.StepKey]string) domain.StepScores {
	scores := make(domain.StepScores, len(inputs))
	for _, step := range domain.Steps {
		text, ok := inputs[step]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		scores[step] = s.Score(step, text)
	}
	return scores
}
