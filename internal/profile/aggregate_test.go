package profile

import (
	"reflect"
	"testing"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

func TestAggregate_SingleRecord(t *testing.T) {
	records := []domain.ProblemProgress{
		{Scores: domain.StepScores{domain.StepUnderstand: 90, domain.StepDecompose: 10}, Attempts: 2},
	}

	got := Aggregate(records)

	wantAvg := map[domain.StepKey]int{
		domain.StepUnderstand: 90,
		domain.StepDecompose:  10,
		domain.StepPattern:    0,
		domain.StepAbstract:   0,
		domain.StepPseudocode: 0,
	}
	if !reflect.DeepEqual(got.Avg, wantAvg) {
		t.Errorf("Avg = %v; want %v", got.Avg, wantAvg)
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts = %d; want 2", got.Attempts)
	}
	if got.SolvedCount != 1 {
		t.Errorf("SolvedCount = %d; want 1", got.SolvedCount)
	}

	// Ascending: pattern, abstract, pseudocode (all 0), decompose, understand.
	wantWeakest := []domain.StepKey{domain.StepPattern, domain.StepAbstract}
	wantStrength := []domain.StepKey{domain.StepUnderstand, domain.StepDecompose}
	if !reflect.DeepEqual(got.Weakest, wantWeakest) {
		t.Errorf("Weakest = %v; want %v", got.Weakest, wantWeakest)
	}
	if !reflect.DeepEqual(got.Strength, wantStrength) {
		t.Errorf("Strength = %v; want %v", got.Strength, wantStrength)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name         string
		records      []domain.ProblemProgress
		wantAvg      map[domain.StepKey]int
		wantAttempts int
		wantSolved   int
		wantWeakest  []domain.StepKey
		wantStrength []domain.StepKey
	}{
		{
			name:         "no records",
			records:      nil,
			wantAvg:      map[domain.StepKey]int{"understand": 0, "decompose": 0, "pattern": 0, "abstract": 0, "pseudocode": 0},
			wantWeakest:  []domain.StepKey{"understand", "decompose"},
			wantStrength: []domain.StepKey{"pseudocode", "abstract"},
		},
		{
			name: "averages only present scores",
			records: []domain.ProblemProgress{
				{Scores: domain.StepScores{"pattern": 40}, Attempts: 1},
				{Scores: domain.StepScores{"pattern": 65, "abstract": 100}, Attempts: 3},
			},
			// (40+65)/2 = 52.5 rounds to 53
			wantAvg:      map[domain.StepKey]int{"understand": 0, "decompose": 0, "pattern": 53, "abstract": 100, "pseudocode": 0},
			wantAttempts: 4,
			wantSolved:   2,
			wantWeakest:  []domain.StepKey{"understand", "decompose"},
			wantStrength: []domain.StepKey{"abstract", "pattern"},
		},
		{
			name: "clamps out of range scores and negative attempts",
			records: []domain.ProblemProgress{
				{Scores: domain.StepScores{"understand": 150, "decompose": -20}, Attempts: -3},
			},
			wantAvg:      map[domain.StepKey]int{"understand": 100, "decompose": 0, "pattern": 0, "abstract": 0, "pseudocode": 0},
			wantAttempts: 0,
			wantSolved:   1,
			wantWeakest:  []domain.StepKey{"decompose", "pattern"},
			wantStrength: []domain.StepKey{"understand", "pseudocode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.records)
			if !reflect.DeepEqual(got.Avg, tt.wantAvg) {
				t.Errorf("Avg = %v; want %v", got.Avg, tt.wantAvg)
			}
			if got.Attempts != tt.wantAttempts {
				t.Errorf("Attempts = %d; want %d", got.Attempts, tt.wantAttempts)
			}
			if got.SolvedCount != tt.wantSolved {
				t.Errorf("SolvedCount = %d; want %d", got.SolvedCount, tt.wantSolved)
			}
			if !reflect.DeepEqual(got.Weakest, tt.wantWeakest) {
				t.Errorf("Weakest = %v; want %v", got.Weakest, tt.wantWeakest)
			}
			if !reflect.DeepEqual(got.Strength, tt.wantStrength) {
				t.Errorf("Strength = %v; want %v", got.Strength, tt.wantStrength)
			}
		})
	}
}

func TestLearningRate(t *testing.T) {
	tests := []struct {
		name   string
		scores domain.StepScores
		want   int
	}{
		{"empty", nil, 0},
		{"single", domain.StepScores{"pattern": 64}, 64},
		{"mean of present", domain.StepScores{"understand": 90, "decompose": 41}, 66},
		{"ignores unknown steps", domain.StepScores{"pattern": 50, "bogus": 100}, 50},
		{"clamped", domain.StepScores{"pattern": 250}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LearningRate(tt.scores); got != tt.want {
				t.Errorf("LearningRate() = %d; want %d", got, tt.want)
			}
		})
	}
}
