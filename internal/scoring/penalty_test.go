package scoring

import (
	"testing"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

func uniform(v int) domain.StepScores {
	s := make(domain.StepScores)
	for _, step := range domain.Steps {
		s[step] = v
	}
	return s
}

func TestComputeFinal(t *testing.T) {
	tests := []struct {
		name       string
		scores     domain.StepScores
		usage      Usage
		threshold  int
		wantRaw    int
		wantUnits  int
		wantFinal  int
		wantSolved bool
	}{
		{"first request free", uniform(80), Usage{AIRequestCount: 1}, 80, 80, 0, 80, true},
		{"requests and hint", uniform(80), Usage{AIRequestCount: 3, HintCount: 1}, 80, 80, 3, 77, false},
		{"clamped at zero", uniform(10), Usage{AIRequestCount: 20, HintCount: 20}, 80, 10, 39, 0, false},
		{"no usage", uniform(90), Usage{}, 80, 90, 0, 90, true},
		{"negative counters", uniform(85), Usage{AIRequestCount: -4, HintCount: -2}, 80, 85, 0, 85, true},
		{"missing steps count as zero", domain.StepScores{domain.StepUnderstand: 100}, Usage{}, 80, 20, 0, 20, false},
		{"boundary equals threshold", uniform(70), Usage{}, 70, 70, 0, 70, true},
		{"one below threshold", uniform(70), Usage{AIRequestCount: 2}, 70, 70, 1, 69, false},
		{"score above range clamped", domain.StepScores{domain.StepUnderstand: 1000}, Usage{}, 80, 20, 0, 20, false},
		{"score below range clamped", domain.StepScores{domain.StepUnderstand: -400, domain.StepDecompose: 100, domain.StepPattern: 100, domain.StepAbstract: 100, domain.StepPseudocode: 100}, Usage{}, 80, 80, 0, 80, true},
		{"rounds to nearest", domain.StepScores{domain.StepUnderstand: 52, domain.StepDecompose: 40, domain.StepPattern: 40, domain.StepAbstract: 40, domain.StepPseudocode: 40}, Usage{}, 80, 42, 0, 42, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFinal(tt.scores, tt.usage, tt.threshold)

			if got.AvgRaw != tt.wantRaw {
				t.Errorf("AvgRaw = %d; want %d", got.AvgRaw, tt.wantRaw)
			}
			if got.Penalty.Units != tt.wantUnits {
				t.Errorf("Penalty.Units = %d; want %d", got.Penalty.Units, tt.wantUnits)
			}
			if got.FinalAvg != tt.wantFinal {
				t.Errorf("FinalAvg = %d; want %d", got.FinalAvg, tt.wantFinal)
			}
			if got.SolvedNow != tt.wantSolved {
				t.Errorf("SolvedNow = %v; want %v", got.SolvedNow, tt.wantSolved)
			}
			if got.Penalty.Rule != PenaltyRule {
				t.Errorf("Penalty.Rule = %q; want %q", got.Penalty.Rule, PenaltyRule)
			}
		})
	}
}

func TestComputeFinal_SolvedIffAtLeastThreshold(t *testing.T) {
	for final := 0; final <= 100; final += 5 {
		for _, threshold := range []int{1, 50, 80, 100} {
			got := ComputeFinal(uniform(final), Usage{}, threshold)
			want := got.FinalAvg >= threshold
			if got.SolvedNow != want {
				t.Errorf("final=%d threshold=%d: SolvedNow = %v; want %v", got.FinalAvg, threshold, got.SolvedNow, want)
			}
		}
	}
}

func TestNormalizeThreshold(t *testing.T) {
	tests := map[int]int{
		0:   80,
		-3:  1,
		1:   1,
		55:  55,
		100: 100,
		250: 100,
	}
	for in, want := range tests {
		if got := NormalizeThreshold(in); got != want {
			t.Errorf("NormalizeThreshold(%d) = %d; want %d", in, got, want)
		}
	}
}

func TestPenaltyUnits_HintsChargedTwice(t *testing.T) {
	// Two requests, both hints: one paid request plus two hints.
	if got := PenaltyUnits(2, 2); got != 3 {
		t.Errorf("PenaltyUnits(2, 2) = %d; want 3", got)
	}
}
