package progress

import "testing"

func TestXPToLevel(t *testing.T) {
	tests := []struct {
		xp   int
		want Level
	}{
		{0, Level{Level: 1, Cur: 0, Need: 100, Pct: 0}},
		{1, Level{Level: 1, Cur: 99, Need: 100, Pct: 1}},
		{99, Level{Level: 1, Cur: 1, Need: 100, Pct: 99}},
		{100, Level{Level: 2, Cur: 0, Need: 100, Pct: 0}},
		{150, Level{Level: 2, Cur: 50, Need: 100, Pct: 50}},
		{1234, Level{Level: 13, Cur: 66, Need: 100, Pct: 34}},
		{-40, Level{Level: 1, Cur: 0, Need: 100, Pct: 0}},
	}

	for _, tt := range tests {
		if got := XPToLevel(tt.xp); got != tt.want {
			t.Errorf("XPToLevel(%d) = %+v; want %+v", tt.xp, got, tt.want)
		}
	}
}

func TestRewardFor(t *testing.T) {
	tests := []struct {
		finalAvg int
		want     int
	}{
		{0, 30},
		{80, 46},
		{85, 47},
		{100, 50},
		{150, 50},
		{-5, 30},
	}

	for _, tt := range tests {
		if got := RewardFor(tt.finalAvg); got != tt.want {
			t.Errorf("RewardFor(%d) = %d; want %d", tt.finalAvg, got, tt.want)
		}
	}
}
