package progress

import "github.com/jayainhufs/coding-sam/internal/domain"

// PerLevelXP is the fixed cost of every level.
const PerLevelXP = 100

// Solve reward policy: a base amount plus a bonus scaled by the final score.
const (
	RewardBase  = 30
	RewardBonus = 20
)

// Level describes where an XP total sits in the level ladder.
//
// Cur is the XP still missing to reach the next level. It is 0 right on a
// level boundary rather than PerLevelXP.
type Level struct {
	Level int `json:"level"`
	Cur   int `json:"cur"`
	Need  int `json:"need"`
	Pct   int `json:"pct"`
}

// XPToLevel converts a total XP into a Level. Negative totals count as 0.
func XPToLevel(totalXP int) Level {
	xp := max(0, totalXP)

	filled := xp % PerLevelXP
	remain := PerLevelXP - filled
	if remain == PerLevelXP {
		remain = 0
	}

	return Level{
		Level: xp/PerLevelXP + 1,
		Cur:   remain,
		Need:  PerLevelXP,
		Pct:   domain.RoundScore(float64(filled) / PerLevelXP * 100),
	}
}

// RewardFor returns the XP awarded for solving with finalAvg, in [30,50].
func RewardFor(finalAvg int) int {
	return RewardBase + domain.RoundScore(float64(domain.ClampScore(finalAvg))/100*RewardBonus)
}
