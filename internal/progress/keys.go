// Package progress owns the stateful side of learning: XP and levels, the
// daily streak, and the per-problem progress lifecycle. Everything is
// persisted through an injected storage.Store.
package progress

// Store keys. They match the keys existing browser clients use, so data can
// be imported without renaming.
const (
	KeyXP         = "coding-sam:xp"
	KeyProgress   = "coding-sam:progress"
	KeySolved     = "coding-sam:solved"
	KeyStreak     = "coding-sam:streak"
	KeyLastActive = "coding-sam:lastActive"
)
