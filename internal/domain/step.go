package domain

import (
	"fmt"
	"math"
)

// StepKey identifies one of the five fixed problem-solving phases.
type StepKey string

const (
	StepUnderstand StepKey = "understand"
	StepDecompose  StepKey = "decompose"
	StepPattern    StepKey = "pattern"
	StepAbstract   StepKey = "abstract"
	StepPseudocode StepKey = "pseudocode"
)

// Steps is the canonical step order. Iteration, display and tie-breaking
// all follow this order.
var Steps = [...]StepKey{
	StepUnderstand,
	StepDecompose,
	StepPattern,
	StepAbstract,
	StepPseudocode,
}

// StepCount is the fixed divisor used when averaging a submission.
const StepCount = len(Steps)

var stepLabels = map[StepKey]string{
	StepUnderstand: "Understand",
	StepDecompose:  "Decompose",
	StepPattern:    "Pattern",
	StepAbstract:   "Abstract",
	StepPseudocode: "Pseudocode",
}

// Valid reports whether k is one of the five known steps.
func (k StepKey) Valid() bool {
	_, ok := stepLabels[k]
	return ok
}

// Label returns the human readable name of the step.
func (k StepKey) Label() string {
	if l, ok := stepLabels[k]; ok {
		return l
	}
	return string(k)
}

// Index returns the canonical position of the step, or -1.
func (k StepKey) Index() int {
	for i, s := range Steps {
		if s == k {
			return i
		}
	}
	return -1
}

// ParseStep converts a string to a StepKey.
func ParseStep(s string) (StepKey, error) {
	k := StepKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStep, s)
	}
	return k, nil
}

// StepScores maps steps to scores in [0,100]. A step that has not been
// attempted is absent, not zero.
type StepScores map[StepKey]int

// Get returns the score for k and whether it is present.
func (s StepScores) Get(k StepKey) (int, bool) {
	v, ok := s[k]
	return v, ok
}

// Clone returns an independent copy.
func (s StepScores) Clone() StepScores {
	if s == nil {
		return nil
	}
	out := make(StepScores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Normalized returns a copy with unknown keys dropped and every value
// clamped into [0,100].
func (s StepScores) Normalized() StepScores {
	out := make(StepScores, len(s))
	for k, v := range s {
		if !k.Valid() {
			continue
		}
		out[k] = ClampScore(v)
	}
	return out
}

// ClampScore clamps v into [0,100].
func ClampScore(v int) int {
	return max(0, min(100, v))
}

// RoundScore rounds half up (2.5 -> 3, -2.5 -> -2).
func RoundScore(v float64) int {
	return int(math.Floor(v + 0.5))
}
