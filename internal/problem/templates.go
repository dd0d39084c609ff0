package problem

import "github.com/jayainhufs/coding-sam/internal/domain"

// DefaultTemplates are shown for problems without their own templates.
var DefaultTemplates = domain.Templates{
	Understand:  "[one-paragraph summary] input / output / constraints / edge cases / one counterexample",
	Decompose:   "1) input 2) core logic 3) output",
	Pattern:     "compare 2 candidates, give a counterexample and the invariant",
	AbstractIn:  "input table",
	AbstractOut: "output + state transition table",
	Pseudocode:  "pseudocode, 10-20 lines",
}

func mergeTemplates(t *domain.Templates) domain.Templates {
	out := DefaultTemplates
	if t == nil {
		return out
	}
	if t.Understand != "" {
		out.Understand = t.Understand
	}
	if t.Decompose != "" {
		out.Decompose = t.Decompose
	}
	if t.Pattern != "" {
		out.Pattern = t.Pattern
	}
	if t.AbstractIn != "" {
		out.AbstractIn = t.AbstractIn
	}
	if t.AbstractOut != "" {
		out.AbstractOut = t.AbstractOut
	}
	if t.Pseudocode != "" {
		out.Pseudocode = t.Pseudocode
	}
	return out
}
