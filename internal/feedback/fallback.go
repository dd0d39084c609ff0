package feedback

import (
	"fmt"
	"strings"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// LocalFallback returns the report shown when no model answer is available.
// The output depends only on summary.
func LocalFallback(summary domain.ProfileSummary) string {
	lines := []string{
		fmt.Sprintf("Summary: %s. %d attempts / %d problems.",
			avgLine(summary.Avg), summary.Attempts, summary.SolvedCount),
		"",
		"Common mistakes top 3",
		"1) Requirements, constraints and edge cases are not tabulated -> pin down 2 edge cases first",
		"2) Decomposition steps have no artifacts -> label each step with its input -> output",
		"3) No reason given for the pattern -> 2 candidates plus one line each on why one was dropped and one chosen",
		"",
		"This week's tasks (weak points)",
		"- Mon: retrain weak point 1 on 2 easy problems using the checklist template",
		"- Wed: weak point 2 on one medium problem, 15 lines of pseudocode and 1 invariant",
		"- Fri: solve one variant with your strongest step and note a counterexample",
		"",
		"5 practice drills",
		"- Summarize a problem in one paragraph (input, output, constraints, edge cases)",
		"- Split the requirements into 3-7 steps with one line of input/output each",
		"- Write 2 pattern candidates with one reason to drop and one reason to choose",
		"- Draw the state transitions as a text diagram",
		"- 10-20 lines of pseudocode plus 2 test cases (input and expected value)",
	}
	return strings.Join(lines, "\n")
}
