package feedback

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// Rubric is given to the model as context for the evaluation. The model is
// told not to quote it.
const Rubric = `[Scoring rubric and how to raise each score]

1. Understand
- Criterion: summarize requirements, input, output, constraints and edge cases in one unambiguous paragraph
- To raise the score:
  * 40->60: state input and output with concrete types and ranges, add at least 2 edge cases
  * 60->80: connect constraints to algorithm candidates (e.g. n<=1e5 needs O(n))
  * 80->95: explain one counterexample in a line, summarize success and failure as test sentences

2. Decompose
- Criterion: 3 to 7 executable sub-steps, each with an observable action or artifact
- To raise the score:
  * 40->60: split into at least parse input -> core logic -> output
  * 60->80: give each step its input/output state and what changes
  * 80->95: mark dependencies between steps and failure points

3. Pattern
- Criterion: choose a known pattern justified by constraints and data
- To raise the score:
  * 40->60: name 2 candidates with one line of time/space reasoning each
  * 60->80: rule out one candidate with a counterexample
  * 80->95: state the invariant and state definition of the final pattern in 1-2 lines

4. Abstract
- Criterion: drop needless detail, make input -> process -> output flow and state transitions explicit
- To raise the score:
  * 40->60: tabulate I/O (name, type, range, one example)
  * 60->80: draw a text state chart (when each value is updated)
  * 80->95: list the branch for each boundary case (empty, negative, duplicates)

5. Pseudocode
- Criterion: a procedure of sequence, branches and loops that can be implemented, with complexity and invariants checked
- To raise the score:
  * 40->60: 10-20 lines of pseudocode with declarations, loops and conditions
  * 60->80: one loop invariant and the termination condition as comments
  * 80->95: one line of time/space reasoning plus 2 unit tests (input and expected value)`

const evaluationSystemPrompt = "You are a coding coach who adjusts difficulty to the learner's level. " +
	"Skip heavy theory and write short instructions the learner can apply right away."

const noneLabel = "none"

// Prompter builds prompts for the feedback model
type Prompter struct{}

// NewPrompter creates a new prompter
func NewPrompter() *Prompter {
	return &Prompter{}
}

// EvaluationSystemPrompt returns the system prompt for evaluations
func (p *Prompter) EvaluationSystemPrompt() string {
	return evaluationSystemPrompt
}

// BuildEvaluationPrompt constructs the evaluation prompt for a profile
// summary
func (p *Prompter) BuildEvaluationPrompt(summary domain.ProfileSummary) string {
	var sb strings.Builder

	sb.WriteString("You are a coding tutor who quickly fixes a learner's weak points. ")
	sb.WriteString("Answer without exaggeration, with instructions the learner can act on.\n\n")

	sb.WriteString("[Current metrics]\n")
	fmt.Fprintf(&sb, "- Average score: %s\n", avgLine(summary.Avg))
	fmt.Fprintf(&sb, "- Weakest: %s\n", stepList(summary.Weakest))
	fmt.Fprintf(&sb, "- Strength: %s\n", stepList(summary.Strength))
	fmt.Fprintf(&sb, "- Attempts: %d, problems: %d\n\n", summary.Attempts, summary.SolvedCount)

	sb.WriteString("(Reference guide. Do not quote it in the answer.)\n")
	sb.WriteString(Rubric)
	sb.WriteString("\n\n")

	sb.WriteString("[Required output format. Use exactly these headings in this order]\n")
	sb.WriteString("1) One-line diagnosis\n")
	sb.WriteString("2) Common mistakes top 3 (one line each)\n")
	sb.WriteString("3) This week's tasks (based on the 2 weakest steps): Mon, Wed, Fri, 3 lines\n")
	sb.WriteString("4) 5 practice drills (one line each, ready to do)")

	return sb.String()
}

// StepSystemPrompt returns the system prompt for feedback on one step
func (p *Prompter) StepSystemPrompt(step domain.StepKey) string {
	return fmt.Sprintf("You are a trusted senior coding tutor. Give concise feedback on what the student "+
		"wrote in the %s step: 1 line of praise, 2-4 concrete improvements and a 3 item checklist. "+
		"No exaggeration, accuracy first.", step)
}

// BuildStepPrompt returns the user content for step feedback: the request
// itself as JSON
func (p *Prompter) BuildStepPrompt(req StepRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal step request: %w", err)
	}
	return string(data), nil
}

// avgLine renders present step averages in canonical order
func avgLine(avg map[domain.StepKey]int) string {
	parts := make([]string, 0, len(avg))
	for _, step := range domain.Steps {
		v, ok := avg[step]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", step.Label(), v))
	}
	if len(parts) == 0 {
		return noneLabel
	}
	return strings.Join(parts, ", ")
}

func stepList(steps []domain.StepKey) string {
	if len(steps) == 0 {
		return noneLabel
	}
	labels := make([]string, len(steps))
	for i, s := range steps {
		labels[i] = s.Label()
	}
	return strings.Join(labels, ", ")
}
