package main

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/feedback"
	"github.com/jayainhufs/coding-sam/internal/progress"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate your profile: penalized final average plus coaching",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := cmd.Context()

		var summary domain.ProfileSummary
		if err := c.get(ctx, "/v1/profile", nil, &summary); err != nil {
			return err
		}

		ai, _ := cmd.Flags().GetInt("ai")
		hints, _ := cmd.Flags().GetInt("hints")
		body := map[string]any{
			"summary":        summary,
			"aiRequestCount": ai,
			"hintCount":      hints,
		}
		if t, _ := cmd.Flags().GetFloat64("threshold"); t > 0 {
			body["solvedThreshold"] = t
		}

		var resp feedback.EvaluateResponse
		if err := c.post(ctx, "/v1/evaluate", body, &resp); err != nil {
			return err
		}
		printEvaluation(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().Int("ai", 0, "AI feedback requests made")
	evaluateCmd.Flags().Int("hints", 0, "Hints opened")
	evaluateCmd.Flags().Float64("threshold", 0, "Solved threshold in [1,100] (default 80)")
}

func printEvaluation(out io.Writer, resp feedback.EvaluateResponse) {
	fmt.Fprintln(out, titleStyle.Render("Evaluation"))
	fmt.Fprintln(out, renderKV("Raw avg:", resp.AvgRaw))
	fmt.Fprintln(out, renderKV("Penalty:", fmt.Sprintf("-%d (%s)", resp.Penalty.Units, resp.Penalty.Rule)))
	fmt.Fprintln(out, renderKV("Final avg:", scoreStyle(resp.FinalAvg).Render(fmt.Sprint(resp.FinalAvg))))
	fmt.Fprintln(out, renderKV("Solved:", fmt.Sprintf("%s (threshold %d)", mark(resp.SolvedNow), resp.SolvedThreshold)))
	fmt.Fprintln(out)
	if resp.Fallback {
		fmt.Fprintln(out, warnStyle.Render("No model available, showing the built-in report."))
	}
	fmt.Fprintln(out, boxStyle.Render(resp.Text))
}

// stepFile is the YAML layout accepted by submit
type stepFile struct {
	Understand string `yaml:"understand"`
	Decompose  string `yaml:"decompose"`
	Pattern    string `yaml:"pattern"`
	Abstract   string `yaml:"abstract"`
	Pseudocode string `yaml:"pseudocode"`
}

func (f stepFile) inputs() map[domain.StepKey]string {
	return map[domain.StepKey]string{
		domain.StepUnderstand: f.Understand,
		domain.StepDecompose:  f.Decompose,
		domain.StepPattern:    f.Pattern,
		domain.StepAbstract:   f.Abstract,
		domain.StepPseudocode: f.Pseudocode,
	}
}

func readStepFile(path string) (*stepFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	var f stepFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse steps: %w", err)
	}
	return &f, nil
}

var submitCmd = &cobra.Command{
	Use:   "submit <problem-id> <steps.yaml>",
	Short: "Score written steps and record the attempt",
	Long: `Submit reads a YAML file with one key per step (understand, decompose,
pattern, abstract, pseudocode), scores it and records the attempt.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := readStepFile(args[1])
		if err != nil {
			return err
		}

		ai, _ := cmd.Flags().GetInt("ai")
		hints, _ := cmd.Flags().GetInt("hints")

		var outcome progress.Outcome
		err = newClient().post(cmd.Context(), "/v1/problems/"+url.PathEscape(args[0])+"/submissions", map[string]any{
			"inputs":         steps.inputs(),
			"aiRequestCount": ai,
			"hintCount":      hints,
		}, &outcome)
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), outcome)
		return nil
	},
}

func init() {
	submitCmd.Flags().Int("ai", 0, "AI feedback requests made during the attempt")
	submitCmd.Flags().Int("hints", 0, "Hints opened during the attempt")
	rootCmd.AddCommand(submitCmd)
}

func printOutcome(out io.Writer, o progress.Outcome) {
	for _, step := range domain.Steps {
		score, ok := o.Progress.Scores.Get(step)
		if !ok {
			fmt.Fprintf(out, "%-12s %s\n", step.Label(), labelStyle.Render("-"))
			continue
		}
		fmt.Fprintf(out, "%-12s %s %s\n", step.Label(), renderProgressBar(score, 20), scoreStyle(score).Render(fmt.Sprintf("%3d", score)))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderKV("Final avg:", fmt.Sprintf("%d (raw %d, -%d)", o.Result.FinalAvg, o.Result.AvgRaw, o.Result.Penalty.Units)))
	fmt.Fprintln(out, renderKV("State:", fmt.Sprintf("%s → %s", o.Previous, o.State)))
	if o.XPAwarded > 0 {
		fmt.Fprintln(out, renderKV("XP:", okStyle.Render(fmt.Sprintf("+%d", o.XPAwarded))))
	}
	printLevel(out, o.XP, o.Level, o.Streak)
}
