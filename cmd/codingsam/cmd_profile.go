package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/profile"
	"github.com/jayainhufs/coding-sam/internal/progress"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show step averages, weak and strong steps, and solved problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		var dash profile.Dashboard
		if err := newClient().get(cmd.Context(), "/v1/dashboard", nil, &dash); err != nil {
			return err
		}
		printDashboard(cmd.OutOrStdout(), dash)
		return nil
	},
}

func printDashboard(out io.Writer, dash profile.Dashboard) {
	fmt.Fprintln(out, titleStyle.Render("Profile"))
	fmt.Fprintln(out, renderKV("Attempts:", dash.Summary.Attempts))
	fmt.Fprintln(out, renderKV("Solved:", len(dash.Solved)))
	fmt.Fprintln(out, renderKV("Learning:", fmt.Sprintf("%d%%", dash.LearningRate)))
	printLevel(out, dash.XP, dash.Level, dash.Streak)

	if dash.Summary.Attempts == 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No attempts yet. Try 'codingsam problem' to get started.")
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Steps"))
	for _, st := range dash.Steps {
		fmt.Fprintf(out, "%-12s %s %s %s\n",
			st.Label,
			renderProgressBar(st.Avg, 20),
			scoreStyle(st.Avg).Render(fmt.Sprintf("%3d", st.Avg)),
			labelStyle.Render(fmt.Sprintf("(%d samples)", st.Samples)))
	}
	fmt.Fprintln(out, renderKV("Weakest:", joinSteps(dash.Summary.Weakest)))
	fmt.Fprintln(out, renderKV("Strongest:", joinSteps(dash.Summary.Strength)))

	if len(dash.Topics) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Topics"))
		for _, t := range dash.Topics {
			fmt.Fprintf(out, "%-20s %s %3d%% (%d attempts) %s\n",
				t.Topic, renderProgressBar(t.Avg, 20), t.Avg, t.Attempts, labelStyle.Render(t.Trend))
		}
	}

	if dash.Recommended != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderKV("Next:", dash.Recommended.Title+" ("+dash.Recommended.ID+")"))
	}
}

func joinSteps(steps []domain.StepKey) string {
	labels := make([]string, len(steps))
	for i, s := range steps {
		labels[i] = s.Label()
	}
	return strings.Join(labels, ", ")
}

// xpResponse is the /v1/xp response
type xpResponse struct {
	XP     int                  `json:"xp"`
	Level  progress.Level       `json:"level"`
	Streak progress.StreakState `json:"streak"`
}

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Show XP, level and streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp xpResponse
		if err := newClient().get(cmd.Context(), "/v1/xp", nil, &resp); err != nil {
			return err
		}
		printLevel(cmd.OutOrStdout(), resp.XP, resp.Level, resp.Streak)
		return nil
	},
}

func printLevel(out io.Writer, xp int, level progress.Level, streak progress.StreakState) {
	fmt.Fprintln(out, renderKV("Level:", fmt.Sprintf("%d %s %d/%d XP", level.Level, renderProgressBar(level.Pct, 20), level.Cur, level.Need)))
	fmt.Fprintln(out, renderKV("Total XP:", xp))
	days := "day"
	if streak.Days != 1 {
		days = "days"
	}
	fmt.Fprintln(out, renderKV("Streak:", fmt.Sprintf("%d %s", streak.Days, days)))
}
