package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/problem"
)

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List practice problems",
	Example: `  codingsam problems --tag array --difficulty Medium
  codingsam problems -q parentheses`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		query := url.Values{}
		if q, _ := flags.GetString("query"); q != "" {
			query.Set("q", q)
		}
		if d, _ := flags.GetString("difficulty"); d != "" {
			query.Set("difficulty", d)
		}
		if s, _ := flags.GetString("sort"); s != "" {
			query.Set("sort", s)
		}
		tags, _ := flags.GetStringSlice("tag")
		for _, t := range tags {
			query.Add("tag", t)
		}
		if n, _ := flags.GetInt("limit"); n > 0 {
			query.Set("limit", strconv.Itoa(n))
		}

		var page problem.Page
		if err := newClient().get(cmd.Context(), "/v1/problems", query, &page); err != nil {
			return err
		}
		printProblems(cmd.OutOrStdout(), page)
		return nil
	},
}

func init() {
	problemsCmd.Flags().StringP("query", "q", "", "Search text")
	problemsCmd.Flags().StringP("difficulty", "d", "", "Easy, Medium or Hard")
	problemsCmd.Flags().StringSliceP("tag", "t", nil, "Required tag (repeatable)")
	problemsCmd.Flags().String("sort", "", "recommended, difficulty or title")
	problemsCmd.Flags().IntP("limit", "n", 0, "Maximum number of problems")
}

func printProblems(out io.Writer, page problem.Page) {
	if len(page.Items) == 0 {
		fmt.Fprintln(out, "No problems match.")
		return
	}
	for _, p := range page.Items {
		fmt.Fprintf(out, "%-22s %s  %s %s\n",
			p.ID, renderDifficulty(p.Difficulty), p.Title,
			labelStyle.Render("["+strings.Join(p.Tags, ", ")+"]"))
	}
	if page.Total > len(page.Items) {
		fmt.Fprintln(out, labelStyle.Render(fmt.Sprintf("showing %d of %d", len(page.Items), page.Total)))
	}
}

var problemCmd = &cobra.Command{
	Use:   "problem [id]",
	Short: "Show a problem with its step templates (the recommended one without an id)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := cmd.Context()

		path := "/v1/problems/recommended"
		if len(args) == 1 {
			path = "/v1/problems/" + url.PathEscape(args[0])
		}

		var p domain.Problem
		if err := c.get(ctx, path, nil, &p); err != nil {
			return err
		}
		var tpl domain.Templates
		if err := c.get(ctx, "/v1/problems/"+url.PathEscape(p.ID)+"/templates", nil, &tpl); err != nil {
			return err
		}
		printProblem(cmd.OutOrStdout(), p, tpl)
		return nil
	},
}

func printProblem(out io.Writer, p domain.Problem, tpl domain.Templates) {
	fmt.Fprintln(out, titleStyle.Render(p.Title)+"  "+renderDifficulty(p.Difficulty))
	fmt.Fprintln(out, labelStyle.Render(p.ID+" · "+strings.Join(p.Tags, ", ")))
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.TrimSpace(p.Description))

	sections := []struct {
		step domain.StepKey
		text string
	}{
		{domain.StepUnderstand, tpl.Understand},
		{domain.StepDecompose, tpl.Decompose},
		{domain.StepPattern, tpl.Pattern},
		{domain.StepAbstract, strings.TrimSpace(tpl.AbstractIn + "\n" + tpl.AbstractOut)},
		{domain.StepPseudocode, tpl.Pseudocode},
	}
	for _, s := range sections {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, boxStyle.Render(titleStyle.Render(s.step.Label())+"\n"+strings.TrimSpace(s.text)))
	}
}
