package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jayainhufs/coding-sam/internal/domain"
	"github.com/jayainhufs/coding-sam/internal/queue"
	"github.com/jayainhufs/coding-sam/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a python, c or java program in the sandbox",
	Example: `  codingsam run solution.py --stdin input.txt
  codingsam run Main.java --async`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}

		lang, _ := flags.GetString("lang")
		if lang == "" {
			inferred, err := inferLanguage(args[0])
			if err != nil {
				return err
			}
			lang = string(inferred)
		}

		var stdin string
		if path, _ := flags.GetString("stdin"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read stdin file: %w", err)
			}
			stdin = string(data)
		}

		body := map[string]any{"language": lang, "code": string(source), "stdin": stdin}
		c := newClient()
		out := cmd.OutOrStdout()

		if async, _ := flags.GetBool("async"); async {
			result, err := runQueued(cmd.Context(), c, body, 500*time.Millisecond)
			if err != nil {
				return err
			}
			if result.Result == nil {
				return fmt.Errorf("run %s: %s", result.Status, result.Error)
			}
			printRunResult(out, *result.Result)
			return nil
		}

		var resp struct {
			OK     bool          `json:"ok"`
			Result runner.Result `json:"result"`
		}
		if err := c.post(cmd.Context(), "/v1/run", body, &resp); err != nil {
			return err
		}
		printRunResult(out, resp.Result)
		return nil
	},
}

func init() {
	runCmd.Flags().StringP("lang", "l", "", "Language (inferred from the file extension)")
	runCmd.Flags().StringP("stdin", "i", "", "File passed as standard input")
	runCmd.Flags().Bool("async", false, "Queue the run and poll for the result")
}

// inferLanguage maps a source file extension to a runner language
func inferLanguage(path string) (domain.Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return domain.LangPython, nil
	case ".c":
		return domain.LangC, nil
	case ".java":
		return domain.LangJava, nil
	default:
		return "", fmt.Errorf("%w: cannot infer from %q, use --lang", domain.ErrUnsupportedLanguage, filepath.Base(path))
	}
}

// runQueued submits a run to the queue and polls until it leaves pending
func runQueued(ctx context.Context, c *client, body map[string]any, interval time.Duration) (*queue.RunResult, error) {
	var accepted struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/v1/runs", body, &accepted); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		var result queue.RunResult
		if err := c.get(ctx, "/v1/runs/"+url.PathEscape(accepted.ID), nil, &result); err != nil {
			return nil, err
		}
		if result.Status != queue.StatusPending {
			return &result, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printRunResult(out io.Writer, r runner.Result) {
	if r.Compile != nil {
		fmt.Fprintln(out, titleStyle.Render("Compile")+" "+mark(r.Compile.OK()))
		if s := strings.TrimSpace(r.Compile.Output); s != "" {
			fmt.Fprintln(out, s)
		}
		if !r.Compile.OK() {
			return
		}
	}

	status := mark(r.Run.OK())
	if r.Run.Signal != "" {
		status += " " + errStyle.Render("killed ("+r.Run.Signal+")")
	} else if r.Run.Code != nil && *r.Run.Code != 0 {
		status += " " + errStyle.Render(fmt.Sprintf("exit %d", *r.Run.Code))
	}
	fmt.Fprintln(out, titleStyle.Render("Run")+" "+status)
	if r.Run.Stdout != "" {
		fmt.Fprint(out, r.Run.Stdout)
		if !strings.HasSuffix(r.Run.Stdout, "\n") {
			fmt.Fprintln(out)
		}
	}
	if r.Run.Stderr != "" {
		fmt.Fprint(out, errStyle.Render(r.Run.Stderr))
		fmt.Fprintln(out)
	}
}
