// Package runner executes learner code in a sandbox. Two executors exist:
// a Piston HTTP client and a local Docker backend.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// MaxSourceBytes bounds the size of a submitted program
const MaxSourceBytes = 64 * 1024

// Executor defines the interface for code execution
type Executor interface {
	// Name identifies the executor in logs and status output
	Name() string

	// Run compiles (when needed) and runs one program
	Run(ctx context.Context, req RunRequest) (*Result, error)
}

// RunRequest is a single program execution
type RunRequest struct {
	Language domain.Language `json:"language"`
	Source   string          `json:"code"`
	Stdin    string          `json:"stdin,omitempty"`
}

// Validate checks the request before it reaches an executor
func (r RunRequest) Validate() error {
	if _, err := r.Language.SourceFile(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("%w: empty source", domain.ErrInvalidRequest)
	}
	if len(r.Source) > MaxSourceBytes {
		return fmt.Errorf("%w: source exceeds %d bytes", domain.ErrInvalidRequest, MaxSourceBytes)
	}
	return nil
}

// StageResult is the outcome of one stage (compile or run)
type StageResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   *int   `json:"code"`
	Signal string `json:"signal,omitempty"`
}

// OK reports whether the stage exited with status 0
func (s *StageResult) OK() bool {
	return s != nil && s.Code != nil && *s.Code == 0
}

// Result is the outcome of a run. The shape follows the Piston API so
// clients see the same document from every executor.
type Result struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Compile  *StageResult `json:"compile,omitempty"`
	Run      StageResult  `json:"run"`
}

// OK reports whether compilation (if any) and the run both succeeded
func (r *Result) OK() bool {
	if r.Compile != nil && !r.Compile.OK() {
		return false
	}
	return r.Run.OK()
}

func newStage(stdout, stderr string, code int) StageResult {
	return StageResult{
		Stdout: stdout,
		Stderr: stderr,
		Output: stdout + stderr,
		Code:   &code,
	}
}
