package domain

import "fmt"

// Difficulty of a practice problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Rank orders difficulties Easy < Medium < Hard; unknown values sort last.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 99
	}
}

// Problem is an algorithm problem learners work through step by step.
type Problem struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags"`
	Templates   *Templates `json:"templates,omitempty" yaml:"templates,omitempty"`
}

// Validate checks the problem has the fields the catalog relies on.
func (p *Problem) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProblem)
	}
	if p.Title == "" {
		return fmt.Errorf("%w: %s: missing title", ErrInvalidProblem, p.ID)
	}
	return nil
}

// Templates holds the starter text shown in each step editor.
type Templates struct {
	Understand  string `json:"understand" yaml:"understand"`
	Decompose   string `json:"decompose" yaml:"decompose"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	AbstractIn  string `json:"abstractIn" yaml:"abstract_in"`
	AbstractOut string `json:"abstractOut" yaml:"abstract_out"`
	Pseudocode  string `json:"pseudocode" yaml:"pseudocode"`
}

// Language is a language accepted by the code runner.
type Language string

const (
	LangPython Language = "python"
	LangC      Language = "c"
	LangJava   Language = "java"
)

// SourceFile returns the file name the sandbox expects for the language.
func (l Language) SourceFile() (string, error) {
	switch l {
	case LangPython:
		return "main.py", nil
	case LangC:
		return "main.c", nil
	case LangJava:
		return "Main.java", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(l))
	}
}
