package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		in      string
		want    StepKey
		wantErr bool
	}{
		{"understand", StepUnderstand, false},
		{"pseudocode", StepPseudocode, false},
		{"Understand", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStep(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidStep) {
				t.Errorf("ParseStep(%q) error = %v; want ErrInvalidStep", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseStep(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseStep(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestSteps_CanonicalOrder(t *testing.T) {
	want := []StepKey{"understand", "decompose", "pattern", "abstract", "pseudocode"}
	for i, k := range Steps {
		if k != want[i] {
			t.Errorf("Steps[%d] = %q; want %q", i, k, want[i])
		}
		if k.Index() != i {
			t.Errorf("%q.Index() = %d; want %d", k, k.Index(), i)
		}
	}
}

func TestStepScores_Normalized(t *testing.T) {
	in := StepScores{StepUnderstand: 140, StepDecompose: -5, "bogus": 50, StepPattern: 70}
	got := in.Normalized()

	if len(got) != 3 {
		t.Fatalf("len = %d; want 3", len(got))
	}
	if got[StepUnderstand] != 100 {
		t.Errorf("understand = %d; want 100", got[StepUnderstand])
	}
	if got[StepDecompose] != 0 {
		t.Errorf("decompose = %d; want 0", got[StepDecompose])
	}
	if got[StepPattern] != 70 {
		t.Errorf("pattern = %d; want 70", got[StepPattern])
	}
}

func TestRoundScore(t *testing.T) {
	tests := map[float64]int{
		0:    0,
		2.5:  3,
		2.49: 2,
		-2.5: -2,
		99.5: 100,
	}
	for in, want := range tests {
		if got := RoundScore(in); got != want {
			t.Errorf("RoundScore(%v) = %d; want %d", in, got, want)
		}
	}
}

func TestProblemProgress_State(t *testing.T) {
	now := time.Now()
	var nilRecord *ProblemProgress

	if s := nilRecord.State(); s != StateUnattempted {
		t.Errorf("nil State() = %s; want unattempted", s)
	}
	if s := (&ProblemProgress{Attempts: 2}).State(); s != StateAttempted {
		t.Errorf("State() = %s; want attempted", s)
	}
	if s := (&ProblemProgress{Attempts: 1, SolvedAt: &now}).State(); s != StateSolved {
		t.Errorf("State() = %s; want solved", s)
	}
}

func TestLanguage_SourceFile(t *testing.T) {
	tests := map[Language]string{
		LangPython: "main.py",
		LangC:      "main.c",
		LangJava:   "Main.java",
	}
	for lang, want := range tests {
		got, err := lang.SourceFile()
		if err != nil {
			t.Fatalf("SourceFile(%s) error = %v", lang, err)
		}
		if got != want {
			t.Errorf("SourceFile(%s) = %q; want %q", lang, got, want)
		}
	}

	if _, err := Language("rust").SourceFile(); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("SourceFile(rust) error = %v; want ErrUnsupportedLanguage", err)
	}
}
