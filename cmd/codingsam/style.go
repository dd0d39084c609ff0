package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

var difficultyStyles = map[domain.Difficulty]lipgloss.Style{
	domain.DifficultyEasy:   okStyle,
	domain.DifficultyMedium: warnStyle,
	domain.DifficultyHard:   errStyle,
}

func renderDifficulty(d domain.Difficulty) string {
	style, ok := difficultyStyles[d]
	if !ok {
		return string(d)
	}
	return style.Render(fmt.Sprintf("%-6s", d))
}

// renderProgressBar renders pct in [0,100] as a bar of width cells
func renderProgressBar(pct, width int) string {
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}

// scoreStyle colors a step score by band
func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return okStyle
	case score >= 50:
		return warnStyle
	default:
		return errStyle
	}
}

func renderKV(label string, value any) string {
	return labelStyle.Render(fmt.Sprintf("%-12s", label)) + " " + fmt.Sprint(value)
}

func mark(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return errStyle.Render("✗")
}
