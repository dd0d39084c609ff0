package runner

import (
	"fmt"
	"strings"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// LanguageConfig contains language-specific configuration
type LanguageConfig struct {
	PistonName  string   // language name sent to Piston
	DockerImage string   // default image for the Docker executor
	CompileCmd  []string // empty for interpreted languages
	RunCmd      []string
}

// DefaultLanguageConfigs returns the configuration of every supported language
func DefaultLanguageConfigs() map[domain.Language]LanguageConfig {
	return map[domain.Language]LanguageConfig{
		domain.LangPython: {
			PistonName:  "python",
			DockerImage: "python:3.12-alpine",
			RunCmd:      []string{"python3", "main.py"},
		},
		domain.LangC: {
			PistonName:  "c",
			DockerImage: "gcc:14",
			CompileCmd:  []string{"gcc", "-O2", "-o", "main", "main.c", "-lm"},
			RunCmd:      []string{"./main"},
		},
		domain.LangJava: {
			PistonName:  "java",
			DockerImage: "eclipse-temurin:21-jdk-alpine",
			CompileCmd:  []string{"javac", "Main.java"},
			RunCmd:      []string{"java", "-cp", ".", "Main"},
		},
	}
}

// ParseLanguage converts a string to a supported language
func ParseLanguage(s string) (domain.Language, error) {
	lang := domain.Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := DefaultLanguageConfigs()[lang]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, s)
	}
	return lang, nil
}

// SupportedLanguages lists the languages in a stable order
func SupportedLanguages() []domain.Language {
	return []domain.Language{domain.LangPython, domain.LangC, domain.LangJava}
}
