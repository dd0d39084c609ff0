package problem

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

//go:embed builtin.yaml
var builtinCatalog []byte

// CatalogFile represents the YAML structure of a problem catalog
type CatalogFile struct {
	Problems []ProblemFile `yaml:"problems"`
}

// ProblemFile represents one problem entry in a catalog
type ProblemFile struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Difficulty  string            `yaml:"difficulty"`
	Tags        []string          `yaml:"tags"`
	Templates   *domain.Templates `yaml:"templates"`
}

// Loader reads problem catalogs
type Loader struct {
	path string
}

// NewLoader creates a loader for the catalog at path. An empty path loads
// the built-in catalog.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and validates every problem in the catalog, in file order
func (l *Loader) Load() ([]*domain.Problem, error) {
	data := builtinCatalog
	if l.path != "" {
		var err error
		data, err = os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes catalog YAML
func Parse(data []byte) ([]*domain.Problem, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Problems))
	problems := make([]*domain.Problem, 0, len(file.Problems))
	for _, pf := range file.Problems {
		p := &domain.Problem{
			ID:          pf.ID,
			Title:       pf.Title,
			Description: pf.Description,
			Difficulty:  domain.Difficulty(pf.Difficulty),
			Tags:        pf.Tags,
			Templates:   pf.Templates,
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidProblem, p.ID)
		}
		seen[p.ID] = true
		problems = append(problems, p)
	}

	return problems, nil
}
