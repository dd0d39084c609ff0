// Package problem holds the catalog of practice problems: lookup, search,
// the recommended problem and per-step starter templates.
package problem

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jayainhufs/coding-sam/internal/domain"
)

// Sort orders accepted by Search
const (
	SortRecommended = "recommended"
	SortDifficulty  = "difficulty"
	SortTitle       = "title"
)

// DefaultTopTags is how many tags the problem list offers as filters
const DefaultTopTags = 12

// Query filters and orders a catalog search
type Query struct {
	Text       string
	Difficulty domain.Difficulty // empty means any
	Tags       []string          // a problem must carry all of them
	Sort       string
	Limit      int // 0 means no limit
	Offset     int
}

// Page is one page of search results
type Page struct {
	Items []*domain.Problem `json:"items"`
	Total int               `json:"total"`
}

// TagCount is a tag with the number of problems carrying it
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Catalog provides access to problems
type Catalog struct {
	loader   *Loader
	mu       sync.RWMutex
	problems []*domain.Problem
	byID     map[string]*domain.Problem
}

// NewCatalog creates a catalog backed by loader. Call Load before use.
func NewCatalog(loader *Loader) *Catalog {
	return &Catalog{loader: loader, byID: make(map[string]*domain.Problem)}
}

// NewCatalogFrom creates an already loaded catalog from problems
func NewCatalogFrom(problems []*domain.Problem) *Catalog {
	c := &Catalog{}
	c.set(problems)
	return c
}

// Load loads all problems into memory
func (c *Catalog) Load() error {
	problems, err := c.loader.Load()
	if err != nil {
		return fmt.Errorf("load problems: %w", err)
	}
	c.set(problems)
	slog.Info("problem catalog loaded", "count", len(problems))
	return nil
}

func (c *Catalog) set(problems []*domain.Problem) {
	byID := make(map[string]*domain.Problem, len(problems))
	for _, p := range problems {
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.problems = problems
	c.byID = byID
	c.mu.Unlock()
}

// All returns every problem in catalog order
func (c *Catalog) All() []*domain.Problem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.problems)
}

// Get returns a problem by ID
func (c *Catalog) Get(id string) (*domain.Problem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProblemNotFound, id)
	}
	return p, nil
}

// Recommended returns the problem suggested for today, currently the first
// one in the catalog
func (c *Catalog) Recommended() (*domain.Problem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.problems) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", domain.ErrProblemNotFound)
	}
	return c.problems[0], nil
}

// Search filters, sorts and pages the catalog
func (c *Catalog) Search(q Query) Page {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	var matched []*domain.Problem
	for _, p := range c.All() {
		if q.Difficulty != "" && p.Difficulty != q.Difficulty {
			continue
		}
		if !hasAllTags(p, q.Tags) {
			continue
		}
		if text != "" && !matchesText(p, text) {
			continue
		}
		matched = append(matched, p)
	}

	sortProblems(matched, q.Sort)

	page := Page{Total: len(matched), Items: []*domain.Problem{}}
	start := min(max(0, q.Offset), len(matched))
	end := len(matched)
	if q.Limit > 0 && q.Limit < end-start {
		end = start + q.Limit
	}
	page.Items = append(page.Items, matched[start:end]...)
	return page
}

// TopTags returns the n most used tags, most frequent first and then by
// name. n <= 0 returns all tags.
func (c *Catalog) TopTags(n int) []TagCount {
	freq := make(map[string]int)
	for _, p := range c.All() {
		for _, t := range p.Tags {
			freq[t]++
		}
	}

	tags := make([]TagCount, 0, len(freq))
	for t, cnt := range freq {
		tags = append(tags, TagCount{Tag: t, Count: cnt})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})

	if n > 0 && len(tags) > n {
		tags = tags[:n]
	}
	return tags
}

// Templates returns the starter text for each step of a problem, falling
// back to generic prompts for steps the problem does not define
func (c *Catalog) Templates(id string) (domain.Templates, error) {
	p, err := c.Get(id)
	if err != nil {
		return domain.Templates{}, err
	}
	return mergeTemplates(p.Templates), nil
}

func hasAllTags(p *domain.Problem, tags []string) bool {
	for _, t := range tags {
		if !slices.Contains(p.Tags, t) {
			return false
		}
	}
	return true
}

func matchesText(p *domain.Problem, text string) bool {
	if strings.Contains(strings.ToLower(p.Title), text) ||
		strings.Contains(strings.ToLower(p.Description), text) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), text) {
			return true
		}
	}
	return false
}

// recommendedRank puts Medium first, then Easy, then everything else
func recommendedRank(d domain.Difficulty) int {
	switch d {
	case domain.DifficultyMedium:
		return 0
	case domain.DifficultyEasy:
		return 1
	default:
		return 2
	}
}

func sortProblems(problems []*domain.Problem, order string) {
	switch order {
	case SortTitle:
		sort.SliceStable(problems, func(i, j int) bool {
			return problems[i].Title < problems[j].Title
		})
	case SortDifficulty:
		sort.SliceStable(problems, func(i, j int) bool {
			return problems[i].Difficulty.Rank() < problems[j].Difficulty.Rank()
		})
	default:
		sort.SliceStable(problems, func(i, j int) bool {
			ri, rj := recommendedRank(problems[i].Difficulty), recommendedRank(problems[j].Difficulty)
			if ri != rj {
				return ri < rj
			}
			return problems[i].Title < problems[j].Title
		})
	}
}
