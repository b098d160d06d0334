// Package lexicon holds the keyword and pattern tables that drive intent
// classification and task decomposition.
//
// Tables are plain data. The default set is embedded; an alternative set can
// be loaded from a YAML file and optionally hot-reloaded with a Watcher.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/parley/pkg/models"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalidTable is returned when a table set fails validation.
var ErrInvalidTable = errors.New("invalid lexicon table")

// CategoryKeywords maps an intent category to its trigger keywords.
type CategoryKeywords struct {
	Category models.IntentCategory `yaml:"category"`
	Keywords []string              `yaml:"keywords"`
}

// EntityPatterns maps an entity type to the words that introduce it.
type EntityPatterns struct {
	Type     models.EntityType `yaml:"type"`
	Patterns []string          `yaml:"patterns"`
}

// RelationMarkers maps a task relation to the phrases that signal it.
type RelationMarkers struct {
	Relation models.TaskRelation `yaml:"relation"`
	Markers  []string            `yaml:"markers"`
}

// ComplexityHint overrides the word-count complexity estimate.
type ComplexityHint struct {
	Keyword string `yaml:"keyword"`
	Score   int    `yaml:"score"`
}

// ValidationRule attaches a checklist item to fragments containing a keyword.
type ValidationRule struct {
	Rule     string   `yaml:"rule"`
	Keywords []string `yaml:"keywords"`
}

// Tables is one complete, immutable set of lookup tables.
// Callers must not modify a Tables value obtained from a Source.
type Tables struct {
	Categories      []CategoryKeywords `yaml:"categories"`
	Entities        []EntityPatterns   `yaml:"entities"`
	Deictics        []string           `yaml:"deictics"`
	ReferenceTokens []string           `yaml:"reference_tokens"`
	Connectives     []string           `yaml:"connectives"`
	Relations       []RelationMarkers  `yaml:"relations"`
	Complexity      []ComplexityHint   `yaml:"complexity"`
	ValidationRules []ValidationRule   `yaml:"validation_rules"`
}

// Source supplies the table set in effect right now.
type Source interface {
	Current() *Tables
}

// Static is a Source that always returns the same tables.
type Static struct {
	tables *Tables
}

// NewStatic wraps a fixed table set as a Source.
func NewStatic(t *Tables) *Static {
	return &Static{tables: t}
}

// Current returns the wrapped tables.
func (s *Static) Current() *Tables {
	return s.tables
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the embedded table set. It panics if the embedded data is
// malformed, which can only happen if the binary was built from a broken tree.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("lexicon: embedded tables: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

// DefaultSource returns a Static source over the embedded tables.
func DefaultSource() Source {
	return NewStatic(Default())
}

// Load reads and validates a table set from a YAML file.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes, normalizes and validates a YAML table set.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// normalize lowercases every keyword and orders connectives longest first.
func (t *Tables) normalize() {
	for i := range t.Categories {
		lowerAll(t.Categories[i].Keywords)
	}
	for i := range t.Entities {
		lowerAll(t.Entities[i].Patterns)
	}
	for i := range t.Relations {
		lowerAll(t.Relations[i].Markers)
	}
	for i := range t.Complexity {
		t.Complexity[i].Keyword = strings.ToLower(strings.TrimSpace(t.Complexity[i].Keyword))
	}
	for i := range t.ValidationRules {
		lowerAll(t.ValidationRules[i].Keywords)
	}
	lowerAll(t.Deictics)
	lowerAll(t.ReferenceTokens)
	lowerAll(t.Connectives)
	sort.SliceStable(t.Connectives, func(i, j int) bool {
		return len(t.Connectives[i]) > len(t.Connectives[j])
	})
}

func lowerAll(words []string) {
	for i, w := range words {
		words[i] = strings.ToLower(strings.TrimSpace(w))
	}
}

// Validate checks that every table is present and references known values.
func (t *Tables) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidTable)
	}
	for _, c := range t.Categories {
		if !c.Category.Valid() || c.Category == models.CategoryUnknown {
			return fmt.Errorf("%w: category %q", ErrInvalidTable, c.Category)
		}
		if err := nonEmpty("category "+string(c.Category), c.Keywords); err != nil {
			return err
		}
	}
	for _, e := range t.Entities {
		if !e.Type.Valid() {
			return fmt.Errorf("%w: entity type %q", ErrInvalidTable, e.Type)
		}
		if err := nonEmpty("entity "+string(e.Type), e.Patterns); err != nil {
			return err
		}
	}
	for _, r := range t.Relations {
		if !r.Relation.Valid() {
			return fmt.Errorf("%w: relation %q", ErrInvalidTable, r.Relation)
		}
		if err := nonEmpty("relation "+string(r.Relation), r.Markers); err != nil {
			return err
		}
	}
	for _, h := range t.Complexity {
		if h.Keyword == "" || h.Score < 1 || h.Score > 10 {
			return fmt.Errorf("%w: complexity hint %q=%d", ErrInvalidTable, h.Keyword, h.Score)
		}
	}
	for _, v := range t.ValidationRules {
		if v.Rule == "" {
			return fmt.Errorf("%w: validation rule without text", ErrInvalidTable)
		}
		if err := nonEmpty("validation rule "+v.Rule, v.Keywords); err != nil {
			return err
		}
	}
	if err := nonEmpty("connectives", t.Connectives); err != nil {
		return err
	}
	return nonEmpty("reference_tokens", t.ReferenceTokens)
}

func nonEmpty(what string, words []string) error {
	if len(words) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidTable, what)
	}
	for _, w := range words {
		if w == "" {
			return fmt.Errorf("%w: %s has a blank entry", ErrInvalidTable, what)
		}
	}
	return nil
}
