// Package requirements extracts typed, prioritized requirements from free text.
package requirements

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/pkg/models"
)

// ErrEmptyInput is returned when there is no text to extract from.
var ErrEmptyInput = errors.New("no text to extract requirements from")

// Extractor turns sentences into requirements. It keeps every set it
// produced, keyed by id.
type Extractor struct {
	markers Markers
	logger  *zap.Logger
	now     func() time.Time

	sets map[string]*models.RequirementSet
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMarkers replaces the marker tables.
func WithMarkers(m Markers) Option {
	return func(e *Extractor) { e.markers = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor with DefaultMarkers.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		markers: DefaultMarkers,
		logger:  zap.NewNop(),
		now:     time.Now,
		sets:    make(map[string]*models.RequirementSet),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract splits text into sentences and types each one. Sentences with no
// marker are ignored, so the returned set may be empty.
func (e *Extractor) Extract(text string) (*models.RequirementSet, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	rs := &models.RequirementSet{
		ID:        uuid.NewString(),
		Title:     title(text),
		CreatedAt: e.now(),
	}
	for _, sentence := range Sentences(text) {
		lower := strings.ToLower(sentence)
		if containsAny(lower, e.markers.Assumption) {
			rs.Assumptions = append(rs.Assumptions, sentence)
			continue
		}
		typ, ok := e.classify(lower)
		if !ok {
			continue
		}
		rs.Requirements = append(rs.Requirements, e.build(sentence, lower, typ))
	}
	e.sets[rs.ID] = rs

	e.logger.Debug("extracted requirements",
		zap.String("set_id", rs.ID),
		zap.Int("requirements", len(rs.Requirements)),
		zap.Int("assumptions", len(rs.Assumptions)))
	return rs, nil
}

// ExtractFunctional returns only the functional requirements in text.
func (e *Extractor) ExtractFunctional(text string) ([]*models.Requirement, error) {
	return e.extractType(text, models.RequirementFunctional)
}

// ExtractNonFunctional returns only the non-functional requirements in text.
func (e *Extractor) ExtractNonFunctional(text string) ([]*models.Requirement, error) {
	return e.extractType(text, models.RequirementNonFunctional)
}

func (e *Extractor) extractType(text string, t models.RequirementType) ([]*models.Requirement, error) {
	rs, err := e.Extract(text)
	if err != nil {
		return nil, fmt.Errorf("extract %s requirements: %w", t, err)
	}
	return rs.ByType(t), nil
}

// Set returns a previously extracted set.
func (e *Extractor) Set(id string) (*models.RequirementSet, bool) {
	rs, ok := e.sets[id]
	return rs, ok
}

// SetCount returns how many sets have been extracted.
func (e *Extractor) SetCount() int {
	return len(e.sets)
}

// classify picks the most specific type whose markers appear. Constraints
// win over quality attributes, which win over plain capabilities.
func (e *Extractor) classify(lower string) (models.RequirementType, bool) {
	switch {
	case containsAny(lower, e.markers.Constraint) || unitRe.MatchString(lower):
		return models.RequirementConstraint, true
	case containsAny(lower, e.markers.NonFunctional):
		return models.RequirementNonFunctional, true
	case containsAny(lower, e.markers.Functional):
		return models.RequirementFunctional, true
	default:
		return "", false
	}
}

func (e *Extractor) build(sentence, lower string, t models.RequirementType) *models.Requirement {
	req := &models.Requirement{
		ID:          uuid.NewString(),
		Description: sentence,
		Type:        t,
		Priority:    e.priority(lower),
		SourceText:  sentence,
	}
	if t == models.RequirementConstraint {
		req.Constraints = quantityRe.FindAllString(lower, -1)
	}
	req.AcceptanceCriteria = acceptanceCriteria(req)
	return req
}

func (e *Extractor) priority(lower string) models.Priority {
	for _, pm := range e.markers.Priorities {
		if containsAny(lower, pm.Markers) {
			return pm.Priority
		}
	}
	return models.PriorityShould
}

func acceptanceCriteria(req *models.Requirement) []string {
	switch req.Type {
	case models.RequirementConstraint:
		criteria := []string{fmt.Sprintf("Sinir asilmaz: %s", req.Description)}
		for _, c := range req.Constraints {
			criteria = append(criteria, fmt.Sprintf("Olcum %s degerini karsilar", c))
		}
		return criteria
	case models.RequirementNonFunctional:
		return []string{
			fmt.Sprintf("Olculebilir hedef tanimlanir: %s", req.Description),
			"Hedef otomatik testlerle izlenir",
		}
	default:
		return []string{
			fmt.Sprintf("Senaryo uctan uca calisir: %s", req.Description),
			"Hatali girdi anlamli bir hata ile reddedilir",
		}
	}
}

// Sentences splits text on sentence punctuation and newlines, dropping
// empty pieces.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

const titleWords = 6

func title(text string) string {
	words := strings.Fields(text)
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return strings.Join(words, " ")
}
