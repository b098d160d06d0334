// Package specgen builds technical specs from requirement sets and renders
// them as markdown.
package specgen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/pkg/models"
)

// ErrEmptyTitle is returned when a spec is requested without a title.
var ErrEmptyTitle = errors.New("spec title is empty")

// securityMarkers route non-functional requirements into the security section.
var securityMarkers = []string{"guvenlik", "security", "secure", "yetki", "auth", "sifre", "password"}

// Generator produces technical specs and keeps them for later design calls.
type Generator struct {
	logger *zap.Logger
	now    func() time.Time

	specs map[string]*models.TechnicalSpec
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		logger: zap.NewNop(),
		now:    time.Now,
		specs:  make(map[string]*models.TechnicalSpec),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate creates a spec with an overview section and, when requirements
// are given, requirement, security and testing sections derived from them.
func (g *Generator) Generate(title string, reqs *models.RequirementSet, description string) (*models.TechnicalSpec, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	spec := &models.TechnicalSpec{
		ID:          uuid.NewString(),
		Title:       title,
		GeneratedAt: g.now(),
	}
	spec.Sections = append(spec.Sections, overview(title, description, reqs))

	if !reqs.Empty() {
		spec.Sections = append(spec.Sections, requirementsSection(reqs))
		if sec := securitySection(reqs); sec != nil {
			spec.Sections = append(spec.Sections, sec)
		}
		spec.Sections = append(spec.Sections, testingSection(reqs))
	}

	g.specs[spec.ID] = spec
	g.logger.Debug("generated spec",
		zap.String("spec_id", spec.ID),
		zap.String("title", title),
		zap.Int("sections", len(spec.Sections)))
	return spec, nil
}

// Spec returns a previously generated spec.
func (g *Generator) Spec(id string) (*models.TechnicalSpec, bool) {
	spec, ok := g.specs[id]
	return spec, ok
}

// Count returns how many specs have been generated.
func (g *Generator) Count() int {
	return len(g.specs)
}

func newSection(t models.SpecSectionType, title, content string) *models.SpecSection {
	return &models.SpecSection{
		ID:      uuid.NewString(),
		Type:    t,
		Title:   title,
		Content: content,
	}
}

func overview(title, description string, reqs *models.RequirementSet) *models.SpecSection {
	content := description
	if content == "" {
		content = title
	}
	sec := newSection(models.SectionOverview, "Genel Bakis", content)
	if reqs != nil && len(reqs.Assumptions) > 0 {
		sec.Subsections = map[string]string{"Varsayimlar": bullets(reqs.Assumptions)}
	}
	return sec
}

var typeTitles = []struct {
	Type  models.RequirementType
	Title string
}{
	{models.RequirementFunctional, "Fonksiyonel"},
	{models.RequirementNonFunctional, "Fonksiyonel Olmayan"},
	{models.RequirementConstraint, "Kisitlar"},
}

func requirementsSection(reqs *models.RequirementSet) *models.SpecSection {
	lines := make([]string, 0, len(reqs.Requirements))
	for _, r := range reqs.Requirements {
		lines = append(lines, fmt.Sprintf("[%s] %s", r.Priority, r.Description))
	}
	sec := newSection(models.SectionRequirements, "Gereksinimler", bullets(lines))

	sec.Subsections = make(map[string]string)
	for _, tt := range typeTitles {
		var descs []string
		for _, r := range reqs.ByType(tt.Type) {
			descs = append(descs, r.Description)
		}
		if len(descs) > 0 {
			sec.Subsections[tt.Title] = bullets(descs)
		}
	}
	return sec
}

func securitySection(reqs *models.RequirementSet) *models.SpecSection {
	var lines []string
	for _, r := range reqs.ByType(models.RequirementNonFunctional) {
		lower := strings.ToLower(r.Description)
		for _, m := range securityMarkers {
			if strings.Contains(lower, m) {
				lines = append(lines, r.Description)
				break
			}
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return newSection(models.SectionSecurity, "Guvenlik", bullets(lines))
}

func testingSection(reqs *models.RequirementSet) *models.SpecSection {
	var lines []string
	for _, r := range reqs.Requirements {
		lines = append(lines, r.AcceptanceCriteria...)
	}
	return newSection(models.SectionTesting, "Test Plani", bullets(lines))
}

// section returns the first section of the given type, creating it if absent.
func section(spec *models.TechnicalSpec, t models.SpecSectionType, title string) *models.SpecSection {
	for _, s := range spec.Sections {
		if s.Type == t {
			return s
		}
	}
	s := newSection(t, title, "")
	spec.Sections = append(spec.Sections, s)
	return s
}

func bullets(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	return b.String()
}
