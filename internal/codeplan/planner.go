// Package codeplan turns technical specs or module lists into an ordered
// file-level implementation plan.
package codeplan

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/graph"
	"github.com/ShayCichocki/parley/pkg/models"
)

// ErrNoSpec is returned by Plan when no spec is given.
var ErrNoSpec = errors.New("code plan needs a spec")

// PackageFile is the per-package documentation file every plan starts from.
const PackageFile = "doc.go"

const testStrategy = "Her dosya icin tablo tabanli birim testler yazilir. " +
	"Depolama katmani gecici SQLite veritabani ile entegrasyon testinden gecer. " +
	"API uc noktalari httptest ile uctan uca test edilir."

// Module is one unit passed to PlanFileStructure.
type Module struct {
	Name    string
	Purpose string
}

// Planner produces code plans and keeps them by id.
type Planner struct {
	root   string
	logger *zap.Logger
	now    func() time.Time

	plans map[string]*models.CodePlan
}

// Option configures a Planner.
type Option func(*Planner)

// WithRoot sets the directory plans are rooted in. The default is "internal".
func WithRoot(dir string) Option {
	return func(p *Planner) {
		if dir != "" {
			p.root = dir
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{
		root:   "internal",
		logger: zap.NewNop(),
		now:    time.Now,
		plans:  make(map[string]*models.CodePlan),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan derives files and interfaces from a spec: one model file and one
// repository interface per data model, one handler file per API resource
// and a package doc file that ties them together.
func (p *Planner) Plan(title string, spec *models.TechnicalSpec) (*models.CodePlan, error) {
	if spec == nil {
		return nil, ErrNoSpec
	}
	if title == "" {
		title = spec.Title
	}
	dir := path.Join(p.root, Slug(title))

	modules := make([]Module, 0, len(spec.DataModels))
	var ifaces []models.InterfaceSpec
	for _, dm := range spec.DataModels {
		modules = append(modules, Module{Name: Slug(dm.Name), Purpose: fmt.Sprintf("%s veri modeli", dm.Name)})
		ifaces = append(ifaces, repositoryInterface(dm.Name))
	}
	for _, res := range resources(spec.APIEndpoints) {
		modules = append(modules, Module{Name: Slug(res) + "_handler", Purpose: fmt.Sprintf("%s HTTP uc noktalari", res)})
	}
	if len(modules) == 0 {
		modules = append(modules, Module{Name: Slug(title), Purpose: spec.Title})
		ifaces = append(ifaces, moduleInterface(Slug(title)))
	}

	files := p.PlanFileStructure(dir, modules)
	for _, f := range files {
		f.EstimatedLines = estimateLines(f, spec)
	}
	return p.finish(title, files, ifaces)
}

// PlanModules plans one file and one interface per module, without a
// package file.
func (p *Planner) PlanModules(title string, modules []string) (*models.CodePlan, error) {
	dir := path.Join(p.root, Slug(title))
	files := make([]*models.PlannedFile, 0, len(modules))
	ifaces := make([]models.InterfaceSpec, 0, len(modules))
	for _, m := range modules {
		files = append(files, &models.PlannedFile{
			Path:           path.Join(dir, Slug(m)+".go"),
			Purpose:        m,
			EstimatedLines: 120,
		})
		ifaces = append(ifaces, moduleInterface(m))
	}
	return p.finish(title, files, ifaces)
}

func (p *Planner) finish(title string, files []*models.PlannedFile, ifaces []models.InterfaceSpec) (*models.CodePlan, error) {
	deps := IdentifyDependencies(files)
	for _, f := range files {
		f.Dependencies = deps[f.Path]
	}
	order, err := implementationOrder(files)
	if err != nil {
		return nil, fmt.Errorf("order planned files: %w", err)
	}
	byPath := make(map[string]*models.PlannedFile, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}
	for i, fp := range order {
		byPath[fp].Priority = i + 1
	}

	plan := &models.CodePlan{
		ID:                  uuid.NewString(),
		Title:               title,
		Files:               files,
		Interfaces:          ifaces,
		TestStrategy:        testStrategy,
		ImplementationOrder: order,
		CreatedAt:           p.now(),
	}
	p.plans[plan.ID] = plan

	p.logger.Debug("planned code",
		zap.String("plan_id", plan.ID),
		zap.Int("files", len(files)),
		zap.Int("interfaces", len(ifaces)))
	return plan, nil
}

// CodePlan returns a previously produced plan.
func (p *Planner) CodePlan(id string) (*models.CodePlan, bool) {
	plan, ok := p.plans[id]
	return plan, ok
}

// Count returns how many plans have been produced.
func (p *Planner) Count() int {
	return len(p.plans)
}

// PlanFileStructure lays out a package directory: the package file first,
// then one file per module.
func (p *Planner) PlanFileStructure(dir string, modules []Module) []*models.PlannedFile {
	files := []*models.PlannedFile{{
		Path:           path.Join(dir, PackageFile),
		Purpose:        "paket dokumantasyonu",
		EstimatedLines: 10,
	}}
	for _, m := range modules {
		files = append(files, &models.PlannedFile{
			Path:           path.Join(dir, Slug(m.Name)+".go"),
			Purpose:        m.Purpose,
			EstimatedLines: 120,
		})
	}
	return files
}

// IdentifyDependencies maps each file path to the paths it depends on. A
// package file depends on every other file in its directory, and a test
// file depends on the file it tests. Files without dependencies are absent.
func IdentifyDependencies(files []*models.PlannedFile) map[string][]string {
	exists := make(map[string]bool, len(files))
	for _, f := range files {
		exists[f.Path] = true
	}

	deps := make(map[string][]string)
	for _, f := range files {
		dir, name := path.Split(f.Path)
		switch {
		case name == PackageFile:
			for _, other := range files {
				if other.Path != f.Path && path.Dir(other.Path) == path.Clean(dir) {
					deps[f.Path] = append(deps[f.Path], other.Path)
				}
			}
		case strings.HasSuffix(name, "_test.go"):
			subject := path.Join(dir, strings.TrimSuffix(name, "_test.go")+".go")
			if exists[subject] {
				deps[f.Path] = []string{subject}
			}
		}
	}
	return deps
}

// DesignInterface builds an interface spec. Method names are exported.
func DesignInterface(name string, methods []models.MethodSpec) models.InterfaceSpec {
	out := make([]models.MethodSpec, len(methods))
	for i, m := range methods {
		m.Name = exported(m.Name)
		out[i] = m
	}
	return models.InterfaceSpec{Name: exported(name), Methods: out}
}

// implementationOrder sorts files so dependencies come first.
func implementationOrder(files []*models.PlannedFile) ([]string, error) {
	nodes := make([]*models.SubTask, len(files))
	for i, f := range files {
		nodes[i] = &models.SubTask{ID: f.Path, Dependencies: f.Dependencies}
	}
	g := graph.New()
	if err := g.Build(nodes); err != nil {
		return nil, err
	}
	return g.TopologicalSort()
}

func repositoryInterface(model string) models.InterfaceSpec {
	name := exported(model)
	return DesignInterface(name+"Repository", []models.MethodSpec{
		{Name: "Get", Params: "ctx context.Context, id string", Returns: "(*" + name + ", error)", Description: "tek kayit getirir"},
		{Name: "List", Params: "ctx context.Context", Returns: "([]*" + name + ", error)", Description: "tum kayitlari listeler"},
		{Name: "Create", Params: "ctx context.Context, v *" + name, Returns: "error", Description: "yeni kayit ekler"},
		{Name: "Update", Params: "ctx context.Context, v *" + name, Returns: "error", Description: "kaydi gunceller"},
		{Name: "Delete", Params: "ctx context.Context, id string", Returns: "error", Description: "kaydi siler"},
	})
}

func moduleInterface(module string) models.InterfaceSpec {
	return DesignInterface(module, []models.MethodSpec{
		{Name: "Run", Params: "ctx context.Context", Returns: "error", Description: module + " islemini calistirir"},
	})
}

// resources returns the distinct resource names of the endpoints in order.
func resources(endpoints []models.APIEndpoint) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ep := range endpoints {
		parts := strings.Split(strings.Trim(ep.Path, "/"), "/")
		res := ""
		for _, part := range parts {
			if part == "api" || strings.HasPrefix(part, "{") || isVersion(part) {
				continue
			}
			res = part
			break
		}
		if res != "" && !seen[res] {
			seen[res] = true
			out = append(out, res)
		}
	}
	return out
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func estimateLines(f *models.PlannedFile, spec *models.TechnicalSpec) int {
	name := path.Base(f.Path)
	switch {
	case name == PackageFile:
		return 10
	case strings.HasSuffix(name, "_handler.go"):
		res := strings.TrimSuffix(name, "_handler.go")
		n := 0
		for _, ep := range spec.APIEndpoints {
			if strings.Contains(ep.Path, "/"+res) {
				n++
			}
		}
		return 30 + 40*n
	default:
		for _, dm := range spec.DataModels {
			if Slug(dm.Name)+".go" == name {
				return 40 + 10*len(dm.Fields)
			}
		}
		return 120
	}
}

// Slug lowercases s and replaces runs of anything but letters and digits
// with a single underscore.
func Slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "app"
	}
	return b.String()
}

// exported converts snake, kebab or space separated words to CamelCase.
func exported(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
