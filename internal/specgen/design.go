package specgen

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/pkg/models"
)

// CRUD operation names accepted by DesignAPI.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// DefaultOperations is the full CRUD set.
var DefaultOperations = []string{OpList, OpGet, OpCreate, OpUpdate, OpDelete}

type route struct {
	method string
	item   bool
	verb   string
}

var routes = map[string]route{
	OpList:   {"GET", false, "Tum %s kayitlarini listeler"},
	OpGet:    {"GET", true, "Tek bir %s kaydini getirir"},
	OpCreate: {"POST", false, "Yeni %s kaydi olusturur"},
	OpUpdate: {"PUT", true, "Mevcut %s kaydini gunceller"},
	OpDelete: {"DELETE", true, "%s kaydini siler"},
}

// DesignAPI adds REST endpoints for resource to the spec and returns them.
// With no operations the full CRUD set is used; unknown operations are
// skipped. An unknown spec id yields nil.
func (g *Generator) DesignAPI(specID, resource string, operations ...string) []models.APIEndpoint {
	spec, ok := g.specs[specID]
	if !ok {
		return nil
	}
	if len(operations) == 0 {
		operations = DefaultOperations
	}
	resource = strings.ToLower(strings.TrimSpace(resource))
	base := "/api/v1/" + resource

	var endpoints []models.APIEndpoint
	for _, op := range operations {
		r, ok := routes[op]
		if !ok {
			g.logger.Debug("skipping unknown api operation", zap.String("operation", op))
			continue
		}
		path := base
		if r.item {
			path += "/{id}"
		}
		endpoints = append(endpoints, models.APIEndpoint{
			Method:      r.method,
			Path:        path,
			Operation:   op,
			Description: fmt.Sprintf(r.verb, resource),
		})
	}
	spec.APIEndpoints = append(spec.APIEndpoints, endpoints...)

	lines := make([]string, len(spec.APIEndpoints))
	for i, ep := range spec.APIEndpoints {
		lines[i] = fmt.Sprintf("%s %s: %s", ep.Method, ep.Path, ep.Description)
	}
	section(spec, models.SectionAPIDesign, "API Tasarimi").Content = bullets(lines)
	return endpoints
}

// DesignDataModel adds a data model to the spec. It returns false for an
// unknown spec id.
func (g *Generator) DesignDataModel(specID, name string, fields []models.DataField) (models.DataModel, bool) {
	spec, ok := g.specs[specID]
	if !ok {
		return models.DataModel{}, false
	}
	dm := models.DataModel{Name: name, Fields: append([]models.DataField(nil), fields...)}
	spec.DataModels = append(spec.DataModels, dm)

	sec := section(spec, models.SectionDataModel, "Veri Modeli")
	if sec.Subsections == nil {
		sec.Subsections = make(map[string]string)
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = fmt.Sprintf("%s %s: %s", f.Name, f.Type, f.Description)
	}
	sec.Subsections[name] = bullets(lines)
	sec.Content = fmt.Sprintf("%d model", len(spec.DataModels))
	return dm, true
}

// SuggestArchitecture adds architecture notes suited to what the spec
// already describes and returns the full note list. Notes already present
// are not repeated. An unknown spec id yields nil.
func (g *Generator) SuggestArchitecture(specID, context string) []string {
	spec, ok := g.specs[specID]
	if !ok {
		return nil
	}

	notes := []string{
		"Katmanli yapi: transport, servis ve depolama katmanlari ayrilir",
		"Yapilandirma dosyadan ve ortam degiskenlerinden okunur",
	}
	if len(spec.APIEndpoints) > 0 {
		notes = append(notes, "REST API surumlu yol oneki kullanir (/api/v1)")
	}
	if len(spec.DataModels) > 0 {
		notes = append(notes, "Sema degisiklikleri migration ile yonetilir")
	}
	for _, s := range spec.Sections {
		if s.Type == models.SectionSecurity {
			notes = append(notes, "Kimlik dogrulama ve yetkilendirme ara katmanda yapilir")
			break
		}
	}
	if context = strings.TrimSpace(context); context != "" {
		notes = append(notes, "Baglam notu: "+context)
	}

	for _, n := range notes {
		if !slices.Contains(spec.ArchitectureNotes, n) {
			spec.ArchitectureNotes = append(spec.ArchitectureNotes, n)
		}
	}
	section(spec, models.SectionArchitecture, "Mimari").Content = bullets(spec.ArchitectureNotes)
	return spec.ArchitectureNotes
}

// Documentation renders the spec as markdown, or "" for an unknown id.
func (g *Generator) Documentation(specID string) string {
	spec, ok := g.specs[specID]
	if !ok {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", spec.Title)
	for _, s := range spec.Sections {
		if s.Type == models.SectionAPIDesign || s.Type == models.SectionDataModel {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", s.Title, s.Content)
		keys := make([]string, 0, len(s.Subsections))
		for k := range s.Subsections {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n### %s\n\n%s\n", k, s.Subsections[k])
		}
	}

	if len(spec.APIEndpoints) > 0 {
		b.WriteString("\n## API Endpoints\n\n| Method | Path | Description |\n|---|---|---|\n")
		for _, ep := range spec.APIEndpoints {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", ep.Method, ep.Path, ep.Description)
		}
	}

	if len(spec.DataModels) > 0 {
		b.WriteString("\n## Data Models\n")
		for _, dm := range spec.DataModels {
			fmt.Fprintf(&b, "\n### %s\n\n| Field | Type | Description |\n|---|---|---|\n", dm.Name)
			for _, f := range dm.Fields {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", f.Name, f.Type, f.Description)
			}
		}
	}
	return b.String()
}
