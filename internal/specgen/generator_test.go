package specgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/parley/internal/requirements"
	"github.com/ShayCichocki/parley/pkg/models"
)

func sectionTypes(spec *models.TechnicalSpec) []models.SpecSectionType {
	out := make([]models.SpecSectionType, len(spec.Sections))
	for i, s := range spec.Sections {
		out[i] = s.Type
	}
	return out
}

func TestGenerate_Basic(t *testing.T) {
	g := New()
	spec, err := g.Generate("Test Sistemi", nil, "Basit test sistemi")
	require.NoError(t, err)

	assert.Equal(t, "Test Sistemi", spec.Title)
	require.Len(t, spec.Sections, 1)
	assert.Equal(t, models.SectionOverview, spec.Sections[0].Type)
	assert.Equal(t, "Basit test sistemi", spec.Sections[0].Content)
	assert.Equal(t, 1, g.Count())
}

func TestGenerate_WithRequirements(t *testing.T) {
	rs, err := requirements.New().Extract("API endpoint gerekli. Guvenlik kritik. Veritabani mevcut varsayilir.")
	require.NoError(t, err)

	spec, err := New().Generate("API Sistemi", rs, "")
	require.NoError(t, err)

	assert.Equal(t, []models.SpecSectionType{
		models.SectionOverview,
		models.SectionRequirements,
		models.SectionSecurity,
		models.SectionTesting,
	}, sectionTypes(spec))
	assert.Equal(t, "API Sistemi", spec.Sections[0].Content)
	assert.Contains(t, spec.Sections[0].Subsections["Varsayimlar"], "Veritabani mevcut varsayilir")
	assert.Contains(t, spec.Sections[1].Content, "[should] API endpoint gerekli")
	assert.Contains(t, spec.Sections[1].Subsections, "Fonksiyonel")
	assert.Contains(t, spec.Sections[2].Content, "Guvenlik kritik")
}

func TestGenerate_EmptyTitle(t *testing.T) {
	_, err := New().Generate("  ", nil, "")
	assert.True(t, errors.Is(err, ErrEmptyTitle))
}

func TestDesignAPI(t *testing.T) {
	g := New()
	spec, err := g.Generate("Test", nil, "")
	require.NoError(t, err)

	endpoints := g.DesignAPI(spec.ID, "Users")
	require.Len(t, endpoints, 5)
	methods := make(map[string]bool)
	for _, ep := range endpoints {
		methods[ep.Method] = true
		assert.True(t, strings.HasPrefix(ep.Path, "/api/v1/users"), ep.Path)
	}
	assert.Equal(t, map[string]bool{"GET": true, "POST": true, "PUT": true, "DELETE": true}, methods)
	assert.Equal(t, "/api/v1/users/{id}", endpoints[1].Path)
	assert.Len(t, spec.APIEndpoints, 5)
	assert.Contains(t, sectionTypes(spec), models.SectionAPIDesign)
}

func TestDesignAPI_CustomOperations(t *testing.T) {
	g := New()
	spec, err := g.Generate("Test", nil, "")
	require.NoError(t, err)

	endpoints := g.DesignAPI(spec.ID, "tasks", OpList, OpCreate, "archive")
	require.Len(t, endpoints, 2)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "POST", endpoints[1].Method)
}

func TestDesignAPI_UnknownSpec(t *testing.T) {
	assert.Empty(t, New().DesignAPI("missing", "x"))
}

func TestDesignDataModel(t *testing.T) {
	g := New()
	spec, err := g.Generate("Test", nil, "")
	require.NoError(t, err)

	dm, ok := g.DesignDataModel(spec.ID, "User", []models.DataField{
		{Name: "id", Type: "int", Description: "Kimlik"},
		{Name: "name", Type: "string", Description: "Ad"},
	})
	require.True(t, ok)
	assert.Equal(t, "User", dm.Name)
	assert.Len(t, dm.Fields, 2)
	assert.Len(t, spec.DataModels, 1)

	_, ok = g.DesignDataModel("missing", "X", nil)
	assert.False(t, ok)
}

func TestSuggestArchitecture(t *testing.T) {
	g := New()
	spec, err := g.Generate("Test", nil, "")
	require.NoError(t, err)

	notes := g.SuggestArchitecture(spec.ID, "")
	assert.GreaterOrEqual(t, len(notes), 2)

	notes = g.SuggestArchitecture(spec.ID, "Yuksek trafik bekleniyor")
	assert.Contains(t, notes, "Baglam notu: Yuksek trafik bekleniyor")
	assert.Len(t, notes, 3, "base notes are not repeated")

	g.DesignAPI(spec.ID, "items")
	notes = g.SuggestArchitecture(spec.ID, "")
	assert.Contains(t, notes, "REST API surumlu yol oneki kullanir (/api/v1)")

	assert.Nil(t, g.SuggestArchitecture("missing", ""))
}

func TestDocumentation(t *testing.T) {
	g := New()
	spec, err := g.Generate("Test Sistemi", nil, "Aciklama")
	require.NoError(t, err)
	g.DesignAPI(spec.ID, "items")
	g.DesignDataModel(spec.ID, "Item", []models.DataField{{Name: "id", Type: "int", Description: "ID"}})
	g.SuggestArchitecture(spec.ID, "")

	doc := g.Documentation(spec.ID)
	assert.True(t, strings.HasPrefix(doc, "# Test Sistemi\n"))
	assert.Contains(t, doc, "## Genel Bakis")
	assert.Contains(t, doc, "## API Endpoints")
	assert.Contains(t, doc, "| DELETE | /api/v1/items/{id} |")
	assert.Contains(t, doc, "## Data Models")
	assert.Contains(t, doc, "## Mimari")

	assert.Equal(t, "", g.Documentation("missing"))
}

func TestSpecLookup(t *testing.T) {
	g := New()
	spec, err := g.Generate("Test", nil, "")
	require.NoError(t, err)

	got, ok := g.Spec(spec.ID)
	require.True(t, ok)
	assert.Same(t, spec, got)

	_, ok = g.Spec("missing")
	assert.False(t, ok)
}
