package codeplan

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/parley/internal/specgen"
	"github.com/ShayCichocki/parley/pkg/models"
)

func paths(files []*models.PlannedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestPlanModules(t *testing.T) {
	p := New()
	plan, err := p.PlanModules("Test", []string{"auth", "users", "tasks"})
	require.NoError(t, err)

	want := []string{"internal/test/auth.go", "internal/test/users.go", "internal/test/tasks.go"}
	if diff := cmp.Diff(want, paths(plan.Files)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, plan.ImplementationOrder)
	assert.Len(t, plan.Interfaces, 3)
	assert.Contains(t, strings.ToLower(plan.TestStrategy), "test")
	assert.Equal(t, 1, p.Count())
}

func TestPlanModules_Interfaces(t *testing.T) {
	plan, err := New().PlanModules("Test", []string{"auth_service"})
	require.NoError(t, err)
	require.Len(t, plan.Interfaces, 1)
	assert.Equal(t, "AuthService", plan.Interfaces[0].Name)
	assert.Equal(t, "Run", plan.Interfaces[0].Methods[0].Name)
}

func TestPlan_FromSpec(t *testing.T) {
	g := specgen.New()
	spec, err := g.Generate("Item Service", nil, "")
	require.NoError(t, err)
	g.DesignAPI(spec.ID, "items")
	g.DesignDataModel(spec.ID, "Item", []models.DataField{{Name: "id", Type: "int"}, {Name: "name", Type: "string"}})

	plan, err := New().Plan("", spec)
	require.NoError(t, err)

	assert.Equal(t, "Item Service", plan.Title)
	assert.Equal(t, []string{
		"internal/item_service/doc.go",
		"internal/item_service/item.go",
		"internal/item_service/items_handler.go",
	}, paths(plan.Files))
	assert.Equal(t, []string{
		"internal/item_service/item.go",
		"internal/item_service/items_handler.go",
		"internal/item_service/doc.go",
	}, plan.ImplementationOrder)

	assert.Equal(t, 3, plan.Files[0].Priority, "package file is written last")
	assert.Equal(t, 60, plan.Files[1].EstimatedLines)
	assert.Equal(t, 230, plan.Files[2].EstimatedLines)

	require.Len(t, plan.Interfaces, 1)
	assert.Equal(t, "ItemRepository", plan.Interfaces[0].Name)
	assert.Len(t, plan.Interfaces[0].Methods, 5)
}

func TestPlan_BareSpec(t *testing.T) {
	spec, err := specgen.New().Generate("Rapor Motoru", nil, "")
	require.NoError(t, err)

	plan, err := New(WithRoot("pkg")).Plan("Rapor Motoru", spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/rapor_motoru/doc.go", "pkg/rapor_motoru/rapor_motoru.go"}, paths(plan.Files))
	assert.NotEmpty(t, plan.Interfaces)
}

func TestPlan_NoSpec(t *testing.T) {
	_, err := New().Plan("x", nil)
	assert.True(t, errors.Is(err, ErrNoSpec))
}

func TestPlanFileStructure(t *testing.T) {
	files := New().PlanFileStructure("internal/parser", []Module{
		{Name: "parser", Purpose: "Metin analizi"},
		{Name: "executor", Purpose: "Calistirma"},
	})
	require.Len(t, files, 3)
	assert.True(t, strings.HasSuffix(files[0].Path, "/doc.go"))
	assert.Equal(t, "internal/parser/executor.go", files[2].Path)
	assert.Equal(t, "Calistirma", files[2].Purpose)
}

func TestIdentifyDependencies(t *testing.T) {
	files := []*models.PlannedFile{
		{Path: "pkg/doc.go"},
		{Path: "pkg/a.go"},
		{Path: "pkg/a_test.go"},
		{Path: "pkg/b.go"},
		{Path: "other/c.go"},
	}
	got := IdentifyDependencies(files)
	want := map[string][]string{
		"pkg/doc.go":    {"pkg/a.go", "pkg/a_test.go", "pkg/b.go"},
		"pkg/a_test.go": {"pkg/a.go"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestDesignInterface(t *testing.T) {
	iface := DesignInterface("user_service", []models.MethodSpec{
		{Name: "get_user", Returns: "(*User, error)", Description: "Kullanici getir"},
	})
	assert.Equal(t, "UserService", iface.Name)
	require.Len(t, iface.Methods, 1)
	assert.Equal(t, "GetUser", iface.Methods[0].Name)
	assert.Equal(t, "(*User, error)", iface.Methods[0].Returns)
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Item Service", "item_service"},
		{"  API--v2 ", "api_v2"},
		{"...", "app"},
		{"users", "users"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}

func TestCodePlanLookup(t *testing.T) {
	p := New()
	plan, err := p.PlanModules("x", []string{"a"})
	require.NoError(t, err)

	got, ok := p.CodePlan(plan.ID)
	require.True(t, ok)
	assert.Same(t, plan, got)

	_, ok = p.CodePlan("missing")
	assert.False(t, ok)
}
