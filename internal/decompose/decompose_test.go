package decompose

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/parley/pkg/models"
)

func descriptions(d *models.TaskDecomposition) []string {
	out := make([]string, len(d.Subtasks))
	for i, st := range d.Subtasks {
		out[i] = st.Description
	}
	return out
}

func TestDecompose_Splitting(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "connective",
			text: "Once veritabani olustur, sonra API yaz",
			want: []string{"Once veritabani olustur", "API yaz"},
		},
		{
			name: "numbered list",
			text: "1. model yaz 2. test yaz 3. deploy et",
			want: []string{"model yaz", "test yaz", "deploy et"},
		},
		{
			name: "bulleted lines",
			text: "- schema hazirla\n- migration yaz\n* seed ekle",
			want: []string{"schema hazirla", "migration yaz", "seed ekle"},
		},
		{
			name: "longest connective wins",
			text: "build the image and then push it",
			want: []string{"build the image", "push it"},
		},
		{
			name: "connective is case insensitive",
			text: "rapor hazirla VE gonder",
			want: []string{"rapor hazirla", "gonder"},
		},
		{
			name: "short comma pieces stay together",
			text: "model yaz, test yaz, dokumantasyon ekle",
			want: []string{"model yaz, test yaz, dokumantasyon ekle"},
		},
		{
			name: "long comma pieces split",
			text: "create the user table, write the login handler",
			want: []string{"create the user table", "write the login handler"},
		},
		{
			name: "no separator",
			text: "  bir rapor hazirla.  ",
			want: []string{"bir rapor hazirla"},
		},
		{
			name: "numbered lines",
			text: "1) model yaz\n2) test yaz",
			want: []string{"model yaz", "test yaz"},
		},
		{
			name: "numbers inside a sentence are not a list",
			text: "update version to 1. then 2. release",
			want: []string{"update version to 1", "2. release"},
		},
		{
			name: "out of sequence number stays in its item",
			text: "1. timeout 30. olarak ayarla 2. deploy et",
			want: []string{"timeout 30. olarak ayarla", "deploy et"},
		},
		{
			name: "trailing symbols kept",
			text: "write it in C++",
			want: []string{"write it in C++"},
		},
		{
			name: "separator punctuation trimmed",
			text: "Kodu C# ile yaz; ardindan testleri calistir.",
			want: []string{"Kodu C# ile yaz", "testleri calistir"},
		},
		{
			name: "connective inside a word is ignored",
			text: "veritabani yedegini al",
			want: []string{"veritabani yedegini al"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New().Decompose(tt.text, nil)
			if diff := cmp.Diff(tt.want, descriptions(d)); diff != "" {
				t.Errorf("fragments mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.text, d.OriginalTask)
			require.NoError(t, d.Validate())
		})
	}
}

func TestDecompose_AlwaysOneSubtask(t *testing.T) {
	for _, text := range []string{"", "   ", "...", "tek is"} {
		d := New().Decompose(text, nil)
		require.Len(t, d.Subtasks, 1, "text %q", text)
		// Blank fragments fall back to the text as given
		assert.Equal(t, text, d.Subtasks[0].Description)
		assert.Empty(t, d.Subtasks[0].Dependencies)
		assert.Empty(t, d.ParallelGroups)
	}
}

func TestDecompose_SequentialDependency(t *testing.T) {
	d := New().Decompose("Once veritabani olustur, sonra API yaz", nil)
	require.Len(t, d.Subtasks, 2)

	first, second := d.Subtasks[0], d.Subtasks[1]
	assert.Equal(t, models.RelationSequential, first.Relation)
	assert.Equal(t, models.RelationSequential, second.Relation)
	assert.Empty(t, first.Dependencies)
	assert.Equal(t, []string{first.ID}, second.Dependencies)
	assert.Equal(t, first.EstimatedComplexity+second.EstimatedComplexity, d.TotalComplexity)
	assert.Equal(t, []string{"output must exist"}, first.ValidationRules)
}

func TestDecompose_OptionalPredecessorSkipped(t *testing.T) {
	d := New().Decompose("veritabani olustur ve istege bagli cache ekle ve API yaz", nil)
	require.Len(t, d.Subtasks, 3)

	assert.Equal(t, models.RelationOptional, d.Subtasks[1].Relation)
	assert.Empty(t, d.Subtasks[1].Dependencies)
	assert.Equal(t, []string{d.Subtasks[0].ID}, d.Subtasks[2].Dependencies)
}

func TestDecompose_ParallelGroup(t *testing.T) {
	d := New().Decompose("paralel olarak testleri calistir ve ayni anda lint calistir", nil)
	require.Len(t, d.Subtasks, 2)

	for _, st := range d.Subtasks {
		assert.Equal(t, models.RelationParallel, st.Relation)
		assert.Empty(t, st.Dependencies)
	}
	assert.Equal(t, [][]string{{d.Subtasks[0].ID, d.Subtasks[1].ID}}, d.ParallelGroups)
}

func TestDecompose_ParallelGroupsAreDisjointSubsets(t *testing.T) {
	texts := []string{
		"paralel lint calistir ve paralel test calistir ve raporu sonra yaz",
		"1. model yaz 2. test yaz 3. deploy et",
		"eger testler gecerse deploy et ve ayni anda bildirim gonder",
	}
	for _, text := range texts {
		d := New().Decompose(text, nil)
		require.NoError(t, d.Validate(), text)

		seen := make(map[string]bool)
		for _, group := range d.ParallelGroups {
			assert.GreaterOrEqual(t, len(group), 2)
			for _, id := range group {
				_, ok := d.SubTask(id)
				assert.True(t, ok, "group member %s is not a subtask", id)
				assert.False(t, seen[id], "subtask %s in two groups", id)
				seen[id] = true
			}
		}
	}
}

func TestDecompose_Relations(t *testing.T) {
	tests := []struct {
		text string
		want models.TaskRelation
	}{
		{"eger testler gecerse deploy et", models.RelationConditional},
		{"optionally add a cache", models.RelationOptional},
		{"run both jobs in parallel", models.RelationParallel},
		{"raporu hazirla", models.RelationSequential},
	}
	for _, tt := range tests {
		d := New().Decompose(tt.text, nil)
		require.Len(t, d.Subtasks, 1)
		assert.Equal(t, tt.want, d.Subtasks[0].Relation, tt.text)
	}
}

func TestDecompose_Complexity(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"basit bir fonksiyon yaz", 1},
		{"karmasik bir sistem kur", 7},
		{"cok karmasik bir sistem kur", 9},
		{"rapor al", 2},
		{"kullanici kaydi icin form hazirla", 4},
		{"kullanici kaydi icin form hazirla ve girilen verileri sunucu tarafinda tek tek kontrol eden katman kur", 4},
	}
	for _, tt := range tests {
		d := New().Decompose(tt.text, nil)
		require.NotEmpty(t, d.Subtasks)
		assert.Equal(t, tt.want, d.Subtasks[0].EstimatedComplexity, tt.text)
		for _, st := range d.Subtasks {
			assert.GreaterOrEqual(t, st.EstimatedComplexity, 1)
			assert.LessOrEqual(t, st.EstimatedComplexity, 10)
		}
	}
}

func TestDecompose_WordCountComplexity(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{1, 2}, {3, 2}, {4, 4}, {8, 4}, {9, 6}, {15, 6}, {16, 8},
	}
	for _, tt := range tests {
		text := ""
		for i := 0; i < tt.words; i++ {
			text += "kelime "
		}
		d := New().Decompose(text, nil)
		require.Len(t, d.Subtasks, 1)
		assert.Equal(t, tt.want, d.Subtasks[0].EstimatedComplexity, "%d words", tt.words)
	}
}

func TestDecompose_ValidationRules(t *testing.T) {
	d := New().Decompose("eski kayitlari sil", nil)
	assert.Equal(t, []string{"target no longer exists"}, d.Subtasks[0].ValidationRules)

	d = New().Decompose("yeni test yaz", nil)
	assert.Equal(t, []string{"output must exist", "all tests pass"}, d.Subtasks[0].ValidationRules)

	d = New().Decompose("raporu gozden gecir", nil)
	assert.Empty(t, d.Subtasks[0].ValidationRules)

	d = New().Decompose("raporu gozden gecir", &models.Intent{Category: models.CategoryModify})
	assert.Equal(t, []string{"change applied"}, d.Subtasks[0].ValidationRules)

	d = New().Decompose("raporu gozden gecir", &models.Intent{Category: models.CategoryQuery})
	assert.Empty(t, d.Subtasks[0].ValidationRules)
}

func TestDecompose_MaxSubtasks(t *testing.T) {
	dec := New(WithMaxSubtasks(2))
	assert.Equal(t, 2, dec.MaxSubtasks())

	d := dec.Decompose("a yaz ve b yaz ve c yaz ve d yaz", nil)
	assert.Equal(t, []string{"a yaz", "b yaz"}, descriptions(d))

	assert.Equal(t, 20, New(WithMaxSubtasks(0)).MaxSubtasks())
}

func TestDecomposer_CompleteSubtask(t *testing.T) {
	dec := New()
	d := dec.Decompose("model yaz ve test yaz", nil)
	require.Len(t, d.Subtasks, 2)

	assert.True(t, dec.CompleteSubtask(d.ID, d.Subtasks[0].ID))
	assert.True(t, dec.CompleteSubtask(d.ID, d.Subtasks[0].ID), "completion is idempotent")
	assert.True(t, d.Subtasks[0].Completed)
	assert.Equal(t, 1, d.CompletedCount())

	assert.False(t, dec.CompleteSubtask(d.ID, "missing"))
	assert.False(t, dec.CompleteSubtask("missing", d.Subtasks[0].ID))
}

func TestDecomposer_Lookup(t *testing.T) {
	dec := New()
	a := dec.Decompose("model yaz", nil)
	b := dec.Decompose("test yaz", nil)

	assert.Equal(t, 2, dec.Count())
	assert.NotEqual(t, a.ID, b.ID)

	got, ok := dec.Decomposition(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = dec.Decomposition("missing")
	assert.False(t, ok)
}
