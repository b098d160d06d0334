package models

import "testing"

func TestIntentCategory_Valid(t *testing.T) {
	for _, c := range AllCategories {
		if !c.Valid() {
			t.Errorf("IntentCategory(%q).Valid() = false, want true", c)
		}
	}

	invalid := []IntentCategory{"", "CREATE", "remove", "unknwon"}
	for _, c := range invalid {
		if c.Valid() {
			t.Errorf("IntentCategory(%q).Valid() = true, want false", c)
		}
	}
}

func TestEntityType_Valid(t *testing.T) {
	tests := []struct {
		et   EntityType
		want bool
	}{
		{EntityAgent, true},
		{EntityDatabase, true},
		{EntityGeneric, true},
		{EntityType("AGENT"), false},
		{EntityType(""), false},
	}

	for _, tt := range tests {
		if got := tt.et.Valid(); got != tt.want {
			t.Errorf("EntityType(%q).Valid() = %v, want %v", tt.et, got, tt.want)
		}
	}
}

func TestIntent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intent  Intent
		wantErr bool
	}{
		{
			name:   "resolved with no ambiguities",
			intent: Intent{Category: CategoryCreate, Confidence: 0.8, Resolved: true},
		},
		{
			name:   "unresolved with ambiguities",
			intent: Intent{Category: CategoryUnknown, Confidence: 0.2, Ambiguities: []string{"intent unclear"}},
		},
		{
			name:    "resolved with ambiguities",
			intent:  Intent{Category: CategoryCreate, Confidence: 0.8, Resolved: true, Ambiguities: []string{"x"}},
			wantErr: true,
		},
		{
			name:    "unresolved without ambiguities",
			intent:  Intent{Category: CategoryCreate, Confidence: 0.8},
			wantErr: true,
		},
		{
			name:    "confidence above one",
			intent:  Intent{Category: CategoryCreate, Confidence: 1.2, Resolved: true},
			wantErr: true,
		},
		{
			name:    "bad category",
			intent:  Intent{Category: "nope", Confidence: 0.5, Resolved: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIntent_EntityLookup(t *testing.T) {
	in := &Intent{
		Entities: []Entity{
			{Name: "api", Type: EntityAPI, Value: "olustur"},
			{Name: "dosya", Type: EntityFile, Value: "oku"},
		},
		ContextReferences: []string{"bu"},
	}

	e, ok := in.Entity(EntityFile)
	if !ok || e.Name != "dosya" {
		t.Errorf("Entity(file) = %+v, %v; want dosya, true", e, ok)
	}
	if _, ok := in.Entity(EntityAgent); ok {
		t.Error("Entity(agent) should not be found")
	}
	if !in.HasReference("bu") {
		t.Error("HasReference(bu) = false, want true")
	}
	if in.HasReference("o") {
		t.Error("HasReference(o) = true, want false")
	}
}

func TestVerbosity_ShowsDetail(t *testing.T) {
	tests := []struct {
		v    Verbosity
		want bool
	}{
		{VerbosityMinimal, false},
		{VerbosityNormal, false},
		{VerbosityDetailed, true},
		{VerbosityDebug, true},
	}

	for _, tt := range tests {
		if got := tt.v.ShowsDetail(); got != tt.want {
			t.Errorf("Verbosity(%q).ShowsDetail() = %v, want %v", tt.v, got, tt.want)
		}
	}
	if Verbosity("loud").Valid() {
		t.Error("Verbosity(loud).Valid() = true, want false")
	}
}

func TestRequirementSet_Empty(t *testing.T) {
	var nilSet *RequirementSet
	if !nilSet.Empty() {
		t.Error("nil RequirementSet should be empty")
	}

	onlyAssumptions := &RequirementSet{Assumptions: []string{"db exists"}}
	if !onlyAssumptions.Empty() {
		t.Error("RequirementSet with only assumptions should be empty")
	}

	withReq := &RequirementSet{Requirements: []*Requirement{{Type: RequirementFunctional}}}
	if withReq.Empty() {
		t.Error("RequirementSet with a requirement should not be empty")
	}
	if got := len(withReq.ByType(RequirementFunctional)); got != 1 {
		t.Errorf("ByType(functional) len = %d, want 1", got)
	}
}
