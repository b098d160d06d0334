package models

import (
	"fmt"
	"time"
)

// IntentCategory is the classified purpose of an utterance.
type IntentCategory string

const (
	// CategoryCreate asks for something new to be built.
	CategoryCreate IntentCategory = "create"
	// CategoryModify asks for an existing thing to change.
	CategoryModify IntentCategory = "modify"
	// CategoryDelete asks for something to be removed.
	CategoryDelete IntentCategory = "delete"
	// CategoryQuery asks for information to be listed or fetched.
	CategoryQuery IntentCategory = "query"
	// CategoryExecute asks for something to be run, started or stopped.
	CategoryExecute IntentCategory = "execute"
	// CategoryConfigure asks for settings to change.
	CategoryConfigure IntentCategory = "configure"
	// CategoryAnalyze asks for an inspection or comparison.
	CategoryAnalyze IntentCategory = "analyze"
	// CategoryExplain asks for an explanation.
	CategoryExplain IntentCategory = "explain"
	// CategoryDebug asks for a problem to be found and fixed.
	CategoryDebug IntentCategory = "debug"
	// CategoryUnknown means no category keyword matched.
	CategoryUnknown IntentCategory = "unknown"
)

// AllCategories lists every category in declaration order.
var AllCategories = []IntentCategory{
	CategoryCreate, CategoryModify, CategoryDelete, CategoryQuery, CategoryExecute,
	CategoryConfigure, CategoryAnalyze, CategoryExplain, CategoryDebug, CategoryUnknown,
}

// Valid returns true if the category is a known value.
func (c IntentCategory) Valid() bool {
	switch c {
	case CategoryCreate, CategoryModify, CategoryDelete, CategoryQuery, CategoryExecute,
		CategoryConfigure, CategoryAnalyze, CategoryExplain, CategoryDebug, CategoryUnknown:
		return true
	default:
		return false
	}
}

// EntityType is the capability tag of an extracted entity.
type EntityType string

const (
	EntityAgent    EntityType = "agent"
	EntityTool     EntityType = "tool"
	EntityModel    EntityType = "model"
	EntityAPI      EntityType = "api"
	EntityDatabase EntityType = "database"
	EntityFile     EntityType = "file"
	EntityService  EntityType = "service"
	EntityConfig   EntityType = "config"
	EntityMetric   EntityType = "metric"
	EntityGeneric  EntityType = "generic"
)

// Valid returns true if the entity type is a known value.
func (t EntityType) Valid() bool {
	switch t {
	case EntityAgent, EntityTool, EntityModel, EntityAPI, EntityDatabase,
		EntityFile, EntityService, EntityConfig, EntityMetric, EntityGeneric:
		return true
	default:
		return false
	}
}

// ConfidenceLevel buckets a numeric confidence score.
type ConfidenceLevel string

const (
	// ConfidenceHigh is assigned at or above the high threshold.
	ConfidenceHigh ConfidenceLevel = "high"
	// ConfidenceMedium is assigned at or above the medium threshold.
	ConfidenceMedium ConfidenceLevel = "medium"
	// ConfidenceLow is assigned below the medium threshold with no ambiguity.
	ConfidenceLow ConfidenceLevel = "low"
	// ConfidenceAmbiguous is assigned below the medium threshold when ambiguities exist.
	ConfidenceAmbiguous ConfidenceLevel = "ambiguous"
)

// Span is a half-open byte range into the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Entity is a typed value extracted from one utterance.
// Entities are immutable once the owning Intent is returned.
type Entity struct {
	// Name is the word that matched the entity pattern.
	Name string `json:"name"`
	// Type is the capability tag.
	Type EntityType `json:"type"`
	// Value is the word following the match (or the match itself at end of input).
	Value string `json:"value"`
	// Confidence is 0.8 for exact token matches, 0.6 for substring matches.
	Confidence float64 `json:"confidence"`
	// Span locates Name in the source text.
	Span Span `json:"span"`
}

// Intent is the classified purpose of one user utterance.
type Intent struct {
	// ID is the unique identifier for this intent.
	ID string `json:"id"`
	// RawInput is the text that was classified.
	RawInput string `json:"raw_input"`
	// Category is the winning intent category.
	Category IntentCategory `json:"category"`
	// Action is the first keyword that matched the winning category.
	Action string `json:"action,omitempty"`
	// Entities are extracted in entity table order, at most one per type.
	Entities []Entity `json:"entities,omitempty"`
	// Confidence is the combined score in [0,1].
	Confidence float64 `json:"confidence"`
	// ConfidenceLevel buckets Confidence.
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	// Parameters carries free-form values collaborators may attach.
	Parameters map[string]any `json:"parameters,omitempty"`
	// ContextReferences are the deictic words found in the input.
	ContextReferences []string `json:"context_references,omitempty"`
	// Ambiguities are human-readable reasons the intent cannot proceed.
	Ambiguities []string `json:"ambiguities,omitempty"`
	// Resolved is true exactly when Ambiguities is empty.
	Resolved bool `json:"resolved"`
	// CreatedAt is when the intent was classified.
	CreatedAt time.Time `json:"created_at"`
}

// Entity returns the first entity of the given type.
func (i *Intent) Entity(t EntityType) (Entity, bool) {
	for _, e := range i.Entities {
		if e.Type == t {
			return e, true
		}
	}
	return Entity{}, false
}

// HasReference reports whether the given deictic word was found.
func (i *Intent) HasReference(word string) bool {
	for _, r := range i.ContextReferences {
		if r == word {
			return true
		}
	}
	return false
}

// Validate checks the resolved/ambiguity invariant and score bounds.
func (i *Intent) Validate() error {
	if i.Resolved != (len(i.Ambiguities) == 0) {
		return fmt.Errorf("intent %s: resolved=%t with %d ambiguities", i.ID, i.Resolved, len(i.Ambiguities))
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("intent %s: confidence %.3f out of range", i.ID, i.Confidence)
	}
	if !i.Category.Valid() {
		return fmt.Errorf("intent %s: invalid category %q", i.ID, i.Category)
	}
	return nil
}
