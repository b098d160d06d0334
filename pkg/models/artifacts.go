package models

import "time"

// RequirementType classifies an extracted requirement.
type RequirementType string

const (
	RequirementFunctional    RequirementType = "functional"
	RequirementNonFunctional RequirementType = "non_functional"
	RequirementConstraint    RequirementType = "constraint"
	RequirementAssumption    RequirementType = "assumption"
)

// Priority is a MoSCoW priority.
type Priority string

const (
	PriorityMust   Priority = "must"
	PriorityShould Priority = "should"
	PriorityCould  Priority = "could"
	PriorityWont   Priority = "wont"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityMust, PriorityShould, PriorityCould, PriorityWont:
		return true
	default:
		return false
	}
}

// Requirement is one requirement extracted from free text.
type Requirement struct {
	ID                 string          `json:"id"`
	Description        string          `json:"description"`
	Type               RequirementType `json:"type"`
	Priority           Priority        `json:"priority"`
	SourceText         string          `json:"source_text,omitempty"`
	AcceptanceCriteria []string        `json:"acceptance_criteria,omitempty"`
	Constraints        []string        `json:"constraints,omitempty"`
}

// RequirementSet groups the requirements extracted from one text.
type RequirementSet struct {
	ID           string         `json:"id"`
	Title        string         `json:"title,omitempty"`
	Requirements []*Requirement `json:"requirements"`
	Assumptions  []string       `json:"assumptions,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Empty reports whether the set holds no requirements.
// Assumptions alone do not make a set non-empty.
func (rs *RequirementSet) Empty() bool {
	return rs == nil || len(rs.Requirements) == 0
}

// ByType returns the requirements of the given type in extraction order.
func (rs *RequirementSet) ByType(t RequirementType) []*Requirement {
	var out []*Requirement
	for _, r := range rs.Requirements {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// SpecSectionType names a section of a technical spec.
type SpecSectionType string

const (
	SectionOverview     SpecSectionType = "overview"
	SectionRequirements SpecSectionType = "requirements"
	SectionAPIDesign    SpecSectionType = "api_design"
	SectionDataModel    SpecSectionType = "data_model"
	SectionArchitecture SpecSectionType = "architecture"
	SectionSecurity     SpecSectionType = "security"
	SectionTesting      SpecSectionType = "testing"
	SectionDeployment   SpecSectionType = "deployment"
)

// SpecSection is one titled section of a technical spec.
type SpecSection struct {
	ID          string            `json:"id"`
	Type        SpecSectionType   `json:"type"`
	Title       string            `json:"title"`
	Content     string            `json:"content,omitempty"`
	Subsections map[string]string `json:"subsections,omitempty"`
}

// APIEndpoint describes one HTTP endpoint in a spec.
type APIEndpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Operation   string `json:"operation"`
	Description string `json:"description"`
}

// DataField is one field of a data model.
type DataField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// DataModel describes one entity of a spec's data model.
type DataModel struct {
	Name   string      `json:"name"`
	Fields []DataField `json:"fields"`
}

// TechnicalSpec is the output of spec generation.
type TechnicalSpec struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Sections          []*SpecSection `json:"sections"`
	APIEndpoints      []APIEndpoint  `json:"api_endpoints,omitempty"`
	DataModels        []DataModel    `json:"data_models,omitempty"`
	ArchitectureNotes []string       `json:"architecture_notes,omitempty"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// PlannedFile is one file in a code plan.
type PlannedFile struct {
	Path           string   `json:"path"`
	Purpose        string   `json:"purpose,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
	EstimatedLines int      `json:"estimated_lines"`
	Priority       int      `json:"priority"`
}

// MethodSpec is one method of a planned interface.
type MethodSpec struct {
	Name        string `json:"name"`
	Params      string `json:"params,omitempty"`
	Returns     string `json:"returns,omitempty"`
	Description string `json:"description,omitempty"`
}

// InterfaceSpec is a planned interface and its methods.
type InterfaceSpec struct {
	Name    string       `json:"name"`
	Methods []MethodSpec `json:"methods"`
}

// CodePlan is the output of code planning.
type CodePlan struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Files               []*PlannedFile  `json:"files"`
	Interfaces          []InterfaceSpec `json:"interfaces,omitempty"`
	TestStrategy        string          `json:"test_strategy,omitempty"`
	ImplementationOrder []string        `json:"implementation_order,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// CommandType is the execution surface a translated command targets.
type CommandType string

const (
	CommandAgent  CommandType = "agent_command"
	CommandAPI    CommandType = "api_call"
	CommandDB     CommandType = "db_query"
	CommandShell  CommandType = "shell_command"
	CommandSystem CommandType = "system_action"
)

// SafetyLevel rates how risky a translated command is.
type SafetyLevel string

const (
	SafetySafe      SafetyLevel = "safe"
	SafetyCaution   SafetyLevel = "caution"
	SafetyDangerous SafetyLevel = "dangerous"
	SafetyBlocked   SafetyLevel = "blocked"
)

// TranslatedCommand is an executable rendering of an utterance.
// Nothing in this module executes it.
type TranslatedCommand struct {
	ID                   string         `json:"id"`
	OriginalText         string         `json:"original_text"`
	Type                 CommandType    `json:"type"`
	Command              string         `json:"command"`
	Parameters           map[string]any `json:"parameters,omitempty"`
	SafetyLevel          SafetyLevel    `json:"safety_level"`
	SafetyReason         string         `json:"safety_reason,omitempty"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	CreatedAt            time.Time      `json:"created_at"`
}

// FeedbackType is the kind of message shown to the user.
type FeedbackType string

const (
	FeedbackErrorExplanation     FeedbackType = "error_explanation"
	FeedbackSuccessConfirmation  FeedbackType = "success_confirmation"
	FeedbackProgressReport       FeedbackType = "progress_report"
	FeedbackClarificationRequest FeedbackType = "clarification_request"
	FeedbackSuggestion           FeedbackType = "suggestion"
)

// Verbosity controls how much detail feedback carries.
type Verbosity string

const (
	VerbosityMinimal  Verbosity = "minimal"
	VerbosityNormal   Verbosity = "normal"
	VerbosityDetailed Verbosity = "detailed"
	VerbosityDebug    Verbosity = "debug"
)

// Valid returns true if the verbosity is a known value.
func (v Verbosity) Valid() bool {
	switch v {
	case VerbosityMinimal, VerbosityNormal, VerbosityDetailed, VerbosityDebug:
		return true
	default:
		return false
	}
}

// ShowsDetail reports whether technical detail is surfaced at this level.
func (v Verbosity) ShowsDetail() bool {
	return v == VerbosityDetailed || v == VerbosityDebug
}

// FeedbackMessage is a renderable message for the user.
type FeedbackMessage struct {
	ID              string       `json:"id"`
	Type            FeedbackType `json:"type"`
	Content         string       `json:"content"`
	TechnicalDetail string       `json:"technical_detail,omitempty"`
	Suggestions     []string     `json:"suggestions,omitempty"`
	Verbosity       Verbosity    `json:"verbosity"`
	CreatedAt       time.Time    `json:"created_at"`
}
