package models

import "time"

// Step is one stage of the per-turn pipeline.
type Step string

const (
	StepDecompose    Step = "decompose"
	StepRequirements Step = "requirements"
	StepSpec         Step = "spec"
	StepPlan         Step = "plan"
	StepTranslate    Step = "translate"
	StepFeedback     Step = "feedback"
)

// Valid returns true if the step is a known value.
func (s Step) Valid() bool {
	switch s {
	case StepDecompose, StepRequirements, StepSpec, StepPlan, StepTranslate, StepFeedback:
		return true
	default:
		return false
	}
}

// PipelineResult is everything one call to the orchestrator produced.
// Optional artifacts are nil when their step did not run.
type PipelineResult struct {
	ID             string               `json:"id"`
	InputText      string               `json:"input_text"`
	Intent         *Intent              `json:"intent,omitempty"`
	Decomposition  *TaskDecomposition   `json:"decomposition,omitempty"`
	Requirements   *RequirementSet      `json:"requirements,omitempty"`
	Spec           *TechnicalSpec       `json:"spec,omitempty"`
	CodePlan       *CodePlan            `json:"code_plan,omitempty"`
	Commands       []*TranslatedCommand `json:"commands,omitempty"`
	Feedback       *FeedbackMessage     `json:"feedback,omitempty"`
	Success        bool                 `json:"success"`
	Error          string               `json:"error,omitempty"`
	State          ConversationState    `json:"state"`
	StepsRun       []Step               `json:"steps_run,omitempty"`
	ProcessingTime time.Duration        `json:"processing_time"`
	CreatedAt      time.Time            `json:"created_at"`
}

// NeedsClarification reports whether the turn ended by asking the user a question.
func (r *PipelineResult) NeedsClarification() bool {
	return r.State == StateClarifying
}
