package orchestrator

import "github.com/ShayCichocki/parley/pkg/models"

// RequirementExtractor turns text into structured requirements.
type RequirementExtractor interface {
	Extract(text string) (*models.RequirementSet, error)
}

// SpecGenerator turns requirements into a technical spec.
type SpecGenerator interface {
	Generate(title string, reqs *models.RequirementSet, description string) (*models.TechnicalSpec, error)
}

// CodePlanner turns a spec into a file-level plan.
type CodePlanner interface {
	Plan(title string, spec *models.TechnicalSpec) (*models.CodePlan, error)
}

// CommandTranslator renders text as an executable command.
type CommandTranslator interface {
	Translate(text string, intent *models.Intent) (*models.TranslatedCommand, error)
}

// FeedbackRenderer builds user-facing messages.
type FeedbackRenderer interface {
	ConfirmSuccess(action, entity, detail string) *models.FeedbackMessage
	ExplainError(kind, detail string) *models.FeedbackMessage
	RequestClarification(question string, options []string) *models.FeedbackMessage
	Suggest(text, reason string) *models.FeedbackMessage
}

// Recorder persists finished turns.
type Recorder interface {
	Record(conversationID string, res *models.PipelineResult) error
}

// apiDesigner is implemented by spec generators that can add CRUD endpoints
// to a spec they produced.
type apiDesigner interface {
	DesignAPI(specID, resource string, ops ...string) []models.APIEndpoint
}

// verbositySetter is implemented by renderers with adjustable verbosity.
type verbositySetter interface {
	SetVerbosity(v models.Verbosity) bool
}
