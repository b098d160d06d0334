package orchestrator

import "github.com/ShayCichocki/parley/pkg/models"

// StepTable lists the steps run for each intent category, in order.
// Categories absent from the table only render feedback.
var StepTable = map[models.IntentCategory][]models.Step{
	models.CategoryCreate: {
		models.StepDecompose, models.StepRequirements, models.StepSpec,
		models.StepPlan, models.StepTranslate, models.StepFeedback,
	},
	models.CategoryModify: {
		models.StepDecompose, models.StepRequirements, models.StepTranslate, models.StepFeedback,
	},
	models.CategoryAnalyze: {
		models.StepDecompose, models.StepRequirements, models.StepFeedback,
	},
	models.CategoryDebug: {
		models.StepDecompose, models.StepTranslate, models.StepFeedback,
	},
	models.CategoryDelete:    {models.StepTranslate, models.StepFeedback},
	models.CategoryQuery:     {models.StepTranslate, models.StepFeedback},
	models.CategoryExecute:   {models.StepTranslate, models.StepFeedback},
	models.CategoryConfigure: {models.StepTranslate, models.StepFeedback},
	models.CategoryExplain:   {models.StepFeedback},
	models.CategoryUnknown:   {models.StepFeedback},
}

// StepsFor returns the steps for a category.
func StepsFor(c models.IntentCategory) []models.Step {
	if steps, ok := StepTable[c]; ok {
		return steps
	}
	return []models.Step{models.StepFeedback}
}
