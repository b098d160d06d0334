package intent

import "github.com/ShayCichocki/parley/pkg/models"

// Outcome is the result of Classify: either Resolved or NeedsClarification.
type Outcome interface {
	isOutcome()
}

// Resolved means the intent is clear enough to act on.
type Resolved struct {
	Intent *models.Intent
}

// NeedsClarification means the caller should ask a follow-up question.
type NeedsClarification struct {
	Intent  *models.Intent
	Reasons []string
}

func (Resolved) isOutcome()           {}
func (NeedsClarification) isOutcome() {}

// IntentOf returns the intent carried by either outcome.
func IntentOf(o Outcome) *models.Intent {
	switch v := o.(type) {
	case Resolved:
		return v.Intent
	case NeedsClarification:
		return v.Intent
	default:
		return nil
	}
}

func outcomeOf(in *models.Intent) Outcome {
	if in.Resolved {
		return Resolved{Intent: in}
	}
	reasons := make([]string, len(in.Ambiguities))
	copy(reasons, in.Ambiguities)
	return NeedsClarification{Intent: in, Reasons: reasons}
}
