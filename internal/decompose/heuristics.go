package decompose

import (
	"strings"

	"github.com/ShayCichocki/parley/internal/lexicon"
	"github.com/ShayCichocki/parley/pkg/models"
)

// estimateComplexity uses the first matching complexity hint, falling back
// to a word-count estimate.
func estimateComplexity(tables *lexicon.Tables, tokens []lexicon.Token) int {
	for _, hint := range tables.Complexity {
		if lexicon.HasPhrase(tokens, hint.Keyword) {
			return hint.Score
		}
	}

	switch n := len(tokens); {
	case n <= 3:
		return 2
	case n <= 8:
		return 4
	case n <= 15:
		return 6
	default:
		return 8
	}
}

// inferRelation returns the first relation, in table order, with a marker
// present. Sequential is the default.
func inferRelation(tables *lexicon.Tables, tokens []lexicon.Token) models.TaskRelation {
	for _, entry := range tables.Relations {
		for _, marker := range entry.Markers {
			if lexicon.HasPhrase(tokens, marker) {
				return entry.Relation
			}
		}
	}
	return models.RelationSequential
}

// categoryRules supplies a rule from the intent when no keyword matched.
var categoryRules = map[models.IntentCategory]string{
	models.CategoryCreate: "output must exist",
	models.CategoryDelete: "target no longer exists",
	models.CategoryModify: "change applied",
	models.CategoryDebug:  "all tests pass",
}

func validationRules(tables *lexicon.Tables, frag string, in *models.Intent) []string {
	lower := strings.ToLower(frag)

	var rules []string
	for _, vr := range tables.ValidationRules {
		for _, kw := range vr.Keywords {
			if strings.Contains(lower, kw) {
				rules = append(rules, vr.Rule)
				break
			}
		}
	}

	if len(rules) == 0 && in != nil {
		if rule, ok := categoryRules[in.Category]; ok {
			rules = append(rules, rule)
		}
	}
	return rules
}
