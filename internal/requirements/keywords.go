package requirements

import (
	"regexp"

	"github.com/ShayCichocki/parley/pkg/models"
)

// Markers holds the substring markers used to type and prioritize sentences.
// All markers are lowercase and matched against the lowercased sentence.
type Markers struct {
	// Assumption markers move a sentence into RequirementSet.Assumptions.
	Assumption []string

	// Constraint markers indicate a hard limit. A number with a unit also
	// makes a sentence a constraint.
	Constraint []string

	// NonFunctional markers name quality attributes.
	NonFunctional []string

	// Functional markers express a capability the system must have.
	Functional []string

	// Priorities are checked in order; the first priority with a matching
	// marker wins. Sentences matching none get PriorityShould.
	Priorities []PriorityMarkers
}

// PriorityMarkers maps markers to a MoSCoW priority.
type PriorityMarkers struct {
	Priority models.Priority
	Markers  []string
}

// DefaultMarkers covers Turkish and English phrasing.
var DefaultMarkers = Markers{
	Assumption: []string{
		"varsayilir",
		"varsayiyoruz",
		"kabul edilir",
		"assume",
		"assuming",
		"assumed",
	},

	Constraint: []string{
		"maksimum",
		"minimum",
		"en fazla",
		"en az",
		"sinir",
		"limit",
		"at most",
		"at least",
		"maximum",
		"no more than",
	},

	NonFunctional: []string{
		"performans",
		"guvenlik",
		"olceklen",
		"erisilebilir",
		"guvenilir",
		"kullanilabilir",
		"gecikme",
		"performance",
		"security",
		"secure",
		"scalab",
		"availab",
		"reliab",
		"latency",
		"usability",
	},

	Functional: []string{
		"bilmeli",
		"malidir",
		"melidir",
		"gerekli",
		"istiyorum",
		"should",
		"must",
		"shall",
		"needs to",
		"able to",
	},

	Priorities: []PriorityMarkers{
		{models.PriorityWont, []string{"gerek yok", "istenmiyor", "won't", "wont", "not needed"}},
		{models.PriorityMust, []string{"mutlaka", "kesinlikle", "zorunlu", "kritik", "must", "shall", "critical"}},
		{models.PriorityCould, []string{"opsiyonel", "istege bagli", "tercihen", "could", "nice to have", "optional"}},
		{models.PriorityShould, []string{"should", "gerekli", "olmali"}},
	},
}

// quantityRe finds numeric values such as "100ms", "5" or "99.9%".
var quantityRe = regexp.MustCompile(`\d+(?:[.,]\d+)?(?:\s*(?:ms|sn|dk|mb|gb|kb|rps|%))?`)

// unitRe matches a number followed by a unit, which alone marks a constraint.
var unitRe = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:ms|sn|dk|mb|gb|kb|rps|%)`)

// sentenceRe splits text into sentences. A period inside a number does not
// end a sentence.
var sentenceRe = regexp.MustCompile(`[.!?;]+(?:\s+|$)|\n+`)
