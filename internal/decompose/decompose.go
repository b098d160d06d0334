// Package decompose splits an instruction into ordered subtasks and infers
// their dependencies and parallel groups.
package decompose

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/config"
	"github.com/ShayCichocki/parley/internal/lexicon"
	"github.com/ShayCichocki/parley/pkg/models"
)

// Decomposer breaks instructions into subtasks and keeps every decomposition
// it produced so subtasks can be completed later.
// A Decomposer belongs to one conversation and is not safe for concurrent use.
type Decomposer struct {
	maxSubtasks int
	lexicon     lexicon.Source
	logger      *zap.Logger
	now         func() time.Time
	splitter    *splitter

	decompositions map[string]*models.TaskDecomposition
}

// Option configures a Decomposer.
type Option func(*Decomposer)

// WithMaxSubtasks bounds how many subtasks one decomposition may hold.
func WithMaxSubtasks(n int) Option {
	return func(d *Decomposer) {
		if n > 0 {
			d.maxSubtasks = n
		}
	}
}

// WithLexicon sets the table source.
func WithLexicon(src lexicon.Source) Option {
	return func(d *Decomposer) {
		if src != nil {
			d.lexicon = src
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decomposer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Decomposer using the embedded lexicon.
func New(opts ...Option) *Decomposer {
	d := &Decomposer{
		maxSubtasks:    config.Default().Decomposer.MaxSubtasks,
		lexicon:        lexicon.DefaultSource(),
		logger:         zap.NewNop(),
		now:            time.Now,
		splitter:       &splitter{},
		decompositions: make(map[string]*models.TaskDecomposition),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxSubtasks returns the subtask bound.
func (d *Decomposer) MaxSubtasks() int {
	return d.maxSubtasks
}

// Decompose splits text into subtasks. The intent is optional; when given,
// its category supplies a validation rule for fragments that matched none.
func (d *Decomposer) Decompose(text string, in *models.Intent) *models.TaskDecomposition {
	tables := d.lexicon.Current()

	fragments := d.splitter.split(tables, text)
	if len(fragments) > d.maxSubtasks {
		d.logger.Debug("truncating fragments",
			zap.Int("fragments", len(fragments)),
			zap.Int("max", d.maxSubtasks))
		fragments = fragments[:d.maxSubtasks]
	}

	subtasks := make([]*models.SubTask, 0, len(fragments))
	total := 0
	for _, frag := range fragments {
		tokens := lexicon.Tokenize(frag)
		st := &models.SubTask{
			ID:                  uuid.NewString(),
			Description:         frag,
			EstimatedComplexity: estimateComplexity(tables, tokens),
			Relation:            inferRelation(tables, tokens),
			ValidationRules:     validationRules(tables, frag, in),
		}
		total += st.EstimatedComplexity
		subtasks = append(subtasks, st)
	}

	assignDependencies(subtasks)

	dec := &models.TaskDecomposition{
		ID:              uuid.NewString(),
		OriginalTask:    text,
		Subtasks:        subtasks,
		TotalComplexity: total,
		ParallelGroups:  parallelGroups(subtasks),
		CreatedAt:       d.now(),
	}
	d.decompositions[dec.ID] = dec

	d.logger.Debug("decomposed instruction",
		zap.String("decomposition_id", dec.ID),
		zap.Int("subtasks", len(subtasks)),
		zap.Int("total_complexity", total),
		zap.Int("parallel_groups", len(dec.ParallelGroups)))
	return dec
}

// CompleteSubtask marks a subtask complete. It returns false if either id is unknown.
func (d *Decomposer) CompleteSubtask(decompositionID, subtaskID string) bool {
	dec, ok := d.decompositions[decompositionID]
	if !ok {
		return false
	}
	st, ok := dec.SubTask(subtaskID)
	if !ok {
		return false
	}
	st.Completed = true
	return true
}

// Decomposition returns a previously produced decomposition.
func (d *Decomposer) Decomposition(id string) (*models.TaskDecomposition, bool) {
	dec, ok := d.decompositions[id]
	return dec, ok
}

// Count returns how many decompositions have been produced.
func (d *Decomposer) Count() int {
	return len(d.decompositions)
}

// assignDependencies gives every sequential subtask after the first a single
// dependency on the nearest earlier subtask that is not optional.
func assignDependencies(subtasks []*models.SubTask) {
	for i := 1; i < len(subtasks); i++ {
		if subtasks[i].Relation != models.RelationSequential {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if subtasks[j].Relation != models.RelationOptional {
				subtasks[i].Dependencies = []string{subtasks[j].ID}
				break
			}
		}
	}
}

// parallelGroups collects maximal runs of two or more consecutive parallel
// subtasks, plus one group of all dependency-free sequential subtasks when
// there are at least two.
func parallelGroups(subtasks []*models.SubTask) [][]string {
	var groups [][]string

	var run []string
	flush := func() {
		if len(run) >= 2 {
			groups = append(groups, run)
		}
		run = nil
	}
	for _, st := range subtasks {
		if st.Relation == models.RelationParallel {
			run = append(run, st.ID)
			continue
		}
		flush()
	}
	flush()

	var independent []string
	for _, st := range subtasks {
		if st.Relation == models.RelationSequential && len(st.Dependencies) == 0 {
			independent = append(independent, st.ID)
		}
	}
	if len(independent) >= 2 {
		groups = append(groups, independent)
	}
	return groups
}
