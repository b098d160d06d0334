package models

import (
	"fmt"
	"time"
)

// TaskRelation describes how a subtask relates to the ones around it.
type TaskRelation string

const (
	// RelationSequential must run after the nearest preceding non-optional subtask.
	RelationSequential TaskRelation = "sequential"
	// RelationParallel may run alongside neighbouring parallel subtasks.
	RelationParallel TaskRelation = "parallel"
	// RelationConditional runs only when its condition holds.
	RelationConditional TaskRelation = "conditional"
	// RelationOptional may be skipped.
	RelationOptional TaskRelation = "optional"
)

// Valid returns true if the relation is a known value.
func (r TaskRelation) Valid() bool {
	switch r {
	case RelationSequential, RelationParallel, RelationConditional, RelationOptional:
		return true
	default:
		return false
	}
}

// SubTask is one atomic unit produced by decomposing an instruction.
type SubTask struct {
	// ID is the unique identifier for this subtask.
	ID string `json:"id"`
	// Description is the fragment of the instruction this subtask covers.
	Description string `json:"description"`
	// EstimatedComplexity is in [1,10].
	EstimatedComplexity int `json:"estimated_complexity"`
	// Relation is the inferred ordering relation.
	Relation TaskRelation `json:"relation"`
	// Dependencies lists subtask IDs created earlier in the same batch.
	Dependencies []string `json:"dependencies,omitempty"`
	// ValidationRules are checklist items for verifying completion.
	ValidationRules []string `json:"validation_rules,omitempty"`
	// Completed is flipped by the owner once the work is done.
	Completed bool `json:"completed"`
}

// TaskDecomposition is the result of decomposing one instruction.
// Only SubTask.Completed may change after creation.
type TaskDecomposition struct {
	// ID is the unique identifier for this decomposition.
	ID string `json:"id"`
	// OriginalTask is the instruction that was decomposed.
	OriginalTask string `json:"original_task"`
	// Subtasks are in instruction order.
	Subtasks []*SubTask `json:"subtasks"`
	// TotalComplexity is the sum of subtask complexities.
	TotalComplexity int `json:"total_complexity"`
	// ParallelGroups are sets of subtask IDs with no ordering among themselves.
	ParallelGroups [][]string `json:"parallel_groups,omitempty"`
	// CreatedAt is when the decomposition was produced.
	CreatedAt time.Time `json:"created_at"`
}

// SubTask returns the subtask with the given ID.
func (d *TaskDecomposition) SubTask(id string) (*SubTask, bool) {
	for _, st := range d.Subtasks {
		if st.ID == id {
			return st, true
		}
	}
	return nil, false
}

// CompletedCount returns how many subtasks are marked complete.
func (d *TaskDecomposition) CompletedCount() int {
	n := 0
	for _, st := range d.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of a decomposition:
// dependencies point only to earlier subtasks, parallel groups reference
// known subtasks, and no subtask appears in two groups.
func (d *TaskDecomposition) Validate() error {
	position := make(map[string]int, len(d.Subtasks))
	for i, st := range d.Subtasks {
		if _, dup := position[st.ID]; dup {
			return fmt.Errorf("duplicate subtask id %s", st.ID)
		}
		position[st.ID] = i
		if st.EstimatedComplexity < 1 || st.EstimatedComplexity > 10 {
			return fmt.Errorf("subtask %s: complexity %d out of range", st.ID, st.EstimatedComplexity)
		}
		for _, dep := range st.Dependencies {
			j, ok := position[dep]
			if !ok || j >= i {
				return fmt.Errorf("subtask %s depends on %s which is not an earlier subtask", st.ID, dep)
			}
		}
	}

	grouped := make(map[string]bool)
	for _, group := range d.ParallelGroups {
		for _, id := range group {
			if _, ok := position[id]; !ok {
				return fmt.Errorf("parallel group references unknown subtask %s", id)
			}
			if grouped[id] {
				return fmt.Errorf("subtask %s appears in more than one parallel group", id)
			}
			grouped[id] = true
		}
	}
	return nil
}
