package decompose

import (
	"fmt"

	"github.com/ShayCichocki/parley/internal/graph"
	"github.com/ShayCichocki/parley/pkg/models"
)

// Summary describes the shape of a decomposition.
type Summary struct {
	Subtasks        int
	Completed       int
	TotalComplexity int
	// Depth is the length of the longest dependency chain.
	Depth int
	// MaxParallel is the size of the widest execution wave.
	MaxParallel int
	Groups      int
}

func buildGraph(dec *models.TaskDecomposition) (*graph.DependencyGraph, error) {
	g := graph.New()
	if err := g.Build(dec.Subtasks); err != nil {
		return nil, fmt.Errorf("build dependency graph: %w", err)
	}
	return g, nil
}

// ExecutionOrder layers subtasks into waves. Every subtask depends only on
// subtasks in earlier waves.
func ExecutionOrder(dec *models.TaskDecomposition) ([][]*models.SubTask, error) {
	g, err := buildGraph(dec)
	if err != nil {
		return nil, err
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	waves := make([][]*models.SubTask, len(levels))
	for i, ids := range levels {
		for _, id := range ids {
			waves[i] = append(waves[i], g.GetSubTask(id))
		}
	}
	return waves, nil
}

// Ready returns incomplete subtasks whose dependencies are all complete.
func Ready(dec *models.TaskDecomposition) ([]*models.SubTask, error) {
	g, err := buildGraph(dec)
	if err != nil {
		return nil, err
	}
	var ready []*models.SubTask
	for _, id := range g.GetReady() {
		ready = append(ready, g.GetSubTask(id))
	}
	return ready, nil
}

// Summarize reports the size and shape of a decomposition.
func Summarize(dec *models.TaskDecomposition) (Summary, error) {
	waves, err := ExecutionOrder(dec)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Subtasks:        len(dec.Subtasks),
		Completed:       dec.CompletedCount(),
		TotalComplexity: dec.TotalComplexity,
		Depth:           len(waves),
		Groups:          len(dec.ParallelGroups),
	}
	for _, w := range waves {
		if len(w) > s.MaxParallel {
			s.MaxParallel = len(w)
		}
	}
	return s, nil
}
