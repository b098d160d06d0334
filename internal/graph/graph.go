// Package graph provides a dependency graph over decomposed subtasks.
package graph

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/parley/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found among subtasks.
var ErrCycleDetected = errors.New("circular dependency detected")

// DependencyGraph is a directed acyclic graph of subtask dependencies.
// Subtasks are nodes, and edges represent "blocked by" relationships.
// Iteration follows insertion order so results are deterministic.
type DependencyGraph struct {
	// order is the subtask IDs in insertion order.
	order []string
	// nodes maps subtask ID to the subtask itself.
	nodes map[string]*models.SubTask
	// edges maps subtask ID to IDs of subtasks it depends on.
	edges map[string][]string
	// completed tracks which subtasks have been marked complete.
	completed map[string]bool
	// debugLog is an optional logging function.
	debugLog func(format string, args ...any)
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:     make(map[string]*models.SubTask),
		edges:     make(map[string][]string),
		completed: make(map[string]bool),
		debugLog:  func(format string, args ...any) {},
	}
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...any)) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Build constructs the graph from subtasks. Subtasks already flagged
// Completed start out complete.
// Returns an error if a cycle is detected or dependencies reference unknown subtasks.
func (g *DependencyGraph) Build(subtasks []*models.SubTask) error {
	g.debugLog("[graph.Build] building graph from %d subtasks", len(subtasks))

	for _, st := range subtasks {
		if _, dup := g.nodes[st.ID]; dup {
			return fmt.Errorf("duplicate subtask %s", st.ID)
		}
		g.order = append(g.order, st.ID)
		g.nodes[st.ID] = st
		g.edges[st.ID] = nil
		if st.Completed {
			g.completed[st.ID] = true
		}
	}

	for _, st := range subtasks {
		for _, depID := range st.Dependencies {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("subtask %s depends on unknown subtask %s", st.ID, depID)
			}
			g.edges[st.ID] = append(g.edges[st.ID], depID)
		}
	}

	if g.HasCycle() {
		return ErrCycleDetected
	}

	g.debugLog("[graph.Build] graph built with %d nodes", len(g.nodes))
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	// 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for _, id := range g.order {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// TopologicalSort returns subtask IDs with every dependency before its dependents.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	if g.HasCycle() {
		return nil, ErrCycleDetected
	}

	visited := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range g.edges[id] {
			visit(depID)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Levels groups subtask IDs into waves: every subtask in wave n depends only
// on subtasks in earlier waves. Completion state is ignored.
func (g *DependencyGraph) Levels() ([][]string, error) {
	if g.HasCycle() {
		return nil, ErrCycleDetected
	}

	depth := make(map[string]int, len(g.nodes))
	var levelOf func(id string) int
	levelOf = func(id string) int {
		if d, ok := depth[id]; ok {
			return d
		}
		d := 0
		for _, depID := range g.edges[id] {
			if l := levelOf(depID) + 1; l > d {
				d = l
			}
		}
		depth[id] = d
		return d
	}

	var levels [][]string
	for _, id := range g.order {
		l := levelOf(id)
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], id)
	}
	return levels, nil
}

// GetReady returns IDs of incomplete subtasks whose dependencies are all complete.
func (g *DependencyGraph) GetReady() []string {
	var ready []string
	for _, id := range g.order {
		if g.completed[id] {
			continue
		}
		blocked := false
		for _, depID := range g.edges[id] {
			if !g.completed[depID] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, id)
		}
	}
	g.debugLog("[graph.GetReady] %d ready: %v", len(ready), ready)
	return ready
}

// MarkComplete marks a subtask as completed in the graph.
func (g *DependencyGraph) MarkComplete(id string) {
	g.completed[id] = true
}

// GetSubTask returns the subtask for a given ID, or nil if not found.
func (g *DependencyGraph) GetSubTask(id string) *models.SubTask {
	return g.nodes[id]
}

// Size returns the number of subtasks in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// GetDependencies returns the IDs of subtasks the given subtask depends on.
func (g *DependencyGraph) GetDependencies(id string) []string {
	return g.edges[id]
}

// GetDependents returns the IDs of subtasks that depend on the given subtask.
func (g *DependencyGraph) GetDependents(id string) []string {
	var dependents []string
	for _, other := range g.order {
		for _, depID := range g.edges[other] {
			if depID == id {
				dependents = append(dependents, other)
				break
			}
		}
	}
	return dependents
}

// Depth returns the length of the longest dependency chain.
func (g *DependencyGraph) Depth() int {
	levels, err := g.Levels()
	if err != nil {
		return 0
	}
	return len(levels)
}
