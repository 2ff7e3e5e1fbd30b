// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed acyclic graph operations for ordering pipeline
// steps: a deterministic topological sort for sequential execution and a
// layered variant that groups mutually independent steps for concurrent
// execution.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing any
	// execution order.
	CycleError struct {
		// Cycle contains the steps involved in the cycle (enough of them to
		// identify the problem, not necessarily the minimal cycle).
		Cycle []string
	}

	// UnknownStepError indicates an edge referencing a step that was never added.
	UnknownStepError struct {
		Step string
	}

	// Graph is a directed graph over pipeline step names. An edge from A to B
	// means A must complete before B starts.
	Graph struct {
		// adjacency maps each step to its downstream dependents.
		adjacency map[string][]string
		// steps tracks insertion order for deterministic output.
		steps []string
		// stepSet provides O(1) membership checks.
		stepSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("step dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("dependency on undeclared step %q", e.Step)
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		stepSet:   make(map[string]bool),
	}
}

// AddStep adds a step to the graph. Adding an existing step is a no-op.
func (g *Graph) AddStep(name string) {
	if g.stepSet[name] {
		return
	}
	g.stepSet[name] = true
	g.steps = append(g.steps, name)
}

// AddDependency records that step depends on dep: dep must complete first.
// Both steps must already have been added via AddStep.
func (g *Graph) AddDependency(step, dep string) error {
	if !g.stepSet[step] {
		return &UnknownStepError{Step: step}
	}
	if !g.stepSet[dep] {
		return &UnknownStepError{Step: dep}
	}
	g.adjacency[dep] = append(g.adjacency[dep], step)
	return nil
}

// Len returns the number of steps in the graph.
func (g *Graph) Len() int {
	return len(g.steps)
}

// TopologicalSort returns a valid sequential execution order using Kahn's
// algorithm. Steps at the same topological level appear in insertion order,
// so the result is deterministic. Returns CycleError if the graph has a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	layers, err := g.Layers()
	if err != nil {
		return nil, err
	}

	var order []string
	for _, layer := range layers {
		order = append(order, layer...)
	}
	return order, nil
}

// Layers partitions the steps into dependency levels: every step in layer i
// depends only on steps in layers < i, so all steps within one layer can run
// concurrently. Within a layer, steps appear in insertion order.
// Returns CycleError if the graph has a cycle.
func (g *Graph) Layers() ([][]string, error) {
	if len(g.steps) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.steps))
	for _, step := range g.steps {
		inDegree[step] = 0
	}
	for _, dependents := range g.adjacency {
		for _, d := range dependents {
			inDegree[d]++
		}
	}

	// Ready steps in insertion order seed the first layer.
	current := make([]string, 0)
	for _, step := range g.steps {
		if inDegree[step] == 0 {
			current = append(current, step)
		}
	}

	var layers [][]string
	seen := 0
	for len(current) > 0 {
		layers = append(layers, current)
		seen += len(current)

		released := make(map[string]bool)
		for _, step := range current {
			for _, d := range g.adjacency[step] {
				inDegree[d]--
				if inDegree[d] == 0 {
					released[d] = true
				}
			}
		}

		// Rebuild the next layer in insertion order for determinism.
		next := make([]string, 0, len(released))
		for _, step := range g.steps {
			if released[step] {
				next = append(next, step)
			}
		}
		current = next
	}

	if seen != len(g.steps) {
		// Remaining steps with non-zero in-degree form the cycle.
		var cycle []string
		for _, step := range g.steps {
			if inDegree[step] > 0 {
				cycle = append(cycle, step)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}

	return layers, nil
}
