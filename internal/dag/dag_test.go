// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	g := New()
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestTopologicalSort_LinearChain(t *testing.T) {
	t.Parallel()
	g := New()
	for _, s := range []string{"convert", "register", "report"} {
		g.AddStep(s)
	}
	mustDep(t, g, "register", "convert")
	mustDep(t, g, "report", "register")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"convert", "register", "report"}) {
		t.Errorf("expected [convert register report], got %v", order)
	}
}

func TestTopologicalSort_InsertionOrderTiebreak(t *testing.T) {
	t.Parallel()
	g := New()
	// b and a are both roots; insertion order must win over lexical order.
	g.AddStep("b")
	g.AddStep("a")
	g.AddStep("c")
	mustDep(t, g, "c", "b")
	mustDep(t, g, "c", "a")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"b", "a", "c"}) {
		t.Errorf("expected [b a c], got %v", order)
	}
}

func TestLayers_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	for _, s := range []string{"fetch", "left", "right", "merge"} {
		g.AddStep(s)
	}
	mustDep(t, g, "left", "fetch")
	mustDep(t, g, "right", "fetch")
	mustDep(t, g, "merge", "left")
	mustDep(t, g, "merge", "right")

	layers, err := g.Layers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"fetch"}, {"left", "right"}, {"merge"}}
	if len(layers) != len(want) {
		t.Fatalf("expected %d layers, got %d: %v", len(want), len(layers), layers)
	}
	for i := range want {
		if !slices.Equal(layers[i], want[i]) {
			t.Errorf("layer %d: expected %v, got %v", i, want[i], layers[i])
		}
	}
}

func TestLayers_CycleDetected(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddStep("a")
	g.AddStep("b")
	mustDep(t, g, "b", "a")
	mustDep(t, g, "a", "b")

	_, err := g.Layers()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if len(cycleErr.Cycle) == 0 {
		t.Error("expected cycle members to be reported")
	}
}

func TestAddDependency_UnknownStep(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddStep("a")

	err := g.AddDependency("a", "ghost")
	var unknownErr *UnknownStepError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownStepError, got %v", err)
	}
	if unknownErr.Step != "ghost" {
		t.Errorf("expected ghost, got %q", unknownErr.Step)
	}

	if err := g.AddDependency("ghost", "a"); err == nil {
		t.Error("expected error for undeclared dependent")
	}
}

func mustDep(t *testing.T, g *Graph, step, dep string) {
	t.Helper()
	if err := g.AddDependency(step, dep); err != nil {
		t.Fatalf("AddDependency(%s, %s): %v", step, dep, err)
	}
}
