// SPDX-License-Identifier: MPL-2.0

// Package workflow is a reference implementation of the pipeline contract: a
// directed graph of named steps with declared input fields, executable with
// the local plugins (Linear, MultiProc, Debug). Distributed plugins are
// outside its scope; selecting one yields ErrUnsupportedPlugin.
//
// Production pipelines backed by a real engine only need to satisfy
// pipeline.Definition; this package exists so the adapter is usable and
// testable end to end without one.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"

	"clip/internal/dag"
	"clip/pkg/pipeline"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnsupportedPlugin is returned when a known plugin name has no
	// backing strategy in this reference implementation.
	ErrUnsupportedPlugin = errors.New("plugin not supported by this pipeline")

	// ErrUnknownField is the sentinel error wrapped by UnknownFieldError.
	ErrUnknownField = errors.New("unknown input field")

	// ErrDuplicateStep is returned when two steps share a name.
	ErrDuplicateStep = errors.New("duplicate step name")
)

type (
	// RunContext is handed to each step function.
	RunContext struct {
		// WorkDir is the working directory for intermediate outputs.
		WorkDir string
		// Values are the bound input field values.
		Values pipeline.Values
		// PluginArgs are the merged plugin arguments for this run.
		PluginArgs map[string]string
		// Logger is scoped to the running pipeline.
		Logger *log.Logger
	}

	// StepFunc is the body of one processing step.
	StepFunc func(ctx context.Context, rc *RunContext) error

	// StepError wraps a failure in one step with the step's name.
	StepError struct {
		Step string
		Err  error
	}

	// UnknownFieldError is returned by Bind for values that match no
	// declared field. It wraps ErrUnknownField for errors.Is() compatibility.
	UnknownFieldError struct {
		Field string
	}

	step struct {
		name string
		fn   StepFunc
		deps []string
	}

	// Workflow implements pipeline.Definition over an in-process step graph.
	// Build one with New and AddStep; Bind returns parameterized copies, so a
	// single Workflow value can serve many invocations.
	Workflow struct {
		name   string
		fields []pipeline.FieldSpec
		steps  []step
		values pipeline.Values
		logger *log.Logger
	}
)

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the step's own error.
func (e *StepError) Unwrap() error { return e.Err }

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown input field %q", e.Field)
}

// Unwrap returns ErrUnknownField so callers can use errors.Is.
func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// New creates a Workflow with the given name and declared input fields.
// Field order is preserved; it becomes the CLI flag order.
func New(name string, fields ...pipeline.FieldSpec) *Workflow {
	return &Workflow{
		name:   name,
		fields: fields,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: name}),
	}
}

// AddStep appends a step with its dependencies and returns the workflow for
// chaining. Dependency names are validated at run time, when the graph is
// assembled.
func (w *Workflow) AddStep(name string, fn StepFunc, deps ...string) *Workflow {
	w.steps = append(w.steps, step{name: name, fn: fn, deps: deps})
	return w
}

// Name implements pipeline.Definition.
func (w *Workflow) Name() string { return w.name }

// Fields implements pipeline.Definition.
func (w *Workflow) Fields() []pipeline.FieldSpec { return w.fields }

// Value returns the bound value of a field, if any.
func (w *Workflow) Value(field string) (any, bool) {
	v, ok := w.values[field]
	return v, ok
}

// Bind implements pipeline.Definition: it returns a copy of the workflow with
// the given values set. The receiver is left untouched and the step graph is
// shared, never mutated.
func (w *Workflow) Bind(values pipeline.Values) (pipeline.Definition, error) {
	declared := make(map[string]bool, len(w.fields))
	for _, f := range w.fields {
		declared[f.Name] = true
	}
	for name := range values {
		if !declared[name] {
			return nil, &UnknownFieldError{Field: name}
		}
	}

	bound := *w
	bound.values = maps.Clone(values)
	return &bound, nil
}

// Run implements pipeline.Definition. It orders the steps, then executes them
// with the strategy named by req.Plugin.
func (w *Workflow) Run(ctx context.Context, req pipeline.RunRequest) error {
	if !pipeline.IsKnownPlugin(req.Plugin) {
		return &pipeline.UnknownPluginError{Name: req.Plugin}
	}

	g := dag.New()
	byName := make(map[string]step, len(w.steps))
	for _, s := range w.steps {
		if _, dup := byName[s.name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateStep, s.name)
		}
		byName[s.name] = s
		g.AddStep(s.name)
	}
	for _, s := range w.steps {
		for _, dep := range s.deps {
			if err := g.AddDependency(s.name, dep); err != nil {
				return err
			}
		}
	}

	rc := &RunContext{
		WorkDir:    req.WorkDir,
		Values:     w.values,
		PluginArgs: req.PluginArgs,
		Logger:     w.logger,
	}

	switch req.Plugin {
	case pipeline.PluginLinear:
		order, err := g.TopologicalSort()
		if err != nil {
			return err
		}
		return w.runLinear(ctx, rc, byName, order)
	case pipeline.PluginMultiProc:
		layers, err := g.Layers()
		if err != nil {
			return err
		}
		return w.runLayers(ctx, rc, byName, layers, workerCount(req.PluginArgs))
	case pipeline.PluginDebug:
		order, err := g.TopologicalSort()
		if err != nil {
			return err
		}
		return w.debugPlan(rc, byName, order)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlugin, req.Plugin)
	}
}
