// SPDX-License-Identifier: MPL-2.0

// Package pipeline defines the contract between a pipeline implementation and
// the CLI adaptation layer. A pipeline is a directed graph of processing steps
// with named, typed input fields; this package describes how the adapter
// discovers those fields, binds parsed values onto them, and hands the bound
// pipeline to an execution plugin. The graph engine itself lives behind the
// Definition interface and is never inspected beyond what the interface exposes.
package pipeline

import (
	"context"
	"time"
)

type (
	// Values holds converted input values keyed by field name. Only fields
	// that received a value (from the CLI or from a default) appear in the map.
	Values map[string]any

	// RunRequest carries the invocation parameters for one pipeline run.
	// The adapter fills it in and forwards it verbatim; interpretation of
	// PluginArgs is entirely up to the selected plugin.
	RunRequest struct {
		// WorkDir is the working directory for intermediate outputs.
		// It exists by the time Run is invoked.
		WorkDir string

		// Plugin names the execution strategy to run the graph with.
		// Always a member of KnownPlugins.
		Plugin string

		// PluginArgs are plugin-specific key=value arguments, already merged
		// from site defaults and CLI input. Never nil.
		PluginArgs map[string]string

		// SettleTimeout is how long a step's outputs may take to appear after
		// the step reports completion. Raised for distributed plugins, where
		// networked filesystems can lag behind job completion.
		SettleTimeout time.Duration
	}

	// Result is the terminal outcome of one invocation.
	Result struct {
		Success     bool
		ErrorDetail string
	}

	// Definition is the capability a pipeline must provide to be driven by
	// this adapter. Implementations must keep Fields stable across calls:
	// the flag schema derived from it is built once and reused.
	Definition interface {
		// Name identifies the pipeline; it becomes the CLI program name.
		Name() string

		// Fields enumerates the declared input fields in declaration order.
		Fields() []FieldSpec

		// Bind returns a copy of the pipeline with the given input values
		// set. The receiver is not modified and the graph topology of the
		// copy is identical to the receiver's.
		Bind(values Values) (Definition, error)

		// Run executes the pipeline graph with the selected plugin.
		// It blocks until the run completes or ctx is cancelled.
		Run(ctx context.Context, req RunRequest) error
	}
)

// Failure builds a failed Result from an error.
func Failure(err error) Result {
	return Result{Success: false, ErrorDetail: err.Error()}
}

// Succeeded is the Result of a clean run.
func Succeeded() Result {
	return Result{Success: true}
}
