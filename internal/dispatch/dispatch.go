// SPDX-License-Identifier: MPL-2.0

// Package dispatch runs a fully parameterized pipeline: it prepares the
// working directory, composes the final plugin arguments, invokes the
// pipeline's run capability with the selected plugin, and captures the
// outcome. It performs no validation of plugin-specific arguments; that is
// the plugin's job.
package dispatch

import (
	"context"
	"fmt"
	"maps"
	"os"
	"time"

	"clip/pkg/pipeline"

	"dario.cat/mergo"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// distributedSettleTimeout is how long step outputs may lag behind job
// completion on networked filesystems. Local plugins need no settle time.
const distributedSettleTimeout = 60 * time.Second

type (
	// Request carries everything needed for one pipeline run.
	// Constructed once per invocation and discarded afterwards.
	Request struct {
		// Pipeline is the bound pipeline to run.
		Pipeline pipeline.Definition

		// WorkDir is the resolved working directory. Created if missing.
		WorkDir string

		// WorkDirDerived marks a working directory whose name this layer
		// derived itself. Only derived directories are removed on success.
		WorkDirDerived bool

		// KeepWorkDir disables removal of a derived working directory after
		// a clean run.
		KeepWorkDir bool

		// Plugin is the selected execution plugin name, already validated
		// against the known set.
		Plugin string

		// PluginArgs are the CLI-supplied plugin arguments.
		PluginArgs map[string]string

		// SiteArgs are plugin-argument defaults from the site configuration,
		// applied beneath PluginArgs.
		SiteArgs map[string]string

		// Resources optionally describes cluster resource needs, rendered to
		// scheduler arguments for distributed plugins.
		Resources *ResourceRequest

		// Logger receives run lifecycle events. Defaults to a stderr logger
		// with the pipeline name as prefix.
		Logger *log.Logger
	}

	// DirectoryError is returned when the working directory cannot be
	// prepared: creation failed, or the path exists and is not a directory.
	DirectoryError struct {
		Path string
		Err  error
	}
)

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("working directory %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *DirectoryError) Unwrap() error { return e.Err }

// Execute runs the pipeline described by req. Setup failures (unusable
// working directory) are returned as a DirectoryError alongside a failed
// Result; failures raised by the run itself are captured in the Result only.
// The call blocks for the duration of the run; cancellation comes from ctx.
func Execute(ctx context.Context, req Request) (pipeline.Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: req.Pipeline.Name(),
		})
	}

	if err := ensureDir(req.WorkDir); err != nil {
		return pipeline.Failure(err), err
	}

	args, err := composeArgs(req)
	if err != nil {
		return pipeline.Failure(err), err
	}

	runReq := pipeline.RunRequest{
		WorkDir:    req.WorkDir,
		Plugin:     req.Plugin,
		PluginArgs: args,
	}
	if pipeline.IsDistributed(req.Plugin) {
		runReq.SettleTimeout = distributedSettleTimeout
	}

	runID := uuid.NewString()
	logger.Info("pipeline run starting",
		"run", runID, "plugin", req.Plugin, "workdir", req.WorkDir)

	if err := req.Pipeline.Run(ctx, runReq); err != nil {
		// Keep the working directory around for debugging the failure.
		logger.Error("pipeline run failed",
			"run", runID, "workdir", req.WorkDir, "error", err)
		return pipeline.Failure(err), nil
	}

	logger.Info("pipeline run finished", "run", runID)

	if req.WorkDirDerived && !req.KeepWorkDir {
		if err := os.RemoveAll(req.WorkDir); err != nil {
			logger.Warn("failed to clean up working directory",
				"workdir", req.WorkDir, "error", err)
		} else {
			logger.Debug("working directory removed", "workdir", req.WorkDir)
		}
	}

	return pipeline.Succeeded(), nil
}

// composeArgs builds the final plugin arguments: CLI arguments win, site
// defaults fill the gaps, and for distributed plugins a qsub_args entry is
// synthesized from the resource request when none was given.
func composeArgs(req Request) (map[string]string, error) {
	args := maps.Clone(req.PluginArgs)
	if args == nil {
		args = make(map[string]string)
	}

	if len(req.SiteArgs) > 0 {
		// Non-override merge: existing CLI keys are kept.
		if err := mergo.Merge(&args, req.SiteArgs); err != nil {
			return nil, fmt.Errorf("failed to merge site plugin arguments: %w", err)
		}
	}

	if pipeline.IsDistributed(req.Plugin) && req.Resources != nil {
		if qsub := req.Resources.SGEArgs(); qsub != "" {
			if existing, ok := args["qsub_args"]; ok && existing != "" {
				args["qsub_args"] = existing + " " + qsub
			} else {
				args["qsub_args"] = qsub
			}
		}
	}

	return args, nil
}

// ensureDir creates the working directory if it is missing and rejects paths
// occupied by a non-directory file.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return &DirectoryError{Path: path, Err: fmt.Errorf("path exists and is not a directory")}
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return &DirectoryError{Path: path, Err: err}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return &DirectoryError{Path: path, Err: err}
	}
	return nil
}
