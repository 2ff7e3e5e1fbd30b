// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// workerCount reads the MultiProc pool size from the "workers" plugin
// argument, defaulting to the machine's CPU count.
func workerCount(pluginArgs map[string]string) int {
	if raw, ok := pluginArgs["workers"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// runLinear executes the steps sequentially in topological order, stopping at
// the first failure.
func (w *Workflow) runLinear(ctx context.Context, rc *RunContext, byName map[string]step, order []string) error {
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc.Logger.Debug("step starting", "step", name)
		if err := byName[name].fn(ctx, rc); err != nil {
			return &StepError{Step: name, Err: err}
		}
		rc.Logger.Debug("step finished", "step", name)
	}
	return nil
}

// runLayers executes the steps layer by layer. Steps within a layer are
// mutually independent and run concurrently, bounded by a worker pool; the
// next layer starts only when the whole layer has finished. The first step
// failure cancels the remaining work.
func (w *Workflow) runLayers(ctx context.Context, rc *RunContext, byName map[string]step, layers [][]string, workers int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return err
		}

		sem := make(chan struct{}, workers)
		errCh := make(chan error, len(layer))
		var wg sync.WaitGroup

		for _, name := range layer {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()

				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}

				if err := ctx.Err(); err != nil {
					errCh <- err
					return
				}
				rc.Logger.Debug("step starting", "step", name)
				if err := byName[name].fn(ctx, rc); err != nil {
					cancel()
					errCh <- &StepError{Step: name, Err: err}
					return
				}
				rc.Logger.Debug("step finished", "step", name)
				errCh <- nil
			}(name)
		}

		wg.Wait()
		close(errCh)

		// Report the first step failure; plain cancellations lose to it.
		var firstErr error
		for err := range errCh {
			if err == nil {
				continue
			}
			if firstErr == nil || isStepError(err) && !isStepError(firstErr) {
				firstErr = err
			}
		}
		if firstErr != nil {
			return firstErr
		}
	}
	return nil
}

// debugPlan logs the execution plan without invoking any step functions.
func (w *Workflow) debugPlan(rc *RunContext, byName map[string]step, order []string) error {
	rc.Logger.Info("debug plan", "steps", len(order), "workdir", rc.WorkDir)
	for i, name := range order {
		deps := byName[name].deps
		rc.Logger.Info("planned step",
			"index", i, "step", name, "deps", strings.Join(deps, ","))
	}
	return nil
}

func isStepError(err error) bool {
	var stepErr *StepError
	return errors.As(err, &stepErr)
}
