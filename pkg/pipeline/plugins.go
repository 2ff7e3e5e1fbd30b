// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PluginDebug walks the graph and logs the plan without executing steps.
	PluginDebug = "Debug"
	// PluginLinear runs steps sequentially in dependency order.
	PluginLinear = "Linear"
	// PluginMultiProc runs independent steps concurrently with a worker pool.
	PluginMultiProc = "MultiProc"
	// PluginSGE submits steps as Sun Grid Engine jobs. The backend is
	// external; this layer only forwards the name and arguments.
	PluginSGE = "SGE"
	// PluginSGEGraph submits the whole graph as one SGE job array.
	PluginSGEGraph = "SGEGraph"
)

// ErrUnknownPlugin is the sentinel error wrapped by UnknownPluginError.
var ErrUnknownPlugin = errors.New("unknown execution plugin")

// UnknownPluginError is returned when a plugin name is not in the known set.
// It wraps ErrUnknownPlugin for errors.Is() compatibility.
type UnknownPluginError struct {
	Name string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown execution plugin %q (known: %s)",
		e.Name, strings.Join(KnownPlugins(), ", "))
}

// Unwrap returns ErrUnknownPlugin so callers can use errors.Is.
func (e *UnknownPluginError) Unwrap() error { return ErrUnknownPlugin }

// KnownPlugins returns the fixed set of selectable plugin names.
func KnownPlugins() []string {
	return []string{PluginDebug, PluginLinear, PluginMultiProc, PluginSGE, PluginSGEGraph}
}

// IsKnownPlugin reports whether name is a selectable plugin.
func IsKnownPlugin(name string) bool {
	for _, p := range KnownPlugins() {
		if p == name {
			return true
		}
	}
	return false
}

// IsDistributed reports whether the plugin runs steps on remote hosts.
// Distributed runs are subject to networked filesystem lag, so they get a
// raised settle timeout in RunRequest.
func IsDistributed(name string) bool {
	switch name {
	case PluginDebug, PluginLinear, PluginMultiProc:
		return false
	default:
		return true
	}
}
