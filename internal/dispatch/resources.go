// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"fmt"
	"strings"
)

// ResourceRequest describes what one run needs from a cluster scheduler.
// It only affects distributed plugins; local plugins ignore it.
type ResourceRequest struct {
	// TimeSeconds is the maximum run time, in seconds. Zero means unlimited.
	TimeSeconds int64
	// MemBytes is the maximum resident memory, in bytes. Zero means unlimited.
	MemBytes int64
	// VMemBytes is the maximum virtual memory, in bytes. Zero means unlimited.
	VMemBytes int64
	// UseMPI requests an MPI parallel environment instead of SMP.
	UseMPI bool
	// MinCores is the minimum core count; zero is treated as 1.
	MinCores int
	// MaxCores caps the core count; zero means no upper bound.
	MaxCores int
}

// SGEArgs renders the request as qsub submission arguments: a -l resource
// list for time and memory limits, and a -pe clause when more than one core
// is requested. Returns "" when nothing is requested.
func (r *ResourceRequest) SGEArgs() string {
	if r == nil {
		return ""
	}

	var parts []string

	var limits []string
	if r.TimeSeconds > 0 {
		limits = append(limits, fmt.Sprintf("h_rt=%d", r.TimeSeconds))
	}
	if r.MemBytes > 0 {
		limits = append(limits, fmt.Sprintf("mf=%d", r.MemBytes))
	}
	if r.VMemBytes > 0 {
		limits = append(limits, fmt.Sprintf("h_vmem=%d", r.VMemBytes))
	}
	if len(limits) > 0 {
		parts = append(parts, "-l "+strings.Join(limits, ","))
	}

	minCores := r.MinCores
	if minCores == 0 {
		minCores = 1
	}
	if minCores > 1 || r.MaxCores > 0 {
		env := "smp"
		if r.UseMPI {
			env = "mpi"
		}
		cores := fmt.Sprintf("%d", minCores)
		if r.MaxCores > 0 {
			cores = fmt.Sprintf("%d-%d", minCores, r.MaxCores)
		}
		parts = append(parts, fmt.Sprintf("-pe %s %s", env, cores))
	}

	return strings.Join(parts, " ")
}
