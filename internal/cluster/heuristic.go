// Package cluster is the CVRP clustering core: given jobs, vehicles, a
// cost matrix and a compatibility oracle, it greedily partitions jobs
// into per-vehicle clusters. It has no notion of routing or sequencing
// within a cluster, no time windows, and no optimality guarantee — it is
// the fast first pass a routing stage refines afterward.
package cluster

import (
	"fmt"

	"cvrpcluster/internal/compat"
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
)

// Heuristic selects which construction algorithm Run uses.
type Heuristic int

const (
	HeuristicParallel Heuristic = iota
	HeuristicSequential
)

// ParseHeuristic maps the wire-level heuristic name to a Heuristic.
func ParseHeuristic(s string) (Heuristic, error) {
	switch s {
	case "", "parallel":
		return HeuristicParallel, nil
	case "sequential":
		return HeuristicSequential, nil
	default:
		return HeuristicParallel, fmt.Errorf("%w: unknown heuristic %q", ErrInvalidInput, s)
	}
}

func (h Heuristic) String() string {
	if h == HeuristicSequential {
		return "sequential"
	}
	return "parallel"
}

// Run builds a cluster assignment for jobs over vehicles, given a cost
// matrix and compatibility oracle. regretCoeff weights how strongly a
// candidate's scarcity (its regret) is favored over its raw cost when
// choosing what to assign next.
func Run(jobs []model.Job, vehicles []model.Vehicle, m matrix.Matrix, oracle compat.Oracle, h Heuristic, init Init, regretCoeff float64) (Result, error) {
	if err := validate(jobs, vehicles, m); err != nil {
		return Result{}, err
	}
	switch h {
	case HeuristicParallel:
		return runParallel(jobs, vehicles, m, oracle, init, regretCoeff)
	case HeuristicSequential:
		return runSequential(jobs, vehicles, m, oracle, init, regretCoeff)
	default:
		return Result{}, fmt.Errorf("%w: unknown heuristic", ErrInvalidInput)
	}
}
