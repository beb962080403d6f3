package cluster

import (
	"fmt"

	"cvrpcluster/internal/model"
)

// Init selects how each vehicle's cluster is seeded before the greedy
// candidate loop takes over.
type Init int

const (
	InitNone Init = iota
	InitHigherAmount
	InitNearest
)

// ParseInit maps the wire-level init name to an Init, defaulting an empty
// string to InitNone.
func ParseInit(s string) (Init, error) {
	switch s {
	case "", "none":
		return InitNone, nil
	case "higher_amount":
		return InitHigherAmount, nil
	case "nearest":
		return InitNearest, nil
	default:
		return InitNone, fmt.Errorf("%w: unknown init policy %q", ErrInvalidInput, s)
	}
}

func (i Init) String() string {
	switch i {
	case InitHigherAmount:
		return "higher_amount"
	case InitNearest:
		return "nearest"
	default:
		return "none"
	}
}

// feasibleSeedCandidates narrows candidates to those whose demand fits
// capLeft. The reference sequential routine only ever builds candidate
// lists that already fit a vehicle's full capacity; we apply the same
// filter before seeding the parallel heuristic so the capacity invariant
// holds identically for both — the alternative, letting a single init
// pick overdraw a vehicle, is never something a caller can recover from.
func feasibleSeedCandidates(candidates []int, jobs []model.Job, capLeft model.Amount) []int {
	out := make([]int, 0, len(candidates))
	for _, j := range candidates {
		if jobs[j].Amount.LessEq(capLeft) {
			out = append(out, j)
		}
	}
	return out
}

// pickSeed returns the candidate job rank to seed a cluster with under
// the given policy, or -1 when the policy is InitNone or there is
// nothing to pick from. It mirrors a single max_element/min_element pass
// over candidates rather than a full sort.
func pickSeed(policy Init, candidates []int, jobs []model.Job, cost []int64) int {
	if policy == InitNone || len(candidates) == 0 {
		return -1
	}
	best := candidates[0]
	for _, j := range candidates[1:] {
		switch policy {
		case InitHigherAmount:
			if lessHigherAmount(jobs, cost, best, j) {
				best = j
			}
		case InitNearest:
			if cost[j] < cost[best] {
				best = j
			}
		}
	}
	return best
}

// lessHigherAmount reports whether lhs is a worse higher_amount pick than
// rhs: smaller demand loses outright, equal demand falls back to cost.
// Amount has no intrinsic total order, so ordering goes through Weight.
func lessHigherAmount(jobs []model.Job, cost []int64, lhs, rhs int) bool {
	al, ar := jobs[lhs].Amount.Weight(), jobs[rhs].Amount.Weight()
	if al != ar {
		return al < ar
	}
	return cost[lhs] < cost[rhs]
}
