package cluster

import (
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
)

// updateCost is the sole mutator of a vehicle's cost/parent arrays: for
// every candidate job still reachable by this vehicle, it checks whether
// arriving from "from" beats the current best known cost, and records
// the cheaper parent when it does.
func updateCost(m matrix.Matrix, jobs []model.Job, from int, cost []int64, parent []int, candidates []int) {
	for _, j := range candidates {
		c := m.Dist(from, jobs[j].Loc.Index)
		if c < cost[j] {
			cost[j] = c
			parent[j] = from
		}
	}
}

// minOtherCost returns the lowest cost any vehicle other than v has
// established for job j, or 0 if no other vehicle can reach it yet —
// the regret value that seeds a fresh candidate the first time it
// becomes reachable.
func minOtherCost(cost [][]int64, v, j int) int64 {
	var best int64
	found := false
	for ov := range cost {
		if ov == v || cost[ov][j] == infCost {
			continue
		}
		if !found || cost[ov][j] < best {
			best = cost[ov][j]
			found = true
		}
	}
	return best
}
