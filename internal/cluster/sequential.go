package cluster

import (
	"cvrpcluster/internal/compat"
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
)

// runSequential builds one vehicle's cluster at a time, in vehicle order.
// Regret is precomputed once per job as a static lower bound — the best
// baseline cost any vehicle *after* the one currently filling could offer
// it — rather than recomputed per round, since a vehicle never revisits
// a job another vehicle already absorbed.
func runSequential(jobs []model.Job, vehicles []model.Vehicle, m matrix.Matrix, oracle compat.Oracle, init Init, regretCoeff float64) (Result, error) {
	V, J := len(vehicles), len(jobs)
	rs := newRunState(jobs, vehicles, m, oracle)
	clusters := make([][]int, V)

	baseline := baselineCosts(jobs, vehicles, m)
	regret := staticRegret(baseline, V, J)

	for v := 0; v < V; v++ {
		veh := vehicles[v]

		var candidates []int
		for _, j := range rs.unassignedSorted() {
			if oracle.Allowed(v, j) && jobs[j].Amount.LessEq(veh.Capacity) {
				candidates = append(candidates, j)
			}
		}

		cost := make([]int64, J)
		parent := make([]int, J)
		for j := range cost {
			cost[j] = infCost
		}
		if veh.HasStart() {
			updateCost(m, jobs, veh.Start.Index, cost, parent, candidates)
			if veh.HasEnd() && veh.End.Index != veh.Start.Index {
				updateCost(m, jobs, veh.End.Index, cost, parent, candidates)
			}
		} else {
			updateCost(m, jobs, veh.End.Index, cost, parent, candidates)
		}

		capLeft := append(model.Amount(nil), veh.Capacity...)

		if init != InitNone {
			seed := pickSeed(init, candidates, jobs, cost)
			if seed >= 0 {
				if err := rs.assign(v, seed, parent[seed], cost[seed], clusters); err != nil {
					return Result{}, err
				}
				capLeft = capLeft.Sub(jobs[seed].Amount)
				candidates = removeValue(candidates, seed)
				updateCost(m, jobs, jobs[seed].Loc.Index, cost, parent, candidates)
			}
		}

		score := func(j int) float64 { return regretCoeff*float64(regret[v][j]) - float64(cost[j]) }

		for len(candidates) > 0 {
			top, rest, _ := topAndPop(candidates, score)
			candidates = rest

			if !jobs[top].Amount.LessEq(capLeft) {
				continue
			}
			if err := rs.assign(v, top, parent[top], cost[top], clusters); err != nil {
				return Result{}, err
			}
			capLeft = capLeft.Sub(jobs[top].Amount)
			updateCost(m, jobs, jobs[top].Loc.Index, cost, parent, candidates)
		}
	}

	return rs.result(clusters), nil
}

// baselineCosts[v][j] is vehicle v's direct start/end cost to job j,
// ignoring every other job — the figure the static regret table is
// built from.
func baselineCosts(jobs []model.Job, vehicles []model.Vehicle, m matrix.Matrix) [][]int64 {
	V, J := len(vehicles), len(jobs)
	baseline := make([][]int64, V)
	for v := 0; v < V; v++ {
		baseline[v] = make([]int64, J)
		veh := vehicles[v]
		for j := 0; j < J; j++ {
			best := infCost
			loc := jobs[j].Loc.Index
			if veh.HasStart() {
				if d := m.Dist(veh.Start.Index, loc); d < best {
					best = d
				}
			}
			if veh.HasEnd() {
				if d := m.Dist(loc, veh.End.Index); d < best {
					best = d
				}
			}
			baseline[v][j] = best
		}
	}
	return baseline
}

// staticRegret computes, for every vehicle v and job j, the minimum
// baseline cost among vehicles v+1..V-1 — the opportunity a vehicle
// forgoes by not taking a job now, given that earlier vehicles have
// already had first refusal.
func staticRegret(baseline [][]int64, V, J int) [][]int64 {
	regret := make([][]int64, V)
	for v := range regret {
		regret[v] = make([]int64, J)
	}
	if V < 2 {
		return regret
	}
	for j := 0; j < J; j++ {
		regret[V-2][j] = baseline[V-1][j]
	}
	for i := 3; i <= V; i++ {
		for j := 0; j < J; j++ {
			r := regret[V-i+1][j]
			if baseline[V-i+1][j] < r {
				r = baseline[V-i+1][j]
			}
			regret[V-i][j] = r
		}
	}
	return regret
}
