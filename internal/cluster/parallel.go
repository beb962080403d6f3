package cluster

import (
	"cvrpcluster/internal/compat"
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
)

// parallelRun holds the per-vehicle arrays the parallel heuristic
// maintains in lockstep: every vehicle grows its cluster one round at a
// time, each round picking the single best (vehicle, job) pair across
// the whole fleet.
type parallelRun struct {
	jobs     []model.Job
	vehicles []model.Vehicle
	m        matrix.Matrix

	cost       [][]int64
	parent     [][]int
	regret     [][]int64
	candidates [][]int
	capLeft    []model.Amount
	clusters   [][]int

	rs *runState
}

func runParallel(jobs []model.Job, vehicles []model.Vehicle, m matrix.Matrix, oracle compat.Oracle, init Init, regretCoeff float64) (Result, error) {
	V, J := len(vehicles), len(jobs)
	pr := &parallelRun{
		jobs:       jobs,
		vehicles:   vehicles,
		m:          m,
		cost:       make([][]int64, V),
		parent:     make([][]int, V),
		candidates: make([][]int, V),
		capLeft:    make([]model.Amount, V),
		clusters:   make([][]int, V),
		rs:         newRunState(jobs, vehicles, m, oracle),
	}

	for v := 0; v < V; v++ {
		pr.cost[v] = make([]int64, J)
		pr.parent[v] = make([]int, J)
		for j := range pr.cost[v] {
			pr.cost[v][j] = infCost
		}
		for j := 0; j < J; j++ {
			if oracle.Allowed(v, j) {
				pr.candidates[v] = append(pr.candidates[v], j)
			}
		}
		pr.capLeft[v] = append(model.Amount(nil), vehicles[v].Capacity...)
		pr.seedEndpoints(v)
	}

	pr.regret = make([][]int64, V)
	for v := 0; v < V; v++ {
		pr.regret[v] = make([]int64, J)
		for _, j := range pr.candidates[v] {
			pr.regret[v][j] = minOtherCost(pr.cost, v, j)
		}
	}

	if init != InitNone {
		for v := 0; v < V; v++ {
			if err := pr.applyInit(v, init); err != nil {
				return Result{}, err
			}
		}
	}

	if err := pr.loop(regretCoeff); err != nil {
		return Result{}, err
	}

	return pr.rs.result(pr.clusters), nil
}

// seedEndpoints runs the cost-update primitive from a vehicle's start
// and/or end location, establishing its initial reach to every
// candidate it is allowed to serve.
func (pr *parallelRun) seedEndpoints(v int) {
	veh := pr.vehicles[v]
	if veh.HasStart() {
		updateCost(pr.m, pr.jobs, veh.Start.Index, pr.cost[v], pr.parent[v], pr.candidates[v])
		if veh.HasEnd() && veh.End.Index != veh.Start.Index {
			updateCost(pr.m, pr.jobs, veh.End.Index, pr.cost[v], pr.parent[v], pr.candidates[v])
		}
	} else {
		updateCost(pr.m, pr.jobs, veh.End.Index, pr.cost[v], pr.parent[v], pr.candidates[v])
	}
}

func (pr *parallelRun) applyInit(v int, init Init) error {
	seedCands := feasibleSeedCandidates(pr.candidates[v], pr.jobs, pr.capLeft[v])
	seed := pickSeed(init, seedCands, pr.jobs, pr.cost[v])
	if seed < 0 {
		return nil
	}
	return pr.assign(v, seed)
}

// assign commits job j to vehicle v: records the membership, shrinks
// capLeft, refreshes v's own reach from j's location, propagates the new
// cost into every other vehicle's regret for the jobs still open to
// both, and removes j from every vehicle's candidate list.
func (pr *parallelRun) assign(v, j int) error {
	c := pr.cost[v][j]
	if err := pr.rs.assign(v, j, pr.parent[v][j], c, pr.clusters); err != nil {
		return err
	}
	pr.capLeft[v] = pr.capLeft[v].Sub(pr.jobs[j].Amount)
	pr.candidates[v] = removeValue(pr.candidates[v], j)

	loc := pr.jobs[j].Loc.Index
	updateCost(pr.m, pr.jobs, loc, pr.cost[v], pr.parent[v], pr.candidates[v])

	for _, k := range pr.candidates[v] {
		reach := pr.m.Dist(loc, pr.jobs[k].Loc.Index)
		for ov := range pr.vehicles {
			if ov == v || pr.cost[ov][k] == infCost {
				continue
			}
			if reach < pr.regret[ov][k] {
				pr.regret[ov][k] = reach
			}
		}
	}

	for ov := range pr.vehicles {
		if ov == v {
			continue
		}
		pr.candidates[ov] = removeValue(pr.candidates[ov], j)
	}
	return nil
}

// loop runs the main regret-greedy construction: every round, each
// vehicle nominates its current top-scoring candidate if that candidate
// fits its remaining capacity (lower-scoring candidates are not tried);
// the globally cheapest nomination wins. When no vehicle has a feasible
// nomination, every vehicle drops its current favorite and the round
// repeats.
func (pr *parallelRun) loop(regretCoeff float64) error {
	for anyNonEmpty(pr.candidates) {
		bestV := -1
		bestJ := 0
		var bestCost int64

		for v := range pr.vehicles {
			if len(pr.candidates[v]) == 0 {
				continue
			}
			top, ok := peekTop(pr.candidates[v], pr.scoreFunc(v, regretCoeff))
			if !ok || !pr.jobs[top].Amount.LessEq(pr.capLeft[v]) {
				continue
			}
			c := pr.cost[v][top]
			if bestV == -1 || c < bestCost ||
				(c == bestCost && pr.capLeft[v].Weight() > pr.capLeft[bestV].Weight()) {
				bestV, bestJ, bestCost = v, top, c
			}
		}

		if bestV == -1 {
			for v := range pr.vehicles {
				if len(pr.candidates[v]) == 0 {
					continue
				}
				_, rest, _ := topAndPop(pr.candidates[v], pr.scoreFunc(v, regretCoeff))
				pr.candidates[v] = rest
			}
			continue
		}

		if err := pr.assign(bestV, bestJ); err != nil {
			return err
		}
	}
	return nil
}

func (pr *parallelRun) scoreFunc(v int, regretCoeff float64) func(int) float64 {
	return func(j int) float64 {
		return regretCoeff*float64(pr.regret[v][j]) - float64(pr.cost[v][j])
	}
}
