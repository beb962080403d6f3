package cluster

import (
	"math"
	"sort"

	"cvrpcluster/internal/compat"
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
)

// infCost marks a candidate that has not been reached by any cost-update
// yet.
const infCost int64 = math.MaxInt64

// TraceRecord is one "vehicle adopted job from parent" event, emitted in
// assignment order. It is the unit the trace broker fans out when a run
// asks to be observed live.
type TraceRecord struct {
	VehicleID   string
	ParentIndex int
	JobIndex    int
}

// Result is everything the clustering core hands to its collaborators:
// the serializer, the run store, the trace broker.
type Result struct {
	// Clusters[v] lists job ranks assigned to vehicle v, in the order
	// they were adopted.
	Clusters [][]int

	// VehicleCost[v] is the portion of EdgesCost contributed by vehicle
	// v's own assignments.
	VehicleCost []int64

	// Unassigned lists job ranks left unplaced, ascending.
	Unassigned []int

	EdgesCost int64
	Trace     []TraceRecord
}

// runState is the bookkeeping shared by both heuristics: the pool of
// still-unassigned jobs, the running cost total, and the trace log.
// Per-vehicle cost/parent/regret/candidate arrays live in each
// heuristic's own file since parallel and sequential shape them
// differently.
type runState struct {
	jobs     []model.Job
	vehicles []model.Vehicle
	m        matrix.Matrix
	oracle   compat.Oracle

	unassigned  map[int]struct{}
	edgesCost   int64
	vehicleCost []int64
	trace       []TraceRecord
}

func newRunState(jobs []model.Job, vehicles []model.Vehicle, m matrix.Matrix, oracle compat.Oracle) *runState {
	rs := &runState{
		jobs:        jobs,
		vehicles:    vehicles,
		m:           m,
		oracle:      oracle,
		unassigned:  make(map[int]struct{}, len(jobs)),
		vehicleCost: make([]int64, len(vehicles)),
	}
	for i := range jobs {
		rs.unassigned[i] = struct{}{}
	}
	return rs
}

// assign commits job j to vehicle v's cluster and updates every piece of
// global state that both heuristics share.
func (rs *runState) assign(v, j, parent int, cost int64, clusters [][]int) error {
	if cost < 0 || rs.edgesCost > math.MaxInt64-cost {
		return ErrOverflow
	}
	clusters[v] = append(clusters[v], j)
	delete(rs.unassigned, j)
	rs.edgesCost += cost
	rs.vehicleCost[v] += cost
	rs.trace = append(rs.trace, TraceRecord{
		VehicleID:   rs.vehicles[v].ID,
		ParentIndex: parent,
		JobIndex:    rs.jobs[j].Loc.Index,
	})
	return nil
}

// unassignedSorted returns the still-unassigned job ranks in ascending
// order, giving both heuristics a deterministic view of the shared pool.
func (rs *runState) unassignedSorted() []int {
	out := make([]int, 0, len(rs.unassigned))
	for j := range rs.unassigned {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

func (rs *runState) result(clusters [][]int) Result {
	return Result{
		Clusters:    clusters,
		VehicleCost: rs.vehicleCost,
		Unassigned:  rs.unassignedSorted(),
		EdgesCost:   rs.edgesCost,
		Trace:       rs.trace,
	}
}
