package cluster

import (
	"fmt"
	"testing"

	"cvrpcluster/internal/compat"
	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
)

func mustMatrix(rows [][]int64) matrix.Matrix {
	m, err := matrix.New(rows)
	if err != nil {
		panic(fmt.Sprintf("matrix.New: %v", err))
	}
	return m
}

func loc(i int) model.Location { return model.Location{Index: i} }

// nearestInitFixture returns the depot/job/matrix fixture: three jobs reachable
// from a single depot, with a cheap chain depot->1->3->2.
func nearestInitFixture() ([]model.Job, []model.Vehicle, matrix.Matrix) {
	jobs := []model.Job{
		{ID: "j1", Loc: loc(1), Amount: model.Amount{1}},
		{ID: "j2", Loc: loc(2), Amount: model.Amount{1}},
		{ID: "j3", Loc: loc(3), Amount: model.Amount{1}},
	}
	vehicles := []model.Vehicle{
		{ID: "v1", Start: &model.Location{Index: 0}, Capacity: model.Amount{100}},
	}
	rows := [][]int64{
		{0, 10, 20, 15},
		{10, 0, 1000, 5},
		{20, 1000, 0, 5},
		{15, 5, 5, 0},
	}
	return jobs, vehicles, mustMatrix(rows)
}

func TestSequentialNearestInitSingleVehicle(t *testing.T) {
	jobs, vehicles, m := nearestInitFixture()
	oracle := compat.Build(vehicles, jobs)

	res, err := Run(jobs, vehicles, m, oracle, HeuristicSequential, InitNearest, 1.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Unassigned) != 0 {
		t.Fatalf("expected no unassigned jobs, got %v", res.Unassigned)
	}
	if res.EdgesCost != 20 {
		t.Fatalf("expected edges_cost 20, got %d", res.EdgesCost)
	}
	want := []int{0, 2, 1} // j1, j3, j2
	got := res.Clusters[0]
	if len(got) != len(want) {
		t.Fatalf("cluster order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cluster order = %v, want %v", got, want)
		}
	}
}

func TestParallelNearestInitSingleVehicle(t *testing.T) {
	jobs, vehicles, m := nearestInitFixture()
	oracle := compat.Build(vehicles, jobs)

	res, err := Run(jobs, vehicles, m, oracle, HeuristicParallel, InitNearest, 1.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.EdgesCost != 20 {
		t.Fatalf("expected edges_cost 20, got %d", res.EdgesCost)
	}
	want := []int{0, 2, 1}
	got := res.Clusters[0]
	if len(got) != len(want) {
		t.Fatalf("cluster order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cluster order = %v, want %v", got, want)
		}
	}
}

func TestEmptyFleetLeavesEverythingUnassigned(t *testing.T) {
	jobs := []model.Job{
		{ID: "j1", Loc: loc(0), Amount: model.Amount{1}},
		{ID: "j2", Loc: loc(1), Amount: model.Amount{1}},
	}
	m := mustMatrix([][]int64{{0, 5}, {5, 0}})
	oracle := compat.Build(nil, jobs)

	res, err := Run(jobs, nil, m, oracle, HeuristicParallel, InitNone, 1.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Clusters) != 0 {
		t.Fatalf("expected no clusters, got %v", res.Clusters)
	}
	if len(res.Unassigned) != 2 {
		t.Fatalf("expected both jobs unassigned, got %v", res.Unassigned)
	}
	if res.EdgesCost != 0 {
		t.Fatalf("expected zero edges_cost, got %d", res.EdgesCost)
	}
}

func TestIncompatibleSkillsStayDisjoint(t *testing.T) {
	jobs := []model.Job{
		{ID: "j0", Loc: loc(1), Amount: model.Amount{1}, Skills: []int{7}},
		{ID: "j1", Loc: loc(2), Amount: model.Amount{1}, Skills: []int{9}},
	}
	vehicles := []model.Vehicle{
		{ID: "v0", Start: &model.Location{Index: 0}, Capacity: model.Amount{10}, Skills: []int{7}},
		{ID: "v1", Start: &model.Location{Index: 0}, Capacity: model.Amount{10}, Skills: []int{9}},
	}
	m := mustMatrix([][]int64{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	})
	oracle := compat.Build(vehicles, jobs)

	res, err := Run(jobs, vehicles, m, oracle, HeuristicParallel, InitNone, 1.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Unassigned) != 0 {
		t.Fatalf("expected full assignment, got unassigned %v", res.Unassigned)
	}
	if len(res.Clusters[0]) != 1 || res.Clusters[0][0] != 0 {
		t.Fatalf("expected vehicle 0 to get job 0, got %v", res.Clusters[0])
	}
	if len(res.Clusters[1]) != 1 || res.Clusters[1][0] != 1 {
		t.Fatalf("expected vehicle 1 to get job 1, got %v", res.Clusters[1])
	}
}

func TestOversizedDemandStaysUnassigned(t *testing.T) {
	jobs := []model.Job{
		{ID: "small", Loc: loc(1), Amount: model.Amount{2}},
		{ID: "huge", Loc: loc(2), Amount: model.Amount{50}},
	}
	vehicles := []model.Vehicle{
		{ID: "v0", Start: &model.Location{Index: 0}, Capacity: model.Amount{10}},
	}
	m := mustMatrix([][]int64{
		{0, 1, 2},
		{1, 0, 1},
		{2, 1, 0},
	})
	oracle := compat.Build(vehicles, jobs)

	res, err := Run(jobs, vehicles, m, oracle, HeuristicParallel, InitNone, 1.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Unassigned) != 1 || res.Unassigned[0] != 1 {
		t.Fatalf("expected job 1 (huge) unassigned, got %v", res.Unassigned)
	}
	if len(res.Clusters[0]) != 1 || res.Clusters[0][0] != 0 {
		t.Fatalf("expected job 0 (small) assigned, got %v", res.Clusters[0])
	}
}

func TestParallelCapacityTieBreakPrefersLargerVehicle(t *testing.T) {
	jobs := []model.Job{
		{ID: "j0", Loc: loc(1), Amount: model.Amount{3}},
	}
	vehicles := []model.Vehicle{
		{ID: "small", Start: &model.Location{Index: 0}, Capacity: model.Amount{5}},
		{ID: "big", Start: &model.Location{Index: 0}, Capacity: model.Amount{10}},
	}
	m := mustMatrix([][]int64{
		{0, 4},
		{4, 0},
	})
	oracle := compat.Build(vehicles, jobs)

	res, err := Run(jobs, vehicles, m, oracle, HeuristicParallel, InitNone, 1.0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Clusters[1]) != 1 {
		t.Fatalf("expected the larger-capacity vehicle to win the tie, clusters=%v", res.Clusters)
	}
	if len(res.Clusters[0]) != 0 {
		t.Fatalf("expected the smaller vehicle to get nothing, clusters=%v", res.Clusters)
	}
}

func TestInvalidVehicleRejected(t *testing.T) {
	jobs := []model.Job{{ID: "j0", Loc: loc(0), Amount: model.Amount{1}}}
	vehicles := []model.Vehicle{{ID: "v0", Capacity: model.Amount{1}}} // no start, no end
	m := mustMatrix([][]int64{{0}})
	oracle := compat.Build(vehicles, jobs)

	_, err := Run(jobs, vehicles, m, oracle, HeuristicParallel, InitNone, 1.0)
	if err == nil {
		t.Fatal("expected an error for a vehicle with neither start nor end")
	}
}
