package serialize

import (
	"testing"
	"time"

	"cvrpcluster/internal/cluster"
	"cvrpcluster/internal/model"
)

func TestBuildDocumentShapesRoutesAndUnassigned(t *testing.T) {
	jobs := []model.Job{
		{ID: "j0", Loc: model.Location{Index: 1, Coords: &model.GeoPoint{Lat: 1, Lng: 2}}},
		{ID: "j1", Loc: model.Location{Index: 2}},
	}
	vehicles := []model.Vehicle{
		{ID: "v0", Start: &model.Location{Index: 0}},
	}
	res := cluster.Result{
		Clusters:    [][]int{{0}},
		VehicleCost: []int64{5},
		Unassigned:  []int{1},
		EdgesCost:   5,
	}

	doc := BuildDocument(jobs, vehicles, res, 10*time.Millisecond, 25*time.Millisecond)

	if doc.Code != CodeOK {
		t.Fatalf("code = %d, want %d", doc.Code, CodeOK)
	}
	if doc.Summary.Cost != 5 || doc.Summary.Unassigned != 1 {
		t.Fatalf("summary = %+v", doc.Summary)
	}
	if doc.Summary.ComputingTimes.LoadingMs != 10 || doc.Summary.ComputingTimes.SolvingMs != 25 {
		t.Fatalf("computing times = %+v", doc.Summary.ComputingTimes)
	}
	if len(doc.Unassigned) != 1 || doc.Unassigned[0].ID != "j1" {
		t.Fatalf("unassigned = %+v", doc.Unassigned)
	}
	if len(doc.Routes) != 1 || doc.Routes[0].Vehicle != "v0" || doc.Routes[0].Cost != 5 {
		t.Fatalf("routes = %+v", doc.Routes)
	}
	steps := doc.Routes[0].Steps
	if len(steps) != 2 || steps[0].Type != "start" || steps[1].Type != "job" || steps[1].JobID != "j0" {
		t.Fatalf("steps = %+v", steps)
	}
	if steps[1].Location == nil || (*steps[1].Location)[0] != 2 || (*steps[1].Location)[1] != 1 {
		t.Fatalf("job step location = %v", steps[1].Location)
	}
}

func TestErrorDocumentClassifiesInvalidInput(t *testing.T) {
	doc := ErrorDocument(cluster.ErrInvalidInput)
	if doc.Code != CodeInvalidInput {
		t.Fatalf("code = %d, want %d", doc.Code, CodeInvalidInput)
	}
}
