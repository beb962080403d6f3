package serialize

import (
	"errors"
	"time"

	"cvrpcluster/internal/cluster"
	"cvrpcluster/internal/model"
)

// ErrorDocument wraps a run failure into the output envelope, classifying
// it as invalid input or an internal error so callers don't need to
// parse the error string.
func ErrorDocument(err error) Document {
	code := CodeInternalError
	if errors.Is(err, cluster.ErrInvalidInput) {
		code = CodeInvalidInput
	}
	return Document{Code: code, Error: err.Error()}
}

// BuildDocument turns a successful cluster.Result into the output
// envelope, attaching coordinates where the caller supplied them.
func BuildDocument(jobs []model.Job, vehicles []model.Vehicle, res cluster.Result, loading, solving time.Duration) Document {
	doc := Document{
		Code: CodeOK,
		Summary: Summary{
			Cost:       res.EdgesCost,
			Unassigned: len(res.Unassigned),
			ComputingTimes: ComputingTimes{
				LoadingMs: loading.Milliseconds(),
				SolvingMs: solving.Milliseconds(),
			},
		},
	}

	for _, j := range res.Unassigned {
		job := jobs[j]
		doc.Unassigned = append(doc.Unassigned, UnassignedJob{ID: job.ID, Location: coordsOf(job.Loc)})
	}

	for v, cl := range res.Clusters {
		veh := vehicles[v]
		route := Route{Vehicle: veh.ID, Cost: res.VehicleCost[v]}

		if veh.HasStart() {
			route.Steps = append(route.Steps, Step{Type: "start", Location: coordsOf(*veh.Start)})
		}
		for _, j := range cl {
			job := jobs[j]
			route.Steps = append(route.Steps, Step{Type: "job", Location: coordsOf(job.Loc), JobID: job.ID})
		}
		if veh.HasEnd() {
			route.Steps = append(route.Steps, Step{Type: "end", Location: coordsOf(*veh.End)})
		}

		doc.Routes = append(doc.Routes, route)
	}

	return doc
}

func coordsOf(loc model.Location) *[2]float64 {
	if loc.Coords == nil {
		return nil
	}
	return &[2]float64{loc.Coords.Lng, loc.Coords.Lat}
}
