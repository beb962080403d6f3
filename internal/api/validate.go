package api

import (
	"fmt"

	"cvrpcluster/internal/cluster"
	"cvrpcluster/internal/model"
)

func validateRunRequest(req *model.RunRequest) error {
	if req.Heuristic != "" {
		if _, err := cluster.ParseHeuristic(req.Heuristic); err != nil {
			return fmt.Errorf("invalid heuristic: %s", req.Heuristic)
		}
	}
	if req.Init != "" {
		if _, err := cluster.ParseInit(req.Init); err != nil {
			return fmt.Errorf("invalid init: %s", req.Init)
		}
	}
	if req.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if req.RegretCoeff < 0 {
		return fmt.Errorf("regretCoeff must be >= 0")
	}
	if len(req.Jobs) == 0 {
		return fmt.Errorf("jobs must not be empty")
	}
	if len(req.Vehicles) == 0 {
		return fmt.Errorf("vehicles must not be empty")
	}
	if len(req.Matrix) == 0 {
		return fmt.Errorf("matrix must not be empty")
	}
	for i, row := range req.Matrix {
		if len(row) != len(req.Matrix) {
			return fmt.Errorf("matrix row %d has length %d, want %d (matrix must be square)", i, len(row), len(req.Matrix))
		}
	}
	return nil
}
