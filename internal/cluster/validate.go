package cluster

import (
	"fmt"

	"cvrpcluster/internal/matrix"
	"cvrpcluster/internal/model"
)

// validate runs every preflight check the core requires before it will
// touch the cost matrix: structural job/vehicle invariants and location
// indices in range. Nothing here depends on the chosen heuristic.
func validate(jobs []model.Job, vehicles []model.Vehicle, m matrix.Matrix) error {
	for _, v := range vehicles {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if v.HasStart() && (v.Start.Index < 0 || v.Start.Index >= m.Size()) {
			return fmt.Errorf("%w: vehicle %q start index %d out of range", ErrInvalidInput, v.ID, v.Start.Index)
		}
		if v.HasEnd() && (v.End.Index < 0 || v.End.Index >= m.Size()) {
			return fmt.Errorf("%w: vehicle %q end index %d out of range", ErrInvalidInput, v.ID, v.End.Index)
		}
	}
	for _, j := range jobs {
		if err := j.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if j.Loc.Index < 0 || j.Loc.Index >= m.Size() {
			return fmt.Errorf("%w: job %q location index %d out of range", ErrInvalidInput, j.ID, j.Loc.Index)
		}
	}
	return nil
}
