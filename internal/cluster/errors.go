package cluster

import "errors"

// ErrInvalidInput marks preflight failures: ill-formed vehicles/jobs or a
// malformed cost matrix. No partial state is produced when this is
// returned.
var ErrInvalidInput = errors.New("cluster: invalid input")

// ErrOverflow marks a detected overflow while accumulating edges_cost.
var ErrOverflow = errors.New("cluster: edges_cost overflow")
