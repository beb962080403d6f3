// Package serialize builds the JSON output envelope a clustering run
// produces — summary, unassigned jobs, and per-vehicle routes — and
// writes it to whatever sink the caller (CLI or HTTP handler) chooses.
package serialize

// Response codes: zero is success, everything else names a failure
// class.
const (
	CodeOK            = 0
	CodeInvalidInput  = 1
	CodeInternalError = 2
)

// Document is the top-level output envelope.
type Document struct {
	Code       int             `json:"code"`
	Error      string          `json:"error,omitempty"`
	Summary    Summary         `json:"summary"`
	Unassigned []UnassignedJob `json:"unassigned,omitempty"`
	Routes     []Route         `json:"routes,omitempty"`
}

type Summary struct {
	Cost           int64          `json:"cost"`
	Unassigned     int            `json:"unassigned"`
	ComputingTimes ComputingTimes `json:"computing_times"`
}

type ComputingTimes struct {
	LoadingMs int64 `json:"loading"`
	SolvingMs int64 `json:"solving"`
}

// UnassignedJob names a job that never made it into a cluster.
type UnassignedJob struct {
	ID       string      `json:"id"`
	Location *[2]float64 `json:"location,omitempty"` // [lon, lat]
}

// Route is one vehicle's cluster, laid out as an ordered step sequence —
// the shape a downstream routing/sequencing stage consumes directly.
type Route struct {
	Vehicle string `json:"vehicle"`
	Cost    int64  `json:"cost"`
	Steps   []Step `json:"steps"`
}

type Step struct {
	Type     string      `json:"type"` // "start" | "job" | "end"
	Location *[2]float64 `json:"location,omitempty"`
	JobID    string      `json:"job,omitempty"`
}
