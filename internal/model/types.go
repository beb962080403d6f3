// Package model holds the immutable entities the clustering core and the
// service shell around it operate on.
package model

import "fmt"

// GeoPoint is a WGS84 coordinate pair, carried only for serialization.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location ties a cost-matrix row/column index to an optional coordinate
// used purely for output; clustering cost never depends on Coords.
type Location struct {
	Index  int       `json:"index"`
	Coords *GeoPoint `json:"coords,omitempty"`
}

// Amount is a demand or capacity vector. A plain scalar amount is
// represented as a single-element Amount. All components are compared
// componentwise; operands of unequal length are treated as zero-padded.
type Amount []int64

// LessEq reports whether a is componentwise <= b.
func (a Amount) LessEq(b Amount) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv int64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av > bv {
			return false
		}
	}
	return true
}

// Add returns a+b componentwise, padding the shorter operand with zeros.
func (a Amount) Add(b Amount) Amount {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(Amount, n)
	for i := 0; i < n; i++ {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] += b[i]
		}
	}
	return out
}

// Sub returns a-b componentwise, padding the shorter operand with zeros.
func (a Amount) Sub(b Amount) Amount {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(Amount, n)
	for i := 0; i < n; i++ {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] -= b[i]
		}
	}
	return out
}

// IsNegative reports whether any component is below zero.
func (a Amount) IsNegative() bool {
	for _, v := range a {
		if v < 0 {
			return true
		}
	}
	return false
}

// Weight reduces an Amount to a single scalar (the sum of its components).
// Feasibility always goes through LessEq; Weight exists only for the
// strict total orderings the clustering core needs — higher_amount seed
// selection and the capacity_left tie-break — where a vector has no
// intrinsic order.
func (a Amount) Weight() int64 {
	var w int64
	for _, v := range a {
		w += v
	}
	return w
}

// Job is a unit of demand to place into exactly one vehicle's cluster.
type Job struct {
	ID     string   `json:"id"`
	Loc    Location `json:"location"`
	Amount Amount   `json:"amount"`
	Skills []int    `json:"skills,omitempty"`
}

// Validate checks the structural invariants required before clustering.
func (j Job) Validate() error {
	if j.Amount.IsNegative() {
		return fmt.Errorf("job %q: amount must be non-negative", j.ID)
	}
	return nil
}

// Vehicle is a capacitated resource that clusters jobs are built around.
// At least one of Start or End must be non-nil.
type Vehicle struct {
	ID       string    `json:"id"`
	Start    *Location `json:"start,omitempty"`
	End      *Location `json:"end,omitempty"`
	Capacity Amount    `json:"capacity"`
	Skills   []int     `json:"skills,omitempty"`
}

// HasStart reports whether the vehicle has a start location.
func (v Vehicle) HasStart() bool { return v.Start != nil }

// HasEnd reports whether the vehicle has an end location.
func (v Vehicle) HasEnd() bool { return v.End != nil }

// Validate checks the structural invariants required before clustering.
func (v Vehicle) Validate() error {
	if !v.HasStart() && !v.HasEnd() {
		return fmt.Errorf("vehicle %q: must have a start or an end location", v.ID)
	}
	if v.Capacity.IsNegative() {
		return fmt.Errorf("vehicle %q: capacity must be non-negative", v.ID)
	}
	return nil
}

// SubscriptionRequest is the inbound payload for creating a Subscription.
type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

// Subscription is a tenant's registration for webhook events such as
// cluster.run.completed.
type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}

// RunRequest is the inbound payload for POST /v1/cluster.
type RunRequest struct {
	TenantID     string             `json:"tenantId"`
	Jobs         []Job              `json:"jobs"`
	Vehicles     []Vehicle          `json:"vehicles"`
	Matrix       [][]int64          `json:"matrix"`
	Heuristic    string             `json:"heuristic"`              // "parallel" | "sequential"
	Init         string             `json:"init"`                   // "none" | "higher_amount" | "nearest"
	RegretCoeff  float64            `json:"regretCoeff"`
	Trace        bool               `json:"trace,omitempty"`
	TimeBudgetMs int                `json:"timeBudgetMs,omitempty"`
}

// RunRecord is the persisted outcome of one clustering run.
type RunRecord struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenantId"`
	Heuristic   string  `json:"heuristic"`
	Init        string  `json:"init"`
	RegretCoeff float64 `json:"regretCoeff"`
	Status      string  `json:"status"` // "ok" | "invalid_input" | "internal_error"
	Error       string  `json:"error,omitempty"`
	EdgesCost   int64   `json:"edgesCost"`
	Unassigned  int     `json:"unassigned"`
	DurationMs  int64   `json:"durationMs"`
	CreatedAt   string  `json:"createdAt"`
	Envelope    []byte  `json:"-"`
}
