package model

// CounterDrift reports one denormalized counter against its recomputed
// aggregate. Delta is Actual - Stored; zero means the counter was already in
// sync.
type CounterDrift struct {
	Counter string `json:"counter"`
	Stored  int    `json:"stored"`
	Actual  int    `json:"actual"`
	Delta   int    `json:"delta"`
}

// ReconcileRequest asks for an on-demand counter reconciliation of a target.
type ReconcileRequest struct {
	TargetID   int64      `json:"target_id"`
	TargetType TargetType `json:"target_type"`
}

// ReconcileResponse reports the corrections applied to a target's counters.
type ReconcileResponse struct {
	TargetID   int64          `json:"target_id"`
	TargetType TargetType     `json:"target_type"`
	Counters   []CounterDrift `json:"counters"`
}
