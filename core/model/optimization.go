package model

import "time"

// BatteryAction is the dispatch decision for one hour.
type BatteryAction string

const (
	ActionCharge    BatteryAction = "Charge"
	ActionDischarge BatteryAction = "Discharge"
)

// ScheduleEntry is the battery plan for one hour, aligned 1:1 with the
// profile's hourly samples.
type ScheduleEntry struct {
	Hour   string        `json:"hour"`
	Action BatteryAction `json:"action"`
	// AmountMW is capped by the profile's battery capacity.
	AmountMW   float64 `json:"amount_mw"`
	Efficiency float64 `json:"efficiency"`
	// GridBalanceMW is the signed surplus for the hour.
	GridBalanceMW float64 `json:"grid_balance_mw"`
}

// RecommendationKind distinguishes advisory messages.
type RecommendationKind string

const (
	RecommendationExcess  RecommendationKind = "excess"
	RecommendationDeficit RecommendationKind = "deficit"
)

// Recommendation is an operator advisory derived from a near-term hour.
type Recommendation struct {
	Hour     string             `json:"hour"`
	Kind     RecommendationKind `json:"kind"`
	AmountMW float64            `json:"amount_mw"`
	Message  string             `json:"message"`
}

// OptimizerMetrics describes the solver run that produced a plan. The
// circuit counts are reported by the remote service and are zero for the
// local heuristic.
type OptimizerMetrics struct {
	Algorithm     string  `json:"algorithm"`
	Qubits        int     `json:"qubits"`
	GateCount     int     `json:"gate_count"`
	CircuitDepth  int     `json:"circuit_depth"`
	Fidelity      float64 `json:"fidelity"`
	ExecutionTime string  `json:"execution_time"`
}

// Summary holds illustrative aggregate figures for the dashboard. They are
// presentation values bounded by convention, not derived from the schedule.
type Summary struct {
	EfficiencyGainPct   float64 `json:"efficiency_gain_pct"`
	CostSavingUSD       float64 `json:"cost_saving_usd"`
	CarbonReductionT    float64 `json:"carbon_reduction_t"`
	SystemEfficiencyPct float64 `json:"system_efficiency_pct"`
}

// OptimizationResult is a complete battery dispatch plan for one profile.
type OptimizationResult struct {
	ID               string           `json:"id"`
	RegionID         string           `json:"region_id"`
	ComputedAt       time.Time        `json:"computed_at"`
	Schedule         []ScheduleEntry  `json:"schedule"`
	Recommendations  []Recommendation `json:"recommendations"`
	Metrics          OptimizerMetrics `json:"metrics"`
	Summary          Summary          `json:"summary"`
	UsingRealBackend bool             `json:"using_real_backend"`
}
