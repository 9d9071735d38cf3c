package optimizer

import (
	"fmt"
	"math"
	randv2 "math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/gridpulse/core/logger"
	"github.com/kilianp07/gridpulse/core/model"
)

// Thresholds for operator recommendations, expressed as fractions of the
// battery capacity.
const (
	excessThreshold  = 0.5
	deficitThreshold = 0.3
	// recommendationHorizon limits advisories to the near-term hours.
	recommendationHorizon = 8
)

// lockedSource serializes access to an underlying rand source. Concurrent
// cycles share one Fallback, and math/rand/v2 sources are not safe for
// concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	src randv2.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// Fallback computes a battery dispatch plan locally when the remote
// optimizer is unavailable. The schedule is a pure function of the profile;
// efficiency, fidelity and the summary aggregates are bounded illustrative
// values drawn from the injected random source and are not load-bearing.
// Safe for concurrent use.
type Fallback struct {
	log logger.Logger
	src *lockedSource
}

// NewFallback returns a Fallback seeded from the current time.
func NewFallback(log logger.Logger) *Fallback {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Fallback{
		log: log,
		src: &lockedSource{src: randv2.NewPCG(uint64(time.Now().UnixNano()), 0)},
	}
}

// WithSource replaces the random source, pinning the illustrative values in
// tests.
func (f *Fallback) WithSource(src randv2.Source) *Fallback {
	f.src = &lockedSource{src: src}
	return f
}

// Optimize derives the hourly charge/discharge plan and the near-term
// recommendations from the profile. It never fails for a well-formed
// profile.
func (f *Fallback) Optimize(profile *model.EnergyProfile) *model.OptimizationResult {
	efficiency := distuv.Uniform{Min: 85, Max: 95, Src: f.src}
	battery := profile.Capacity.BatteryMW

	schedule := make([]model.ScheduleEntry, len(profile.Hourly))
	var recs []model.Recommendation
	for i, sample := range profile.Hourly {
		surplus := sample.TotalMW - sample.DemandMW

		action := model.ActionDischarge
		if surplus > 0 {
			action = model.ActionCharge
		}
		schedule[i] = model.ScheduleEntry{
			Hour:          sample.Hour,
			Action:        action,
			AmountMW:      math.Round(math.Min(math.Abs(surplus), battery)),
			Efficiency:    efficiency.Rand(),
			GridBalanceMW: math.Round(surplus),
		}

		if i < recommendationHorizon {
			if rec, ok := recommend(sample.Hour, surplus, battery); ok {
				recs = append(recs, rec)
			}
		}
	}

	f.log.Infof("local plan computed for %s: %d schedule entries, %d recommendations",
		profile.Region.ID, len(schedule), len(recs))

	return &model.OptimizationResult{
		ID:              uuid.NewString(),
		RegionID:        profile.Region.ID,
		ComputedAt:      time.Now(),
		Schedule:        schedule,
		Recommendations: recs,
		Metrics: model.OptimizerMetrics{
			Algorithm:     "Greedy Threshold Heuristic (Fallback Mode)",
			Fidelity:      distuv.Uniform{Min: 0.93, Max: 0.99, Src: f.src}.Rand(),
			ExecutionTime: "< 1 ms (local)",
		},
		Summary:          f.summary(),
		UsingRealBackend: false,
	}
}

// recommend emits at most one advisory for an hour, per the excess and
// deficit thresholds.
func recommend(hour string, surplus, battery float64) (model.Recommendation, bool) {
	switch {
	case surplus > excessThreshold*battery:
		amount := math.Round(surplus * 0.8)
		return model.Recommendation{
			Hour:     hour,
			Kind:     model.RecommendationExcess,
			AmountMW: amount,
			Message:  fmt.Sprintf("At %s: export or store %.0f MW of excess generation", hour, amount),
		}, true
	case surplus < -deficitThreshold*battery:
		amount := math.Round(math.Abs(surplus) * 0.9)
		return model.Recommendation{
			Hour:     hour,
			Kind:     model.RecommendationDeficit,
			AmountMW: amount,
			Message:  fmt.Sprintf("At %s: import or discharge %.0f MW to cover the deficit", hour, amount),
		}, true
	}
	return model.Recommendation{}, false
}

// summary produces the dashboard aggregates. Bounds only; the exact values
// are not derived from the schedule.
func (f *Fallback) summary() model.Summary {
	return model.Summary{
		EfficiencyGainPct:   distuv.Uniform{Min: 8, Max: 15, Src: f.src}.Rand(),
		CostSavingUSD:       distuv.Uniform{Min: 40000, Max: 120000, Src: f.src}.Rand(),
		CarbonReductionT:    distuv.Uniform{Min: 500, Max: 2000, Src: f.src}.Rand(),
		SystemEfficiencyPct: distuv.Uniform{Min: 88, Max: 96, Src: f.src}.Rand(),
	}
}
