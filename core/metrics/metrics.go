package metrics

import (
	"time"

	"github.com/kilianp07/gridpulse/core/model"
)

// CycleEvent captures one completed optimization cycle.
type CycleEvent struct {
	CycleID    string
	Seq        uint64
	RegionID   string
	Backend    model.BackendStatus
	DataSource model.DataSource
	// Recommendations is the advisory count of the resulting plan.
	Recommendations int
	Duration        time.Duration
	Time            time.Time
}

// Sink records optimization cycles for observability purposes.
type Sink interface {
	RecordCycle(ev CycleEvent) error
}

// StatusRecorder is implemented by sinks able to track the current backend
// availability state.
type StatusRecorder interface {
	RecordBackendStatus(status model.BackendStatus) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCycle(CycleEvent) error                  { return nil }
func (NopSink) RecordBackendStatus(model.BackendStatus) error { return nil }
