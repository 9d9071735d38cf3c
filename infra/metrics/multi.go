package metrics

import (
	coremetrics "github.com/kilianp07/gridpulse/core/metrics"
	"github.com/kilianp07/gridpulse/core/model"
)

// MultiSink fans cycle records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycle forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordCycle(ev coremetrics.CycleEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCycle(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordBackendStatus forwards the status to sinks able to record it.
func (m *MultiSink) RecordBackendStatus(status model.BackendStatus) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.StatusRecorder); ok {
			if err := rec.RecordBackendStatus(status); err != nil {
				return err
			}
		}
	}
	return nil
}
