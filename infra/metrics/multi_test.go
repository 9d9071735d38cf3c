package metrics

import (
	"fmt"
	"testing"

	coremetrics "github.com/kilianp07/gridpulse/core/metrics"
	"github.com/kilianp07/gridpulse/core/model"
)

type countingSink struct {
	cycles   int
	statuses int
	fail     bool
}

func (s *countingSink) RecordCycle(coremetrics.CycleEvent) error {
	if s.fail {
		return fmt.Errorf("sink down")
	}
	s.cycles++
	return nil
}

func (s *countingSink) RecordBackendStatus(model.BackendStatus) error {
	s.statuses++
	return nil
}

type cycleOnlySink struct{ cycles int }

func (s *cycleOnlySink) RecordCycle(coremetrics.CycleEvent) error {
	s.cycles++
	return nil
}

func TestMultiSinkFanOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	m := NewMultiSink(a, b)

	if err := m.RecordCycle(coremetrics.CycleEvent{}); err != nil {
		t.Fatalf("record cycle: %v", err)
	}
	if err := m.RecordBackendStatus(model.StatusChecking); err != nil {
		t.Fatalf("record status: %v", err)
	}
	if a.cycles != 1 || b.cycles != 1 || a.statuses != 1 || b.statuses != 1 {
		t.Fatalf("fan-out incomplete: %+v %+v", a, b)
	}
}

func TestMultiSinkStopsOnFirstError(t *testing.T) {
	a := &countingSink{fail: true}
	b := &countingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordCycle(coremetrics.CycleEvent{}); err == nil {
		t.Fatalf("expected error")
	}
	if b.cycles != 0 {
		t.Fatalf("later sink recorded after error")
	}
}

func TestMultiSinkSkipsNonStatusRecorders(t *testing.T) {
	a := &cycleOnlySink{}
	b := &countingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordBackendStatus(model.StatusFallback); err != nil {
		t.Fatalf("record status: %v", err)
	}
	if b.statuses != 1 {
		t.Fatalf("status recorder skipped")
	}
}
