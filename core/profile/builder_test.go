package profile

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/kilianp07/gridpulse/core/model"
	"github.com/kilianp07/gridpulse/core/region"
)

type stubSource struct {
	ghi float64
	err error
}

func (s stubSource) AnnualGHI(context.Context, float64, float64) (float64, error) {
	return s.ghi, s.err
}

func noon() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func testRegion(t *testing.T, id string) model.Region {
	t.Helper()
	catalog, err := region.NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	r, err := catalog.Get(id)
	if err != nil {
		t.Fatalf("region %s: %v", id, err)
	}
	return r
}

func TestBuildInvariants(t *testing.T) {
	catalog, err := region.NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	b := NewBuilder(nil, nil).WithClock(noon)
	for _, reg := range catalog.List() {
		p := b.Build(context.Background(), reg)
		if len(p.Hourly) != 24 {
			t.Fatalf("%s: expected 24 samples, got %d", reg.ID, len(p.Hourly))
		}
		if p.Current != p.Hourly[0] {
			t.Fatalf("%s: current is not the first sample", reg.ID)
		}
		for i, s := range p.Hourly {
			if s.TotalMW != s.SolarMW+s.WindMW+s.HydroMW {
				t.Fatalf("%s sample %d: total %v != %v+%v+%v", reg.ID, i, s.TotalMW, s.SolarMW, s.WindMW, s.HydroMW)
			}
			hour := (12 + i) % 24
			if (hour < 6 || hour > 18) && s.SolarMW != 0 {
				t.Fatalf("%s: solar %v at night hour %d", reg.ID, s.SolarMW, hour)
			}
			if s.SolarMW < 0 || s.WindMW < 0 || s.HydroMW < 0 {
				t.Fatalf("%s sample %d: negative generation", reg.ID, i)
			}
			if s.DemandMW <= 0 {
				t.Fatalf("%s sample %d: demand %v not positive", reg.ID, i, s.DemandMW)
			}
		}
		if want := math.Round(reg.BaseLoadMW * 0.1); p.Capacity.BatteryMW != want {
			t.Fatalf("%s: battery capacity %v, want %v", reg.ID, p.Capacity.BatteryMW, want)
		}
	}
}

func TestBuildHourlyWrapsFromCurrentHour(t *testing.T) {
	reg := testRegion(t, "texas")
	b := NewBuilder(nil, nil).WithClock(func() time.Time {
		return time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC)
	})
	p := b.Build(context.Background(), reg)
	if p.Hourly[0].Hour != "22:00" {
		t.Fatalf("first sample %s, want 22:00", p.Hourly[0].Hour)
	}
	if p.Hourly[2].Hour != "00:00" {
		t.Fatalf("third sample %s, want 00:00", p.Hourly[2].Hour)
	}
	if p.Hourly[23].Hour != "21:00" {
		t.Fatalf("last sample %s, want 21:00", p.Hourly[23].Hour)
	}
}

func TestBuildNoonSolarPeak(t *testing.T) {
	// sin(pi/2) == 1 at noon, so solar equals the full peak fraction.
	reg := testRegion(t, "california")
	p := NewBuilder(nil, nil).WithClock(noon).Build(context.Background(), reg)
	if p.Hourly[0].SolarMW != 14000 {
		t.Fatalf("noon solar %v, want 14000", p.Hourly[0].SolarMW)
	}
}

func TestBuildLookupFailureDegrades(t *testing.T) {
	reg := testRegion(t, "texas")
	b := NewBuilder(stubSource{err: fmt.Errorf("boom")}, nil).WithClock(noon)
	p := b.Build(context.Background(), reg)
	if p.DataSource != model.SourceSimulated {
		t.Fatalf("data source %s, want simulated", p.DataSource)
	}
	if p.Capacity.SolarMW != 15750 {
		t.Fatalf("solar capacity %v, want 15750", p.Capacity.SolarMW)
	}
	if p.Capacity.BatteryMW != 4500 {
		t.Fatalf("battery capacity %v, want 4500", p.Capacity.BatteryMW)
	}
	if p.IrradianceGHI != 0 {
		t.Fatalf("unexpected irradiance payload %v", p.IrradianceGHI)
	}
}

func TestBuildUnusableIrradianceDegrades(t *testing.T) {
	reg := testRegion(t, "texas")
	p := NewBuilder(stubSource{ghi: -999}, nil).WithClock(noon).Build(context.Background(), reg)
	if p.DataSource != model.SourceSimulated {
		t.Fatalf("data source %s, want simulated", p.DataSource)
	}
	if p.Capacity.SolarMW != 15750 {
		t.Fatalf("solar capacity %v, want 15750", p.Capacity.SolarMW)
	}
}

func TestBuildRecalibratesSolarFactor(t *testing.T) {
	reg := testRegion(t, "texas")
	p := NewBuilder(stubSource{ghi: 6}, nil).WithClock(noon).Build(context.Background(), reg)
	if p.DataSource != model.SourceReal {
		t.Fatalf("data source %s, want real", p.DataSource)
	}
	// 6/5 * 0.35 * 45000 = 18900
	if p.Capacity.SolarMW != 18900 {
		t.Fatalf("solar capacity %v, want 18900", p.Capacity.SolarMW)
	}
	if p.IrradianceGHI != 6 {
		t.Fatalf("irradiance payload %v, want 6", p.IrradianceGHI)
	}
	// wind and hydro are untouched by recalibration
	if p.Capacity.WindMW != 15750 {
		t.Fatalf("wind capacity %v, want 15750", p.Capacity.WindMW)
	}
}

func TestSampleHourDemandCurve(t *testing.T) {
	reg := testRegion(t, "texas")
	// Demand peaks when sin((hour-14)*pi/12) == 1, at hour 20.
	peak := sampleHour(20, reg, reg.SolarPeakFraction)
	if want := math.Round(reg.BaseLoadMW * 1.0); peak.DemandMW != want {
		t.Fatalf("peak demand %v, want %v", peak.DemandMW, want)
	}
	trough := sampleHour(8, reg, reg.SolarPeakFraction)
	if want := math.Round(reg.BaseLoadMW * 0.4); trough.DemandMW != want {
		t.Fatalf("trough demand %v, want %v", trough.DemandMW, want)
	}
}
