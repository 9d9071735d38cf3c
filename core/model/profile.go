package model

import "time"

// DataSource tags how the solar factor of a profile was obtained.
type DataSource string

const (
	// SourceReal means the solar factor was recalibrated from a measured
	// irradiance datum.
	SourceReal DataSource = "real"
	// SourceSimulated means the configured default factor was used.
	SourceSimulated DataSource = "simulated"
)

// HourSample is the simulated supply/demand state for one hour.
type HourSample struct {
	// Hour is the label for the sample, formatted "HH:00".
	Hour string `json:"hour"`
	// SolarMW, WindMW and HydroMW are generation outputs in integer MW.
	SolarMW float64 `json:"solar_mw"`
	WindMW  float64 `json:"wind_mw"`
	HydroMW float64 `json:"hydro_mw"`
	// DemandMW is always positive for a well-formed region.
	DemandMW float64 `json:"demand_mw"`
	// TotalMW equals SolarMW + WindMW + HydroMW.
	TotalMW float64 `json:"total_mw"`
}

// Capacity holds the per-source ceiling estimates derived from the region's
// base load and mix factors.
type Capacity struct {
	SolarMW   float64 `json:"solar_mw"`
	WindMW    float64 `json:"wind_mw"`
	HydroMW   float64 `json:"hydro_mw"`
	BatteryMW float64 `json:"battery_mw"`
}

// EnergyProfile is a 24-hour supply/demand curve for a region. Hourly is
// chronological starting from the generation hour, wrapping at 24.
type EnergyProfile struct {
	ID          string       `json:"id"`
	Region      Region       `json:"region"`
	GeneratedAt time.Time    `json:"generated_at"`
	Hourly      []HourSample `json:"hourly"`
	Current     HourSample   `json:"current"`
	Capacity    Capacity     `json:"capacity"`
	DataSource  DataSource   `json:"data_source"`
	// IrradianceGHI is the raw irradiance datum when DataSource is real,
	// in kWh/m2/day.
	IrradianceGHI float64 `json:"irradiance_ghi,omitempty"`
}

// Surplus returns generation minus demand for sample i.
func (p *EnergyProfile) Surplus(i int) float64 {
	return p.Hourly[i].TotalMW - p.Hourly[i].DemandMW
}
