package model

// Region describes a supported grid area and its generation-mix parameters.
// Instances are immutable after catalog load.
type Region struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Utility   string  `json:"utility"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// BaseLoadMW is the reference demand level every mix factor scales from.
	BaseLoadMW float64 `json:"base_load_mw"`
	// SolarPeakFraction is the fraction of base load solar can reach at noon.
	SolarPeakFraction float64 `json:"solar_peak_fraction"`
	WindFactor        float64 `json:"wind_factor"`
	HydroFactor       float64 `json:"hydro_factor"`
}
