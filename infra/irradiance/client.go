package irradiance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kilianp07/gridpulse/infra/logger"
)

// DefaultBaseURL points at the NASA POWER climatology endpoint serving
// annual-average irradiance data.
const DefaultBaseURL = "https://power.larc.nasa.gov/api/temporal/climatology/point"

// fillValue marks missing data in POWER responses.
const fillValue = -999

// Config holds the irradiance client settings.
type Config struct {
	Enabled        bool   `json:"enabled"`
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
}

// Client fetches annual global horizontal irradiance for a coordinate pair.
// It implements profile.IrradianceSource.
type Client struct {
	client  *http.Client
	baseURL string
	log     logger.Logger
}

// NewClient creates a Client from the configuration.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL: cfg.BaseURL,
		log:     logger.New("irradiance-client"),
	}
}

// powerResponse mirrors the subset of the POWER payload we consume.
type powerResponse struct {
	Properties struct {
		Parameter struct {
			GHI map[string]float64 `json:"ALLSKY_SFC_SW_DWN"`
		} `json:"parameter"`
	} `json:"properties"`
}

// AnnualGHI returns the annual-average irradiance in kWh/m2/day. Every
// failure mode, transport, status, parse or missing datum, is reported as an
// error so the caller can degrade to its configured default.
func (c *Client) AnnualGHI(ctx context.Context, lat, lon float64) (float64, error) {
	q := url.Values{}
	q.Set("parameters", "ALLSKY_SFC_SW_DWN")
	q.Set("community", "RE")
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var payload powerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	ghi, ok := payload.Properties.Parameter.GHI["ANN"]
	if !ok || ghi == fillValue || ghi <= 0 {
		return 0, fmt.Errorf("no annual irradiance value for (%.2f, %.2f)", lat, lon)
	}
	c.log.Debugw("annual irradiance fetched", map[string]any{"lat": lat, "lon": lon, "ghi": ghi})
	return ghi, nil
}
