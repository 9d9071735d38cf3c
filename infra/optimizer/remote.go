package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/gridpulse/core/model"
	"github.com/kilianp07/gridpulse/infra/logger"
)

// Config holds the remote optimizer client settings. When disabled the
// session runs in fallback mode only.
type Config struct {
	Enabled        bool   `json:"enabled"`
	Endpoint       string `json:"endpoint"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 8
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("optimizer endpoint required when enabled")
	}
	return nil
}

// request is the profile serialization sent to the optimization service.
type request struct {
	Region      string             `json:"region"`
	GeneratedAt time.Time          `json:"generated_at"`
	Hourly      []model.HourSample `json:"hourly"`
	Capacity    model.Capacity     `json:"capacity"`
	Current     model.HourSample   `json:"current"`
}

// response is the plan returned by the optimization service.
type response struct {
	Schedule        []model.ScheduleEntry  `json:"schedule"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Metrics         model.OptimizerMetrics `json:"metrics"`
	Summary         model.Summary          `json:"summary"`
}

// Client delegates plan computation to a remote optimization service. It
// implements optimizer.RemoteOptimizer: a single POST, no retries, and every
// failure mode is an explicit error for the session to act on.
type Client struct {
	client   *http.Client
	endpoint string
	log      logger.Logger
}

// NewClient creates a Client from the configuration.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		endpoint: cfg.Endpoint,
		log:      logger.New("optimizer-client"),
	}
}

// Optimize sends the profile and parses the returned plan.
func (c *Client) Optimize(ctx context.Context, profile *model.EnergyProfile) (*model.OptimizationResult, error) {
	payload, err := json.Marshal(request{
		Region:      profile.Region.ID,
		GeneratedAt: profile.GeneratedAt,
		Hourly:      profile.Hourly,
		Capacity:    profile.Capacity,
		Current:     profile.Current,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var plan response
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(plan.Schedule) != len(profile.Hourly) {
		return nil, fmt.Errorf("malformed plan: %d schedule entries for %d samples",
			len(plan.Schedule), len(profile.Hourly))
	}

	c.log.Infof("remote plan received for %s (%s)", profile.Region.ID, plan.Metrics.Algorithm)
	return &model.OptimizationResult{
		ID:               uuid.NewString(),
		RegionID:         profile.Region.ID,
		ComputedAt:       time.Now(),
		Schedule:         plan.Schedule,
		Recommendations:  plan.Recommendations,
		Metrics:          plan.Metrics,
		Summary:          plan.Summary,
		UsingRealBackend: true,
	}, nil
}
