package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/gridpulse/core/model"
	"github.com/kilianp07/gridpulse/infra/irradiance"
	"github.com/kilianp07/gridpulse/infra/metrics"
	"github.com/kilianp07/gridpulse/infra/mqtt"
	"github.com/kilianp07/gridpulse/infra/optimizer"
)

// Config aggregates all service settings.
type Config struct {
	// Regions supplements or overrides the built-in region catalog.
	Regions    []model.Region    `json:"regions"`
	API        APIConfig         `json:"api"`
	Irradiance irradiance.Config `json:"irradiance"`
	Optimizer  optimizer.Config  `json:"optimizer"`
	Metrics    metrics.Config    `json:"metrics"`
	MQTT       mqtt.Config       `json:"mqtt"`
}

// APIConfig defines the dashboard HTTP server settings.
type APIConfig struct {
	Listen string `json:"listen"`
	// AllowedOrigins configures CORS for the browser frontend. Empty allows
	// any origin.
	AllowedOrigins []string `json:"allowed_origins"`
	// DefaultRegion is optimized on startup so the dashboard is never empty.
	DefaultRegion string `json:"default_region"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DefaultRegion == "" {
		c.DefaultRegion = "california"
	}
}

// Load reads the configuration file, applying GP_ environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("GP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "gp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.Irradiance.SetDefaults()
	cfg.Optimizer.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Optimizer.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
