package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/gridpulse/api"
	"github.com/kilianp07/gridpulse/config"
	coremetrics "github.com/kilianp07/gridpulse/core/metrics"
	"github.com/kilianp07/gridpulse/core/optimizer"
	"github.com/kilianp07/gridpulse/core/profile"
	"github.com/kilianp07/gridpulse/core/region"
	"github.com/kilianp07/gridpulse/core/session"
	"github.com/kilianp07/gridpulse/infra/irradiance"
	"github.com/kilianp07/gridpulse/infra/logger"
	"github.com/kilianp07/gridpulse/infra/metrics"
	"github.com/kilianp07/gridpulse/infra/mqtt"
	infraoptimizer "github.com/kilianp07/gridpulse/infra/optimizer"
	"github.com/kilianp07/gridpulse/internal/eventbus"
)

// Service wires the catalog, session controller, sinks and the API server.
type Service struct {
	cfg       *config.Config
	catalog   *region.Catalog
	session   *session.Controller
	bus       *eventbus.Bus[session.CycleEvent]
	announcer *mqtt.Announcer
	log       logger.Logger
}

// New assembles a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	catalog, err := region.NewCatalog(cfg.Regions...)
	if err != nil {
		return nil, fmt.Errorf("region catalog: %w", err)
	}

	var source profile.IrradianceSource
	if cfg.Irradiance.Enabled {
		source = irradiance.NewClient(cfg.Irradiance)
	}
	builder := profile.NewBuilder(source, logger.New("profile-builder"))

	var remote optimizer.RemoteOptimizer
	if cfg.Optimizer.Enabled {
		remote = infraoptimizer.NewClient(cfg.Optimizer)
	}
	local := optimizer.NewFallback(logger.New("fallback-optimizer"))

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New[session.CycleEvent]()
	ctrl := session.NewController(
		catalog,
		builder,
		remote,
		local,
		time.Duration(cfg.Optimizer.TimeoutSeconds)*time.Second,
		bus,
		sink,
		logger.New("session"),
	)

	svc := &Service{cfg: cfg, catalog: catalog, session: ctrl, bus: bus, log: logg}
	if cfg.MQTT.Enabled {
		ann, err := mqtt.NewAnnouncer(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("plan announcer: %w", err)
		}
		svc.announcer = ann
	}
	return svc, nil
}

// Session exposes the controller, mainly for the one-shot CLI path.
func (s *Service) Session() *session.Controller { return s.session }

// Run starts the API server and blocks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.announcer != nil {
		go s.announcer.Run(ctx, s.bus)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	// Warm the dashboard with the default region.
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := s.session.SelectRegion(warmCtx, s.cfg.API.DefaultRegion); err != nil {
			s.log.Warnf("initial cycle for %s: %v", s.cfg.API.DefaultRegion, err)
		}
	}()

	handler := api.NewHandler(s.catalog, s.session)
	s.log.Infof("dashboard API listening on %s", s.cfg.API.Listen)
	return api.Serve(ctx, s.cfg.API.Listen, handler.Router(s.cfg.API.AllowedOrigins))
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.announcer != nil {
		s.announcer.Close()
	}
	s.bus.Close()
	return nil
}
