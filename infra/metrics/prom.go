package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/kilianp07/gridpulse/core/metrics"
	"github.com/kilianp07/gridpulse/core/model"
)

// PromSink records optimization cycles in Prometheus metrics.
type PromSink struct {
	cycles   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	status   prometheus.Gauge
}

// NewPromSink registers cycle metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridpulse_cycles_total",
		Help: "Total number of completed optimization cycles",
	}, []string{"region", "backend", "data_source"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridpulse_cycle_duration_seconds",
		Help:    "Time from region selection to committed plan",
		Buckets: prometheus.DefBuckets,
	}, []string{"region", "backend"})
	status := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridpulse_backend_status",
		Help: "Backend availability state (0 checking, 1 connected, 2 fallback)",
	})

	if err := reg.Register(cycles); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycles = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(status); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			status = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{cycles: cycles, duration: duration, status: status}, nil
}

// RecordCycle increments the counter and observes the cycle duration.
func (s *PromSink) RecordCycle(ev coremetrics.CycleEvent) error {
	s.cycles.WithLabelValues(ev.RegionID, ev.Backend.String(), string(ev.DataSource)).Inc()
	s.duration.WithLabelValues(ev.RegionID, ev.Backend.String()).Observe(ev.Duration.Seconds())
	return nil
}

// RecordBackendStatus sets the availability gauge.
func (s *PromSink) RecordBackendStatus(status model.BackendStatus) error {
	s.status.Set(float64(status))
	return nil
}

// StartPromServer exposes /metrics on addr until the context is canceled. A
// dedicated ServeMux keeps the endpoint off the dashboard API server.
func StartPromServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
