package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/gridpulse/core/logger"
	"github.com/kilianp07/gridpulse/core/metrics"
	"github.com/kilianp07/gridpulse/core/model"
	"github.com/kilianp07/gridpulse/core/optimizer"
	"github.com/kilianp07/gridpulse/core/profile"
	"github.com/kilianp07/gridpulse/core/region"
	"github.com/kilianp07/gridpulse/internal/eventbus"
)

// CycleEvent is published on the bus for every committed cycle.
type CycleEvent struct {
	Seq      uint64
	Region   model.Region
	Profile  *model.EnergyProfile
	Result   *model.OptimizationResult
	Status   model.BackendStatus
	Duration time.Duration
}

// DefaultOptimizerTimeout bounds the remote optimizer call when the
// configuration does not.
const DefaultOptimizerTimeout = 8 * time.Second

// Controller owns the session state: the current profile, the current plan
// and the backend availability status. It is the only writer of that state.
//
// Each cycle carries a sequence number taken when it starts; a cycle whose
// number is no longer the latest when it finishes is discarded, so a slow
// remote call can never overwrite the result of a newer cycle.
type Controller struct {
	catalog *region.Catalog
	builder *profile.Builder
	remote  optimizer.RemoteOptimizer
	local   *optimizer.Fallback
	timeout time.Duration
	bus     *eventbus.Bus[CycleEvent]
	sink    metrics.Sink
	log     logger.Logger

	mu       sync.Mutex
	seq      uint64
	regionID string
	status   model.BackendStatus
	profileV *model.EnergyProfile
	resultV  *model.OptimizationResult
}

// NewController wires a session. remote may be nil, forcing fallback mode;
// sink may be nil.
func NewController(
	catalog *region.Catalog,
	builder *profile.Builder,
	remote optimizer.RemoteOptimizer,
	local *optimizer.Fallback,
	timeout time.Duration,
	bus *eventbus.Bus[CycleEvent],
	sink metrics.Sink,
	log logger.Logger,
) *Controller {
	if timeout <= 0 {
		timeout = DefaultOptimizerTimeout
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Controller{
		catalog: catalog,
		builder: builder,
		remote:  remote,
		local:   local,
		timeout: timeout,
		bus:     bus,
		sink:    sink,
		log:     log,
		status:  model.StatusChecking,
	}
}

// SelectRegion starts a new optimization cycle for the given region ID and
// returns the computed plan. The returned plan may not have been committed
// if a newer cycle superseded this one while it ran.
func (c *Controller) SelectRegion(ctx context.Context, regionID string) (*model.OptimizationResult, error) {
	reg, err := c.catalog.Get(regionID)
	if err != nil {
		return nil, err
	}
	return c.runCycle(ctx, reg), nil
}

// Retry reruns the cycle for the currently selected region.
func (c *Controller) Retry(ctx context.Context) (*model.OptimizationResult, error) {
	c.mu.Lock()
	id := c.regionID
	c.mu.Unlock()
	if id == "" {
		return nil, fmt.Errorf("no region selected")
	}
	return c.SelectRegion(ctx, id)
}

func (c *Controller) runCycle(ctx context.Context, reg model.Region) *model.OptimizationResult {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.regionID = reg.ID
	c.status = model.StatusChecking
	c.mu.Unlock()

	c.recordStatus(model.StatusChecking)
	start := time.Now()

	prof := c.builder.Build(ctx, reg)

	status := model.StatusFallback
	var result *model.OptimizationResult
	if c.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, c.timeout)
		r, err := c.remote.Optimize(rctx, prof)
		cancel()
		if err != nil {
			c.log.Warnf("remote optimizer unavailable for %s, switching to fallback: %v", reg.ID, err)
		} else {
			result = r
			status = model.StatusConnected
		}
	}
	if result == nil {
		result = c.local.Optimize(prof)
	}
	duration := time.Since(start)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Infof("discarding stale cycle %d for %s (latest is %d)", seq, reg.ID, c.latestSeq())
		return result
	}
	c.profileV = prof
	c.resultV = result
	c.status = status
	c.mu.Unlock()

	c.recordStatus(status)
	if err := c.sink.RecordCycle(metrics.CycleEvent{
		CycleID:         result.ID,
		Seq:             seq,
		RegionID:        reg.ID,
		Backend:         status,
		DataSource:      prof.DataSource,
		Recommendations: len(result.Recommendations),
		Duration:        duration,
		Time:            start,
	}); err != nil {
		c.log.Errorf("cycle metrics: %v", err)
	}
	if c.bus != nil {
		c.bus.Publish(CycleEvent{
			Seq:      seq,
			Region:   reg,
			Profile:  prof,
			Result:   result,
			Status:   status,
			Duration: duration,
		})
	}

	c.log.Debugw("cycle committed", map[string]any{
		"seq":      seq,
		"region":   reg.ID,
		"status":   status.String(),
		"source":   string(prof.DataSource),
		"duration": duration.String(),
	})
	return result
}

func (c *Controller) recordStatus(status model.BackendStatus) {
	if rec, ok := c.sink.(metrics.StatusRecorder); ok {
		if err := rec.RecordBackendStatus(status); err != nil {
			c.log.Errorf("status metrics: %v", err)
		}
	}
}

func (c *Controller) latestSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Status returns the backend availability state.
func (c *Controller) Status() model.BackendStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RegionID returns the currently selected region, empty before the first
// cycle.
func (c *Controller) RegionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regionID
}

// Profile returns a copy of the committed profile, or nil before the first
// completed cycle.
func (c *Controller) Profile() *model.EnergyProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profileV == nil {
		return nil
	}
	cp := *c.profileV
	cp.Hourly = append([]model.HourSample(nil), c.profileV.Hourly...)
	return &cp
}

// Result returns a copy of the committed plan, or nil before the first
// completed cycle.
func (c *Controller) Result() *model.OptimizationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resultV == nil {
		return nil
	}
	cp := *c.resultV
	cp.Schedule = append([]model.ScheduleEntry(nil), c.resultV.Schedule...)
	cp.Recommendations = append([]model.Recommendation(nil), c.resultV.Recommendations...)
	return &cp
}
