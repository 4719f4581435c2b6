package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (store, search index).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker aggregates component checkers into a single service health flag.
type ServiceHealthChecker struct {
	healthy atomic.Int32
	deps    []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{deps: deps, log: log}
	h.healthy.Store(0)
	return h
}

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Components reports the cached health of every dependency keyed by checker name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.deps))
	for _, c := range h.deps {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// Start periodically evaluates dependency health and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		all := true
		for _, c := range h.deps {
			if !c.IsHealthy() {
				all = false
				h.log.Debug().Str("checker", c.Name()).Msg("dependency unhealthy")
			}
		}
		if all {
			h.healthy.Store(1)
		} else {
			h.healthy.Store(0)
		}
		cur := h.healthy.Load()
		if cur != prev {
			if cur == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Error().Stack().Msg("service health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}

// PingChecker caches the outcome of periodic HealthPing probes against one component.
type PingChecker struct {
	name         string
	target       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewPingChecker creates a checker that starts unhealthy until the first successful probe.
func NewPingChecker(name string, target HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *PingChecker {
	c := &PingChecker{name: name, target: target, log: log, probeTimeout: probeTimeout}
	c.healthy.Store(0)
	return c
}

// Name returns the checker name.
func (c *PingChecker) Name() string { return c.name }

// IsHealthy returns the cached health status (non-blocking).
func (c *PingChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start probes once immediately and then on every tick until ctx is done.
func (c *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *PingChecker) check(ctx context.Context) {
	to := c.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	if err := c.target.HealthPing(probeCtx); err != nil {
		c.log.Error().Stack().
			Str("checker", c.name).
			Err(err).
			Msg("health check failed")
		c.healthy.Store(0)
		return
	}
	c.healthy.Store(1)
}
