// Package pacing spaces navigations against the court host.
package pacing

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Config holds pacer configuration.
type Config struct {
	RPS   float64
	Burst int
}

// Pacer is a process-wide token bucket shared by all concurrent query
// pipelines. One target host, one bucket: independent records run in
// parallel but their navigations never land back to back.
type Pacer struct {
	limiter *rate.Limiter
}

// New creates a Pacer. A non-positive RPS disables pacing.
func New(cfg Config) *Pacer {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(r, burst)}
}

// Wait blocks until a navigation slot is available or the context ends.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	return nil
}
