package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sellapp/sellapp/internal/dashboard"
)

// DefaultRefreshInterval is how often dashboards reload.
const DefaultRefreshInterval = 300 * time.Second

// Fetch loads one widget payload.
type Fetch[T any] func(ctx context.Context) (T, error)

// Widget fetches a payload from its primary endpoint, then its fallback,
// then settles for Zero.
type Widget[T any] struct {
	Name     string
	Primary  Fetch[T]
	Fallback Fetch[T]
	Zero     T
}

// Load runs the widget. Failures are logged and never returned.
func (w Widget[T]) Load(ctx context.Context, logger *slog.Logger) (T, dashboard.Status) {
	if logger == nil {
		logger = slog.Default()
	}
	v, err := w.Primary(ctx)
	if err == nil {
		return v, dashboard.StatusOK
	}
	logger.Warn("widget primary failed", slog.String("widget", w.Name), slog.Any("error", err))
	if w.Fallback != nil {
		v, ferr := w.Fallback(ctx)
		if ferr == nil {
			return v, dashboard.StatusFallback
		}
		logger.Warn("widget fallback failed", slog.String("widget", w.Name), slog.Any("error", ferr))
	}
	return w.Zero, dashboard.StatusDegraded
}

// StatsWidget fetches admin stats, falling back to platform metrics. Both
// shapes come out as dashboard.Stats.
func (c *Client) StatsWidget(q RangeQuery) Widget[dashboard.Stats] {
	return Widget[dashboard.Stats]{
		Name: "stats",
		Primary: func(ctx context.Context) (dashboard.Stats, error) {
			v, err := c.AdminStats(ctx, q)
			return v.Stats, err
		},
		Fallback: func(ctx context.Context) (dashboard.Stats, error) {
			p, err := c.PlatformMetrics(ctx, q)
			if err != nil {
				return dashboard.Stats{}, err
			}
			return dashboard.NormalizeStats(p), nil
		},
	}
}

// Refresher calls Run immediately and then on every tick until stopped.
type Refresher struct {
	Interval time.Duration
	Run      func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the refresh loop. Calling Start twice restarts it.
func (r *Refresher) Start(ctx context.Context) {
	r.Stop()
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel, r.done = cancel, done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		r.Run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Run(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight run to return.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
