// Package health periodically checks the store and publishes the result.
package health

import (
	"context"
	"log/slog"
	"time"
)

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusSetter receives the outcome of every check.
type StatusSetter interface {
	SetServing(serving bool)
}

// Monitor pings the store every interval and reports the result to a StatusSetter.
type Monitor struct {
	pinger   Pinger
	setter   StatusSetter
	interval time.Duration
	logger   *slog.Logger
}

// NewMonitor creates a Monitor. interval must be positive.
func NewMonitor(pinger Pinger, setter StatusSetter, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		pinger:   pinger,
		setter:   setter,
		interval: interval,
		logger:   logger.With("component", "health"),
	}
}

// Run checks immediately and then on every tick until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	serving := m.check(ctx, false, true)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			serving = m.check(ctx, serving, false)
		}
	}
}

func (m *Monitor) check(ctx context.Context, previous, first bool) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.pinger.Ping(pingCtx)
	serving := err == nil
	m.setter.SetServing(serving)
	if first || serving != previous {
		if serving {
			m.logger.InfoContext(ctx, "Store is reachable")
		} else {
			m.logger.WarnContext(ctx, "Store is not reachable", "error", err)
		}
	}
	return serving
}
