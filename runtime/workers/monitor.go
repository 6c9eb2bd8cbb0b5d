package workers

import (
	"context"
	"log/slog"
	"time"

	"message-room/observability"
)

// Monitor refreshes the stats snapshot on a fixed interval so the stats
// endpoint serves recent data without sampling on every request.
type Monitor struct {
	log      *slog.Logger
	stats    *observability.StatsManager
	interval time.Duration
}

func NewMonitor(log *slog.Logger, stats *observability.StatsManager, interval time.Duration) *Monitor {
	return &Monitor{log: log, stats: stats, interval: interval}
}

func (w *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats sampling")
			return nil
		case <-ticker.C:
			w.stats.Refresh()
		}
	}
}
