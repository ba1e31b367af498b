package workers

import (
	"context"
	"log/slog"
	"time"

	"nexus-gateway/gateway"
)

// Reporter logs live gateway statistics at a fixed interval.
type Reporter struct {
	log      *slog.Logger
	registry *gateway.Registry
	presence *gateway.Presence
	interval time.Duration
}

func NewReporter(log *slog.Logger, registry *gateway.Registry,
	presence *gateway.Presence, interval time.Duration) *Reporter {
	return &Reporter{log: log, registry: registry, presence: presence, interval: interval}
}

func (w *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			identities, connections := w.registry.Counts()
			w.log.Info("Gateway stats",
				"identities", identities,
				"connections", connections,
				"rooms", w.presence.RoomCount())
		}
	}
}
