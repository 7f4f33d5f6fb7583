// Package depthfeed periodically publishes an aggregated depth
// snapshot for market data consumers. Frames are fire-and-forget:
// a missed tick is superseded by the next one.
package depthfeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fenrir/infra/kafka"
	"fenrir/service"
)

type Feed struct {
	log       *slog.Logger
	svc       *service.BookService
	producer  *kafka.Producer
	interval  time.Duration
	maxLevels int
}

func New(log *slog.Logger, svc *service.BookService, producer *kafka.Producer, interval time.Duration, maxLevels int) *Feed {
	if maxLevels <= 0 {
		maxLevels = 20
	}
	return &Feed{
		log:       log,
		svc:       svc,
		producer:  producer,
		interval:  interval,
		maxLevels: maxLevels,
	}
}

// Start runs the publish loop until ctx is cancelled.
func (f *Feed) Start(ctx context.Context) {
	f.log.Info("depth feed started", "interval", f.interval, "levels", f.maxLevels)

	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.publishOnce(ctx)
			}
		}
	}()
}

func (f *Feed) publishOnce(ctx context.Context) {
	depth := f.svc.Depth(f.maxLevels)

	payload, err := json.Marshal(depth)
	if err != nil {
		f.log.Error("depth encode failed", "err", err)
		return
	}

	if err := f.producer.Send(ctx, []byte(depth.Symbol), payload); err != nil {
		f.log.Warn("depth publish failed", "err", err)
	}
}
