// Package broadcaster drains the exit WAL into Kafka. Delivery is
// at-least-once: a crash between publish and ack leaves the record
// SENT, and SENT records are retried on the next sweep.
package broadcaster

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	exitwal "fenrir/infra/wal/exit"
)

type Broadcaster struct {
	log      *slog.Logger
	outbox   *exitwal.WAL
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

func New(log *slog.Logger, outbox *exitwal.WAL, brokers []string, topic string, interval time.Duration) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		log:      log,
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		interval: interval,
	}, nil
}

// Start runs the drain loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info("broadcaster started", "topic", b.topic, "interval", b.interval)

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.drainOnce()
			}
		}
	}()
}

func (b *Broadcaster) drainOnce() {
	err := b.outbox.ScanPending(func(rec *exitwal.Record) error {
		// SENT before publish: a crash in between must look like an
		// unconfirmed send, never like an unsent event
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn("publish failed, will retry", "seq", rec.Seq, "err", err)
			return nil
		}

		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error("outbox sweep failed", "err", err)
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
