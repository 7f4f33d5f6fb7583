package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fenrir/config"
	"fenrir/infra/kafka"
	"fenrir/infra/logging"
	entrywal "fenrir/infra/wal/entry"
	exitwal "fenrir/infra/wal/exit"
	"fenrir/jobs/broadcaster"
	"fenrir/jobs/depthfeed"
	"fenrir/loadgen"
	"fenrir/service"
)

func main() {
	configPath := flag.String("config", "", "path to engine.yaml")
	demoOrders := flag.Int("demo", 0, "place this many random orders after startup")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			os.Stderr.WriteString("config: " + err.Error() + "\n")
			os.Exit(1)
		}
		cfg = loaded
	}

	log := logging.New(cfg.Logging)

	// ---------------- Durability ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:             cfg.WAL.Dir,
		SegmentSize:     cfg.WAL.SegmentSizeMB << 20,
		SegmentDuration: cfg.SegmentDuration(),
	})
	if err != nil {
		log.Error("entry wal init failed", "err", err)
		os.Exit(1)
	}
	defer entryWAL.Close()

	outbox, err := exitwal.Open(cfg.Outbox.Dir)
	if err != nil {
		log.Error("outbox init failed", "err", err)
		os.Exit(1)
	}
	defer outbox.Close()

	// ---------------- Service + recovery ----------------

	svc := service.New(log, cfg.Symbol, entryWAL, outbox)
	if err := svc.Recover(cfg.WAL.Dir, cfg.Snapshot.Dir); err != nil {
		log.Error("recovery failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Background jobs ----------------

	svc.StartSnapshotJob(ctx, cfg.Snapshot.Dir, cfg.SnapshotInterval())

	bc, err := broadcaster.New(log, outbox, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, cfg.BroadcastInterval())
	if err != nil {
		log.Warn("broadcaster disabled, broker unreachable", "err", err)
	} else {
		bc.Start(ctx)
		defer bc.Close()

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DepthTopic)
		defer producer.Close()
		depthfeed.New(log, svc, producer, cfg.FeedInterval(), cfg.Depth.MaxLevels).Start(ctx)
	}

	log.Info("engine running", "symbol", cfg.Symbol)

	if *demoOrders > 0 {
		go runDemo(ctx, log, svc, *demoOrders)
	}

	<-ctx.Done()
	log.Info("shutting down")
	svc.Shutdown()
}

// runDemo feeds random order flow so an engine without upstream
// traffic still produces trades and depth frames.
func runDemo(ctx context.Context, log *slog.Logger, svc *service.BookService, n int) {
	gen := loadgen.New(time.Now().UnixNano())
	placed := 0
	for placed < n {
		select {
		case <-ctx.Done():
			return
		default:
		}
		o := gen.NextLimitOrder()
		if _, err := svc.Place(o.Side(), o.Price(), o.OpenQty()); err != nil {
			return
		}
		placed++
	}
	log.Info("demo flow complete", "orders", placed, "market_price", svc.MarketPrice())
}
