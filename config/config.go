// Package config loads the engine configuration from YAML, with
// environment overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fenrir/infra/logging"
)

type Config struct {
	Symbol string `yaml:"symbol"`

	WAL struct {
		Dir                string `yaml:"dir"`
		SegmentSizeMB      int64  `yaml:"segment_size_mb"`
		SegmentDurationSec int    `yaml:"segment_duration_sec"`
	} `yaml:"wal"`

	Outbox struct {
		Dir string `yaml:"dir"`
	} `yaml:"outbox"`

	Snapshot struct {
		Dir         string `yaml:"dir"`
		IntervalSec int    `yaml:"interval_sec"`
	} `yaml:"snapshot"`

	Kafka struct {
		Brokers             []string `yaml:"brokers"`
		TradeTopic          string   `yaml:"trade_topic"`
		DepthTopic          string   `yaml:"depth_topic"`
		BroadcastIntervalMS int      `yaml:"broadcast_interval_ms"`
	} `yaml:"kafka"`

	Depth struct {
		FeedIntervalMS int `yaml:"feed_interval_ms"`
		MaxLevels      int `yaml:"max_levels"`
	} `yaml:"depth"`

	Logging logging.Config `yaml:"logging"`
}

func (c *Config) SegmentDuration() time.Duration {
	return time.Duration(c.WAL.SegmentDurationSec) * time.Second
}

func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Snapshot.IntervalSec) * time.Second
}

func (c *Config) BroadcastInterval() time.Duration {
	return time.Duration(c.Kafka.BroadcastIntervalMS) * time.Millisecond
}

func (c *Config) FeedInterval() time.Duration {
	return time.Duration(c.Depth.FeedIntervalMS) * time.Millisecond
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration that runs out of the box.
func Default() *Config {
	cfg := &Config{Symbol: "BTC-USD"}
	cfg.WAL.Dir = "data/wal"
	cfg.WAL.SegmentSizeMB = 2
	cfg.WAL.SegmentDurationSec = 60
	cfg.Outbox.Dir = "data/outbox"
	cfg.Snapshot.Dir = "data/snapshots"
	cfg.Snapshot.IntervalSec = 60
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.TradeTopic = "trades"
	cfg.Kafka.DepthTopic = "depth"
	cfg.Kafka.BroadcastIntervalMS = 250
	cfg.Depth.FeedIntervalMS = 1000
	cfg.Depth.MaxLevels = 20
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return cfg
}

func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.WAL.Dir == "" || c.Outbox.Dir == "" || c.Snapshot.Dir == "" {
		return fmt.Errorf("wal, outbox and snapshot directories are required")
	}
	if c.WAL.SegmentSizeMB <= 0 {
		return fmt.Errorf("wal segment size must be positive")
	}
	if c.Snapshot.IntervalSec <= 0 {
		return fmt.Errorf("snapshot interval must be positive")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one kafka broker is required")
	}
	if c.Kafka.TradeTopic == "" || c.Kafka.DepthTopic == "" {
		return fmt.Errorf("kafka topics are required")
	}
	if c.Depth.FeedIntervalMS <= 0 {
		return fmt.Errorf("depth feed interval must be positive")
	}
	return nil
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("FENRIR_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("FENRIR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("FENRIR_DATA_DIR"); v != "" {
		cfg.WAL.Dir = v + "/wal"
		cfg.Outbox.Dir = v + "/outbox"
		cfg.Snapshot.Dir = v + "/snapshots"
	}
	if v := os.Getenv("FENRIR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
