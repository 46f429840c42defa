package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/quanterre/bookstream/pkg/db/queue"
	"github.com/quanterre/bookstream/pkg/snapshot"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"server"`

	Feed struct {
		Endpoint   string   `yaml:"endpoint"`
		Symbols    []string `yaml:"symbols"`
		Strategy   string   `yaml:"strategy"`
		Depth      int      `yaml:"depth"`
		BufferSize int      `yaml:"buffer_size"`
	} `yaml:"feed"`

	Kafka struct {
		Enabled    bool   `yaml:"enabled"`
		BrokerAddr string `yaml:"broker_addr"`
		Topic      string `yaml:"topic"`
		Publisher  string `yaml:"publisher"`
	} `yaml:"kafka"`

	Redis struct {
		Enabled          bool          `yaml:"enabled"`
		Addr             string        `yaml:"addr"`
		Password         string        `yaml:"password"`
		DB               int           `yaml:"db"`
		SnapshotInterval time.Duration `yaml:"snapshot_interval"`
		SnapshotTTL      time.Duration `yaml:"snapshot_ttl"`
	} `yaml:"redis"`
}

// LoadConfig reads configuration from environment variables, with an
// optional YAML file (CONFIG_FILE) layered on top.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "pretty")
	v.SetDefault("FEED_ENDPOINT", "")
	v.SetDefault("FEED_SYMBOLS", "BTCUSDT")
	v.SetDefault("BOOK_STRATEGY", "ABSOLUTE")
	v.SetDefault("BOOK_DEPTH", 1000)
	v.SetDefault("FEED_BUFFER_SIZE", 1024)
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKER_ADDR", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "book-updates")
	v.SetDefault("KAFKA_PUBLISHER", "kafka-go")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_SNAPSHOT_INTERVAL_SECONDS", 30)
	v.SetDefault("REDIS_SNAPSHOT_TTL_SECONDS", 0)

	v.AutomaticEnv()

	cfg := &Config{}
	cfg.Server.LogLevel = v.GetString("LOG_LEVEL")
	cfg.Server.LogFormat = v.GetString("LOG_FORMAT")
	cfg.Feed.Endpoint = v.GetString("FEED_ENDPOINT")
	cfg.Feed.Symbols = splitSymbols(v.GetString("FEED_SYMBOLS"))
	cfg.Feed.Strategy = v.GetString("BOOK_STRATEGY")
	cfg.Feed.Depth = v.GetInt("BOOK_DEPTH")
	cfg.Feed.BufferSize = v.GetInt("FEED_BUFFER_SIZE")
	cfg.Kafka.Enabled = v.GetBool("KAFKA_ENABLED")
	cfg.Kafka.BrokerAddr = v.GetString("KAFKA_BROKER_ADDR")
	cfg.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	cfg.Kafka.Publisher = v.GetString("KAFKA_PUBLISHER")
	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.SnapshotInterval = time.Duration(v.GetInt("REDIS_SNAPSHOT_INTERVAL_SECONDS")) * time.Second
	cfg.Redis.SnapshotTTL = time.Duration(v.GetInt("REDIS_SNAPSHOT_TTL_SECONDS")) * time.Second

	// Load configuration from file if specified
	if path := v.GetString("CONFIG_FILE"); path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Propagate Kafka and Redis settings into the package defaults
	queue.SetBrokerList(cfg.Kafka.BrokerAddr)
	queue.SetTopic(cfg.Kafka.Topic)
	snapshot.SetDefaultRedisOptions(&snapshot.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return cfg, nil
}

// Validate checks the loaded configuration for obvious mistakes.
func (c *Config) Validate() error {
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("at least one feed symbol is required")
	}
	if c.Feed.Depth < 0 {
		return fmt.Errorf("book depth must be >= 0, got %d", c.Feed.Depth)
	}
	if c.Feed.BufferSize <= 0 {
		return fmt.Errorf("feed buffer size must be > 0, got %d", c.Feed.BufferSize)
	}
	switch c.Kafka.Publisher {
	case "", "kafka-go", "sarama":
	default:
		return fmt.Errorf("kafka publisher must be kafka-go or sarama, got %q", c.Kafka.Publisher)
	}
	return nil
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	return symbols
}
