package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		AllowedOrigins  []string      `yaml:"allowed_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregated error shipping over kafka; needs kafka.enabled.
		Collect struct {
			Enabled        bool          `yaml:"enabled"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
			Topic          string        `yaml:"topic" default:"stockoracle.logs"`
		} `yaml:"collect"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Oracle struct {
		BaseURL  string        `yaml:"base_url" default:"http://127.0.0.1:8000/api"`
		Timeout  time.Duration `yaml:"timeout" default:"15s"`
		Rate     float64       `yaml:"rate" default:"10"`  // requests per second
		Burst    float64       `yaml:"burst" default:"20"` // bucket capacity
		CacheTTL struct {
			History  time.Duration `yaml:"history" default:"1m"`
			News     time.Duration `yaml:"news" default:"5m"`
			Validate time.Duration `yaml:"validate" default:"1h"`
		} `yaml:"cache_ttl"`
	} `yaml:"oracle"`
	Chart struct {
		DefaultRange   string `yaml:"default_range" default:"1W"`
		ForecastDays   int    `yaml:"forecast_days" default:"30"`
		AccuracySource string `yaml:"accuracy_source" default:"remote"` // remote or local
	} `yaml:"chart"`
	Dashboard struct {
		Tickers       []string `yaml:"tickers" default:"[\"RDDT\",\"AAPL\",\"TQQQ\",\"NVDA\",\"GOOG\",\"SPY\"]"`
		HistoryPeriod string   `yaml:"history_period" default:"1mo"`
		ForecastDays  int      `yaml:"forecast_days" default:"5"`
		Concurrency   int      `yaml:"concurrency" default:"4"`
	} `yaml:"dashboard"`
	Alerts struct {
		Backend          string  `yaml:"backend" default:"rest"` // rest or redis
		DefaultThreshold float64 `yaml:"default_threshold" default:"15"`
		Topic            string  `yaml:"topic" default:"stockoracle.alerts"`
	} `yaml:"alerts"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"stockoracle"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID  string `yaml:"group_id" default:"stockoracle-bands"`
			MinBytes int    `yaml:"min_bytes" default:"1"`
			MaxBytes int    `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockoracle"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration made only of tag defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Dashboard.Tickers = splitList(v)
	}
	if v := os.Getenv("ALERTS_BACKEND"); v != "" {
		c.Alerts.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	if c.Chart.ForecastDays <= 0 || c.Dashboard.ForecastDays <= 0 {
		return fmt.Errorf("forecast_days must be positive")
	}
	if c.Dashboard.Concurrency <= 0 {
		return fmt.Errorf("dashboard.concurrency must be positive, got %d", c.Dashboard.Concurrency)
	}
	switch c.Alerts.Backend {
	case "rest":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("alerts.backend 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("alerts.backend must be 'rest' or 'redis', got '%s'", c.Alerts.Backend)
	}
	if c.Alerts.DefaultThreshold < 0 {
		return fmt.Errorf("alerts.default_threshold cannot be negative")
	}
	switch c.Chart.AccuracySource {
	case "remote":
	case "local":
		if !c.ClickHouse.Enabled {
			return fmt.Errorf("chart.accuracy_source 'local' requires clickhouse.enabled")
		}
	default:
		return fmt.Errorf("chart.accuracy_source must be 'remote' or 'local', got '%s'", c.Chart.AccuracySource)
	}
	if c.Log.Collect.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collect requires kafka.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	return nil
}
