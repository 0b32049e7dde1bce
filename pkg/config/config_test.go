package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "http://127.0.0.1:8000/api", c.Oracle.BaseURL)
	assert.Equal(t, []string{"RDDT", "AAPL", "TQQQ", "NVDA", "GOOG", "SPY"}, c.Dashboard.Tickers)
	assert.Equal(t, "1W", c.Chart.DefaultRange)
	assert.Equal(t, 30, c.Chart.ForecastDays)
	assert.Equal(t, 5, c.Dashboard.ForecastDays)
	assert.Equal(t, "1mo", c.Dashboard.HistoryPeriod)
	assert.Equal(t, 15.0, c.Alerts.DefaultThreshold)
	assert.Equal(t, time.Minute, c.Oracle.CacheTTL.History)
	assert.True(t, c.Metrics.Enabled)
	assert.NoError(t, c.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
metrics:
  enabled: false
oracle:
  base_url: http://oracle:8000/api
dashboard:
  tickers: [MSFT]
redis:
  enabled: true
alerts:
  backend: redis
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.False(t, c.Metrics.Enabled)
	assert.Equal(t, "http://oracle:8000/api", c.Oracle.BaseURL)
	assert.Equal(t, []string{"MSFT"}, c.Dashboard.Tickers)
	assert.Equal(t, "redis", c.Alerts.Backend)
	// untouched keys keep defaults
	assert.Equal(t, 8080, c.Server.Port)
}

func TestLoadWithEnv(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("TICKERS", "aapl, nvda,,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PORT", "9090")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"aapl", "nvda"}, c.Dashboard.Tickers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"redis backend without redis", func(c *Config) { c.Alerts.Backend = "redis" }},
		{"unknown backend", func(c *Config) { c.Alerts.Backend = "file" }},
		{"local accuracy without clickhouse", func(c *Config) { c.Chart.AccuracySource = "local" }},
		{"zero forecast horizon", func(c *Config) { c.Chart.ForecastDays = 0 }},
		{"negative threshold", func(c *Config) { c.Alerts.DefaultThreshold = -1 }},
		{"log collection without kafka", func(c *Config) { c.Log.Collect.Enabled = true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Default()
			require.NoError(t, err)
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
