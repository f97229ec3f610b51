// Package config loads the dashboard configuration from configs/config.yml,
// an optional .env file and SENSOR_DASHBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // display.timezone must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sensor_dashboard/internal/models"
)

const envPrefix = "SENSOR_DASHBOARD"

// Config holds all configuration for the application.
type Config struct {
	Port      string
	LogLevel  string
	DBPath    string
	Telemetry TelemetryConfig
	Poll      PollConfig
	Command   CommandConfig
	Display   DisplayConfig
	MQTT      MQTTConfig
}

// TelemetryConfig describes the remote telemetry/actuator API.
type TelemetryConfig struct {
	BaseURL         string
	Timeout         time.Duration // 0 means the transport default (no timeout)
	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// PollConfig holds per-cycle cadences and the staleness policy.
type PollConfig struct {
	LatestInterval       time.Duration
	HistoryInterval      time.Duration
	EventCounterInterval time.Duration
	StatusInterval       time.Duration
	EventCounterEnabled  bool
	StalenessThreshold   int
}

// CommandConfig holds the reconciliation policy.
type CommandConfig struct {
	ReconcileTimeout int // reconciliation cycles before a pending command is dropped
}

// DisplayConfig controls how projections format timestamps and which metrics the dashboard charts.
type DisplayConfig struct {
	Location   *time.Location
	TimeLayout string
	Metrics    []models.Metric
}

// MQTTConfig enables publishing operator notices to a broker. Empty Broker disables it.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

// setDefaults registers every default: 10s cadence, Bangkok time.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "app.db")

	v.SetDefault("telemetry.base_url", "http://localhost:3000")
	v.SetDefault("telemetry.timeout", "0s")
	v.SetDefault("telemetry.breaker.failures", 5)
	v.SetDefault("telemetry.breaker.open_for", "30s")

	v.SetDefault("poll.interval", "10s")
	v.SetDefault("poll.staleness_threshold", 3)
	v.SetDefault("poll.event_counter.enabled", true)

	v.SetDefault("command.reconcile_timeout", 2)

	v.SetDefault("display.timezone", "Asia/Bangkok")
	v.SetDefault("display.time_layout", "2/1/2006 15:04")
	v.SetDefault("display.metrics", []string{"ldr", "vr", "temp", "distance"})

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "sensor-dashboard/notices")
	v.SetDefault("mqtt.client_id", "sensor-dashboard")
}

// Load reads configuration from the given directories (configs/ when none are given).
// A missing config file is not an error; defaults and environment variables apply.
func Load(paths ...string) (*Config, error) {
	// .env is optional; environment variables already set take precedence.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	base := v.GetDuration("poll.interval")
	cycle := func(name string) time.Duration {
		if key := "poll." + name + ".interval"; v.IsSet(key) {
			return v.GetDuration(key)
		}
		return base
	}

	loc, err := time.LoadLocation(v.GetString("display.timezone"))
	if err != nil {
		return nil, fmt.Errorf("load display.timezone: %w", err)
	}

	metrics, err := models.ParseMetrics(v.GetStringSlice("display.metrics"))
	if err != nil {
		return nil, fmt.Errorf("parse display.metrics: %w", err)
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log.level"),
		DBPath:   v.GetString("db.path"),
		Telemetry: TelemetryConfig{
			BaseURL:         strings.TrimRight(v.GetString("telemetry.base_url"), "/"),
			Timeout:         v.GetDuration("telemetry.timeout"),
			BreakerFailures: v.GetInt("telemetry.breaker.failures"),
			BreakerOpenFor:  v.GetDuration("telemetry.breaker.open_for"),
		},
		Poll: PollConfig{
			LatestInterval:       cycle("latest"),
			HistoryInterval:      cycle("history"),
			EventCounterInterval: cycle("event_counter"),
			StatusInterval:       cycle("device_status"),
			EventCounterEnabled:  v.GetBool("poll.event_counter.enabled"),
			StalenessThreshold:   v.GetInt("poll.staleness_threshold"),
		},
		Command: CommandConfig{
			ReconcileTimeout: v.GetInt("command.reconcile_timeout"),
		},
		Display: DisplayConfig{
			Location:   loc,
			TimeLayout: v.GetString("display.time_layout"),
			Metrics:    metrics,
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString("mqtt.broker"),
			Topic:    v.GetString("mqtt.topic"),
			ClientID: v.GetString("mqtt.client_id"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks the invariants the poller and command channel rely on.
func (c *Config) Validate() error {
	if c.Telemetry.BaseURL == "" {
		return errors.New("telemetry.base_url is required")
	}
	for name, d := range map[string]time.Duration{
		"latest":        c.Poll.LatestInterval,
		"history":       c.Poll.HistoryInterval,
		"event_counter": c.Poll.EventCounterInterval,
		"device_status": c.Poll.StatusInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("poll.%s.interval must be positive, got %v", name, d)
		}
	}
	if c.Poll.StalenessThreshold < 1 {
		return fmt.Errorf("poll.staleness_threshold must be >= 1, got %d", c.Poll.StalenessThreshold)
	}
	if c.Command.ReconcileTimeout < 1 {
		return fmt.Errorf("command.reconcile_timeout must be >= 1, got %d", c.Command.ReconcileTimeout)
	}
	if len(c.Display.Metrics) == 0 {
		return errors.New("display.metrics must list at least one metric")
	}
	return nil
}
