// Copyright 2025 James Ross
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment is the deployment environment the API is running under.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

type API struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Env    string `mapstructure:"env"`
	Prefix string `mapstructure:"prefix"`
}

type Redis struct {
	URL                string        `mapstructure:"url"`
	MaxConnections     int           `mapstructure:"max_connections"`
	DialTimeout        time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

type RateLimit struct {
	Enabled bool `mapstructure:"enabled"`
}

type Worker struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Count        int           `mapstructure:"count"`
}

type CircuitBreaker struct {
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	Window           time.Duration `mapstructure:"window"`
	CooldownPeriod   time.Duration `mapstructure:"cooldown_period"`
	MinSamples       int           `mapstructure:"min_samples"`
}

type Admission struct {
	// MaxInflight caps server-wide admitted requests per second (a token
	// bucket whose burst is the same value). Zero disables the bound
	// (default).
	MaxInflight int `mapstructure:"max_inflight"`
}

type Observability struct {
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
	AuditLogPath string `mapstructure:"audit_log_path"`
}

type Dashboard struct {
	PushInterval time.Duration `mapstructure:"push_interval"`
}

// Janitor governs the periodic sweep that prunes the in-process fallback
// store, which has no native key TTL the way Redis does.
type Janitor struct {
	Schedule    string        `mapstructure:"schedule"`
	MaxWindowAge time.Duration `mapstructure:"max_window_age"`
}

type Config struct {
	API            API            `mapstructure:"api"`
	Redis          Redis          `mapstructure:"redis"`
	RateLimit      RateLimit      `mapstructure:"rate_limit"`
	Worker         Worker         `mapstructure:"worker"`
	CircuitBreaker CircuitBreaker `mapstructure:"circuit_breaker"`
	Admission      Admission      `mapstructure:"admission"`
	Observability  Observability  `mapstructure:"observability"`
	Dashboard      Dashboard      `mapstructure:"dashboard"`
	Janitor        Janitor        `mapstructure:"janitor"`
}

func defaultConfig() *Config {
	return &Config{
		API: API{
			Host:   "0.0.0.0",
			Port:   8000,
			Env:    string(EnvDevelopment),
			Prefix: "/v1",
		},
		Redis: Redis{
			URL:            "redis://localhost:6379/0",
			MaxConnections: 100,
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			MaxRetries:     3,
		},
		RateLimit: RateLimit{Enabled: true},
		Worker: Worker{
			Enabled:      true,
			PollInterval: 500 * time.Millisecond,
			Count:        1,
		},
		CircuitBreaker: CircuitBreaker{
			FailureThreshold: 0.5,
			Window:           1 * time.Minute,
			CooldownPeriod:   30 * time.Second,
			MinSamples:       10,
		},
		Admission: Admission{MaxInflight: 0},
		Observability: Observability{
			MetricsPort:  9090,
			LogLevel:     "info",
			AuditLogPath: "./logs/audit.log",
		},
		Dashboard: Dashboard{PushInterval: 1 * time.Second},
		Janitor: Janitor{
			Schedule:     "@every 5m",
			MaxWindowAge: 10 * time.Minute,
		},
	}
}

// Load reads configuration from a YAML file plus environment overrides.
// Env vars follow the spec's naming: API_HOST, API_PORT, API_ENV,
// API_PREFIX, REDIS_URL, REDIS_MAX_CONNECTIONS, RATE_LIMIT_ENABLED,
// WORKER_ENABLED, WORKER_POLL_INTERVAL.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("api.host", def.API.Host)
	v.SetDefault("api.port", def.API.Port)
	v.SetDefault("api.env", def.API.Env)
	v.SetDefault("api.prefix", def.API.Prefix)

	v.SetDefault("redis.url", def.Redis.URL)
	v.SetDefault("redis.max_connections", def.Redis.MaxConnections)
	v.SetDefault("redis.dial_timeout", def.Redis.DialTimeout)
	v.SetDefault("redis.read_timeout", def.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", def.Redis.WriteTimeout)
	v.SetDefault("redis.max_retries", def.Redis.MaxRetries)

	v.SetDefault("rate_limit.enabled", def.RateLimit.Enabled)

	v.SetDefault("worker.enabled", def.Worker.Enabled)
	v.SetDefault("worker.poll_interval", def.Worker.PollInterval)
	v.SetDefault("worker.count", def.Worker.Count)

	v.SetDefault("circuit_breaker.failure_threshold", def.CircuitBreaker.FailureThreshold)
	v.SetDefault("circuit_breaker.window", def.CircuitBreaker.Window)
	v.SetDefault("circuit_breaker.cooldown_period", def.CircuitBreaker.CooldownPeriod)
	v.SetDefault("circuit_breaker.min_samples", def.CircuitBreaker.MinSamples)

	v.SetDefault("admission.max_inflight", def.Admission.MaxInflight)

	v.SetDefault("observability.metrics_port", def.Observability.MetricsPort)
	v.SetDefault("observability.log_level", def.Observability.LogLevel)
	v.SetDefault("observability.audit_log_path", def.Observability.AuditLogPath)

	v.SetDefault("dashboard.push_interval", def.Dashboard.PushInterval)

	v.SetDefault("janitor.schedule", def.Janitor.Schedule)
	v.SetDefault("janitor.max_window_age", def.Janitor.MaxWindowAge)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config constraints and returns an error on invalid settings.
func Validate(cfg *Config) error {
	if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be 1..65535")
	}
	if cfg.Worker.Count < 1 {
		return fmt.Errorf("worker.count must be >= 1")
	}
	if cfg.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker.poll_interval must be > 0")
	}
	if cfg.Admission.MaxInflight < 0 {
		return fmt.Errorf("admission.max_inflight must be >= 0")
	}
	if cfg.Observability.MetricsPort <= 0 || cfg.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be 1..65535")
	}
	return nil
}
