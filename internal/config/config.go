// Package config loads service configuration from an optional YAML file
// layered under environment variable overrides, the way a twelve-factor
// deployment expects: a checked-in file for defaults per environment,
// env vars for anything that varies by deployment target or secret.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the API server and worker need to start.
type Config struct {
	Port    string `yaml:"port"`
	AuthMode string `yaml:"authMode"`

	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`

	DefaultHeuristic   string  `yaml:"defaultHeuristic"`
	DefaultInit        string  `yaml:"defaultInit"`
	DefaultRegretCoeff float64 `yaml:"defaultRegretCoeff"`
	RunTimeoutMs       int     `yaml:"runTimeoutMs"`

	WebhookMaxAttempts int `yaml:"webhookMaxAttempts"`

	TraceEventsPerSecond float64 `yaml:"traceEventsPerSecond"`
	TraceBurst           int     `yaml:"traceBurst"`
}

// Default returns the configuration used when no file and no env vars
// are present: an in-memory store, dev auth, unthrottled-ish tracing.
func Default() Config {
	return Config{
		Port:                 "8080",
		AuthMode:             "dev",
		DefaultHeuristic:     "parallel",
		DefaultInit:          "nearest",
		DefaultRegretCoeff:   1.0,
		RunTimeoutMs:         30_000,
		WebhookMaxAttempts:   8,
		TraceEventsPerSecond: 20,
		TraceBurst:           5,
	}
}

// Load reads path (if it exists) over the defaults, then applies
// environment overrides. An empty or missing path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, err
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		c.AuthMode = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("CLUSTER_DEFAULT_HEURISTIC"); v != "" {
		c.DefaultHeuristic = v
	}
	if v := os.Getenv("CLUSTER_DEFAULT_INIT"); v != "" {
		c.DefaultInit = v
	}
	if v := os.Getenv("CLUSTER_REGRET_COEFF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.DefaultRegretCoeff = f
		}
	}
	if v := os.Getenv("CLUSTER_RUN_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RunTimeoutMs = n
		}
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WebhookMaxAttempts = n
		}
	}
	if v := os.Getenv("TRACE_EVENTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TraceEventsPerSecond = f
		}
	}
	if v := os.Getenv("TRACE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TraceBurst = n
		}
	}
}
