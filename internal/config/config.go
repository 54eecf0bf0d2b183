package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the service settings.
type Config struct {
	Addr               string        `yaml:"addr"`
	ServiceName        string        `yaml:"service_name"`
	LogLevel           string        `yaml:"log_level"`
	Telemetry          bool          `yaml:"telemetry"`
	MaxSessions        int           `yaml:"max_sessions"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ServiceName:        "calculator-api",
		LogLevel:           "info",
		Telemetry:          true,
		MaxSessions:        1024,
		SessionIdleTimeout: 30 * time.Minute,
		SweepInterval:      time.Minute,
		ShutdownTimeout:    5 * time.Second,
	}
}

// LoadDotEnv loads environment variables from path (".env" when empty) if
// the file exists. Variables already set in the process are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("CALC_ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup("OTEL_SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
	}
	if v, ok := lookup("CALC_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("CALC_TELEMETRY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CALC_TELEMETRY: %w", err)
		}
		cfg.Telemetry = b
	}
	if v, ok := lookup("CALC_MAX_SESSIONS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CALC_MAX_SESSIONS: %w", err)
		}
		cfg.MaxSessions = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CALC_SESSION_IDLE_TIMEOUT", &cfg.SessionIdleTimeout},
		{"CALC_SWEEP_INTERVAL", &cfg.SweepInterval},
		{"CALC_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr is required")
	case c.MaxSessions <= 0:
		return fmt.Errorf("max_sessions must be positive, got %d", c.MaxSessions)
	case c.SessionIdleTimeout <= 0:
		return fmt.Errorf("session_idle_timeout must be positive, got %s", c.SessionIdleTimeout)
	case c.SweepInterval <= 0:
		return fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
