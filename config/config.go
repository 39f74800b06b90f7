// Package config parses the environment-variable contract spec.md §6
// names as informational for any façade built on top of the core
// (`POLL_INTERVAL_MS`, `WRITE_TIMEOUT_MS`, `AUTH_USER`, `AUTH_PASS`,
// `CORS_ORIGINS_JSON`, `DEBUG`) into a Config. The core itself
// never reads the environment directly; only this package does, the same
// way the teacher's cmd/controller/main.go reads os.Getenv/flag at its one
// entry point rather than scattering env lookups through library code.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// BasicAuth is the optional HTTP basic-auth credential pair a façade may
// enforce; the core itself never checks it.
type BasicAuth struct {
	User string
	Pass string
}

// Config is the library surface's construction parameter (spec.md §6).
type Config struct {
	PollInterval time.Duration
	WriteTimeout time.Duration
	DefaultDwell time.Duration
	Auth         *BasicAuth
	CORSOrigins  []string
	LogLevel     slog.Level
}

// FromEnv reads POLL_INTERVAL_MS, WRITE_TIMEOUT_MS, AUTH_USER, AUTH_PASS,
// CORS_ORIGINS_JSON, and DEBUG, falling back to the core's defaults for
// anything unset or empty. A malformed numeric or JSON value is reported
// as an error rather than silently ignored.
func FromEnv() (Config, error) {
	cfg := Config{
		PollInterval: 1 * time.Second,
		WriteTimeout: 100 * time.Millisecond,
		DefaultDwell: 250 * time.Millisecond,
		LogLevel:     slog.LevelInfo,
	}

	if v, ok := os.LookupEnv("POLL_INTERVAL_MS"); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: POLL_INTERVAL_MS: %w", err)
		}
		cfg.PollInterval = time.Duration(ms) * time.Millisecond
	}
	if v, ok := os.LookupEnv("WRITE_TIMEOUT_MS"); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: WRITE_TIMEOUT_MS: %w", err)
		}
		cfg.WriteTimeout = time.Duration(ms) * time.Millisecond
	}

	user, hasUser := os.LookupEnv("AUTH_USER")
	pass, hasPass := os.LookupEnv("AUTH_PASS")
	if hasUser || hasPass {
		cfg.Auth = &BasicAuth{User: user, Pass: pass}
	}

	if v, ok := os.LookupEnv("CORS_ORIGINS_JSON"); ok && v != "" {
		var origins []string
		if err := json.Unmarshal([]byte(v), &origins); err != nil {
			return Config{}, fmt.Errorf("config: CORS_ORIGINS_JSON: %w", err)
		}
		cfg.CORSOrigins = origins
	}

	if v, ok := os.LookupEnv("DEBUG"); ok {
		if debug, err := strconv.ParseBool(v); err == nil && debug {
			cfg.LogLevel = slog.LevelDebug
		}
	}

	return cfg, nil
}
