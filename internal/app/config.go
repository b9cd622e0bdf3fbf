package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"coop-defense/server/internal/observability"
	"coop-defense/server/internal/room"
	"coop-defense/server/internal/telemetry"
)

// Config is the process configuration.
type Config struct {
	ListenAddr    string
	TickInterval  time.Duration
	ResumeGrace   time.Duration
	LogLevel      string
	LogFormat     string
	EventLogPath  string
	ClientDir     string
	Observability observability.Config

	// Logger overrides the logrus logger built from LogLevel and LogFormat.
	Logger telemetry.Logger
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:   ":8080",
		TickInterval: room.DefaultTickInterval,
		LogLevel:     "info",
	}
}

// LoadConfigFromEnv overlays environment variables on the defaults.
// Malformed values are reported through warn and the default is kept.
func LoadConfigFromEnv(lookup func(string) (string, bool), warn func(format string, args ...any)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}
	cfg := DefaultConfig()

	str := func(key string, dst *string) {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			*dst = strings.TrimSpace(raw)
		}
	}
	millis := func(key string, dst *time.Duration, allowZero bool) {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 || (value == 0 && !allowZero) {
			warn("invalid %s=%q, keeping %s", key, raw, *dst)
			return
		}
		*dst = time.Duration(value) * time.Millisecond
	}

	str("LISTEN_ADDR", &cfg.ListenAddr)
	millis("TICK_INTERVAL_MS", &cfg.TickInterval, false)
	millis("SESSION_RESUME_GRACE_MS", &cfg.ResumeGrace, true)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("EVENT_LOG_PATH", &cfg.EventLogPath)
	str("CLIENT_DIR", &cfg.ClientDir)

	if raw, ok := lookup("ENABLE_PPROF"); ok && raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Observability.EnablePprof = value
		} else {
			warn("invalid ENABLE_PPROF=%q: %v", raw, err)
		}
	}
	return cfg
}
