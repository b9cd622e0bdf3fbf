package app

import (
	"fmt"
	"testing"
	"time"
)

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg := LoadConfigFromEnv(envLookup(nil), nil)
	if cfg.ListenAddr != ":8080" || cfg.TickInterval != 100*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ResumeGrace != 0 || cfg.Observability.EnablePprof {
		t.Fatalf("expected resume grace and pprof off by default, got %+v", cfg)
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	cfg := LoadConfigFromEnv(envLookup(map[string]string{
		"LISTEN_ADDR":             "127.0.0.1:9000",
		"TICK_INTERVAL_MS":        "50",
		"SESSION_RESUME_GRACE_MS": "15000",
		"LOG_LEVEL":               "debug",
		"LOG_FORMAT":              "json",
		"EVENT_LOG_PATH":          "/tmp/events.ndjson",
		"ENABLE_PPROF":            "true",
		"CLIENT_DIR":              "../client",
	}), nil)

	if cfg.ListenAddr != "127.0.0.1:9000" || cfg.TickInterval != 50*time.Millisecond || cfg.ResumeGrace != 15*time.Second {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" || cfg.EventLogPath != "/tmp/events.ndjson" || cfg.ClientDir != "../client" {
		t.Fatalf("unexpected string overrides %+v", cfg)
	}
	if !cfg.Observability.EnablePprof {
		t.Fatalf("expected pprof enabled")
	}
}

func TestLoadConfigFromEnvKeepsDefaultsOnInvalidValues(t *testing.T) {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	cfg := LoadConfigFromEnv(envLookup(map[string]string{
		"TICK_INTERVAL_MS":        "0",
		"SESSION_RESUME_GRACE_MS": "-5",
		"ENABLE_PPROF":            "sometimes",
	}), warn)

	if cfg.TickInterval != 100*time.Millisecond || cfg.ResumeGrace != 0 || cfg.Observability.EnablePprof {
		t.Fatalf("expected defaults kept, got %+v", cfg)
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", warnings)
	}
}
