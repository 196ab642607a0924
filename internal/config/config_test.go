package config

import (
	"flag"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("harpoon", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Parallelism != 5 {
		t.Errorf("Parallelism = %d, want 5", cfg.Parallelism)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if cfg.DockerPort != 2375 || cfg.APIVersion != "1.41" {
		t.Errorf("unexpected docker settings: %d %s", cfg.DockerPort, cfg.APIVersion)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
}

func TestParse_Flags(t *testing.T) {
	fs := newFlagSet()
	cfg, err := Parse(fs, []string{"-parallelism", "12", "-timeout", "3s", "-log-level", "debug", "hosts", "a", "b"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Parallelism != 12 || cfg.Timeout != 3*time.Second || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if got := strings.Join(fs.Args(), " "); got != "hosts a b" {
		t.Errorf("remaining args = %q", got)
	}
}

func TestParse_EnvOverridesFlags(t *testing.T) {
	t.Setenv("HARPOON_PARALLELISM", "8")
	t.Setenv("HARPOON_TIMEOUT", "750ms")
	t.Setenv("HARPOON_DOCKER_PORT", "12375")
	t.Setenv("HARPOON_API_VERSION", "1.44")
	t.Setenv("HARPOON_LOG_LEVEL", "ERROR")

	cfg, err := Parse(newFlagSet(), []string{"-parallelism", "2"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	opts := cfg.DialOptions()
	if cfg.Parallelism != 8 || opts.Timeout != 750*time.Millisecond || opts.Port != 12375 || opts.APIVersion != "1.44" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelError {
		t.Errorf("LogLevel = %v, want error", cfg.LogLevel)
	}
}

func TestParse_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("HARPOON_PARALLELISM", "many")
	cfg, err := Parse(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Parallelism != 5 {
		t.Errorf("Parallelism = %d, want default", cfg.Parallelism)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero parallelism", []string{"-parallelism", "0"}},
		{"negative timeout", []string{"-timeout", "-1s"}},
		{"zero timeout", []string{"-timeout", "0"}},
		{"bad port", []string{"-docker-port", "70000"}},
		{"empty version", []string{"-api-version", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(newFlagSet(), tt.args); err == nil {
				t.Errorf("expected validation error for %v", tt.args)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" Warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLocator(t *testing.T) {
	t.Parallel()
	cfg := &Config{Parallelism: 3, Timeout: time.Second, DockerPort: 2375, APIVersion: "1.41"}
	loc := cfg.Locator(nil)
	if loc.Parallelism != 3 || loc.Timeout != time.Second || loc.Dial == nil {
		t.Errorf("unexpected locator %+v", loc)
	}
}
