package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cfilipov/harpoon/internal/docker"
	"github.com/cfilipov/harpoon/internal/locate"
)

// Config holds the settings shared by the harpoon commands.
type Config struct {
	Parallelism int           // Hosts queried at once
	Timeout     time.Duration // Per-host request timeout
	DockerPort  int           // Daemon TCP port on every host
	APIVersion  string        // Pinned Engine API version
	LogLevel    slog.Level    // Parsed log level (debug, info, warn, error)

	logLevel string
}

// Bind registers the shared flags on fs. Call Resolve after fs.Parse.
func Bind(fs *flag.FlagSet) *Config {
	cfg := &Config{}
	fs.IntVar(&cfg.Parallelism, "parallelism", locate.DefaultParallelism, "Number of hosts queried in parallel")
	fs.DurationVar(&cfg.Timeout, "timeout", docker.DefaultTimeout, "Per-host request timeout")
	fs.IntVar(&cfg.DockerPort, "docker-port", docker.DefaultPort, "Docker daemon TCP port on each host")
	fs.StringVar(&cfg.APIVersion, "api-version", docker.DefaultAPIVersion, "Docker Engine API version")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cfg
}

// Resolve applies environment overrides and validates the result.
func (cfg *Config) Resolve() error {
	// Env vars override flags (if set)
	if v := os.Getenv("HARPOON_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parallelism = n
		}
	}
	if v := os.Getenv("HARPOON_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("HARPOON_DOCKER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.DockerPort = p
		}
	}
	if v := os.Getenv("HARPOON_API_VERSION"); v != "" {
		cfg.APIVersion = v
	}
	if v := os.Getenv("HARPOON_LOG_LEVEL"); v != "" {
		cfg.logLevel = v
	}

	cfg.LogLevel = parseLogLevel(cfg.logLevel)
	return cfg.validate()
}

// Parse binds the shared flags, parses args and resolves the result.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	var errs []error
	if cfg.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", cfg.Parallelism))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout))
	}
	if cfg.DockerPort < 1 || cfg.DockerPort > 65535 {
		errs = append(errs, fmt.Errorf("docker port out of range: %d", cfg.DockerPort))
	}
	if cfg.APIVersion == "" {
		errs = append(errs, errors.New("api version must not be empty"))
	}
	return errors.Join(errs...)
}

// DialOptions returns the options for docker.NewDialer.
func (cfg *Config) DialOptions() docker.DialOptions {
	return docker.DialOptions{
		Port:       cfg.DockerPort,
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.Timeout,
	}
}

// Locator returns a Locator dialing the fleet with these settings.
func (cfg *Config) Locator(log *slog.Logger) *locate.Locator {
	return &locate.Locator{
		Dial:        docker.NewDialer(cfg.DialOptions()),
		Log:         log,
		Parallelism: cfg.Parallelism,
		Timeout:     cfg.Timeout,
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
