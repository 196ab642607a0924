// Command fake-daemon serves one host of a fleet fixture as a Docker Engine
// API endpoint, for trying harpoon without real daemons.
//
// Usage:
//
//	fake-daemon -fixture fleet.yaml -host web-1 -listen 127.0.0.1:2375
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cfilipov/harpoon/internal/docker"
)

func main() {
	var (
		fixturePath string
		host        string
		listen      string
		logLevel    string
	)

	flag.StringVar(&fixturePath, "fixture", "fleet.yaml", "Fleet fixture file")
	flag.StringVar(&host, "host", "", "Host in the fleet to serve")
	flag.StringVar(&listen, "listen", "127.0.0.1:2375", "TCP listen address")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	})))

	fleet, err := docker.LoadFleet(fixturePath)
	if err != nil {
		slog.Error("load fixture", "err", err)
		os.Exit(1)
	}
	fx, ok := fleet.Hosts[host]
	if !ok {
		slog.Error("host not in fixture", "host", host, "hosts", strings.Join(fleet.HostNames(), ", "))
		os.Exit(1)
	}

	addr, cleanup, err := docker.StartFakeDaemon(fx, listen)
	if err != nil {
		slog.Error("start fake daemon", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	// Print the bound address so parent processes can discover it
	fmt.Println(addr)

	slog.Info("fake daemon started",
		"host", host,
		"addr", addr,
		"containers", len(fx.Containers),
		"images", len(fx.Images),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("fake daemon shutting down")
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
