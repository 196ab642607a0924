// Command harpoon-bot serves a websocket chat room and answers
// "harpoon <target>" lookups posted to it.
//
// Usage:
//
//	harpoon-bot -listen :5080 -nick harpoon -i /etc/ansible/hosts -limit web
//	harpoon-bot -hosts web-1.lan,web-2.lan
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cfilipov/harpoon/internal/bot"
	"github.com/cfilipov/harpoon/internal/config"
	"github.com/cfilipov/harpoon/internal/inventory"
)

func main() {
	fs := flag.NewFlagSet("harpoon-bot", flag.ExitOnError)
	cfg := config.Bind(fs)
	invFlags := inventory.BindFlags(fs)
	var (
		listen   string
		nick     string
		hostList string
	)
	fs.StringVar(&listen, "listen", ":5080", "HTTP listen address")
	fs.StringVar(&nick, "nick", "harpoon", "Nickname the bot posts as")
	fs.StringVar(&hostList, "hosts", "", "Comma-separated host list (instead of an inventory)")
	fs.Parse(os.Args[1:])

	if v := os.Getenv("HARPOON_NICKNAME"); v != "" {
		nick = v
	}
	if err := cfg.Resolve(); err != nil {
		fmt.Fprintln(os.Stderr, "harpoon-bot:", err)
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var hosts inventory.Provider
	if hostList != "" {
		hosts = inventory.Static(strings.Split(hostList, ","))
	} else {
		src, err := invFlags.Provider(inventory.TerminalPrompt(os.Stderr))
		if err != nil {
			slog.Error("inventory", "err", err)
			os.Exit(1)
		}
		cached, err := inventory.NewCached(ctx, src)
		if err != nil {
			slog.Error("inventory", "err", err)
			os.Exit(1)
		}
		if err := bot.WatchInventory(ctx, src.Path, cached, slog.Default()); err != nil {
			slog.Warn("inventory watcher failed to start", "err", err)
		}
		hosts = cached
	}

	b := bot.New(nick, hosts, cfg.Locator(slog.Default()), slog.Default())

	srv := &http.Server{
		Addr:              listen,
		Handler:           b.Handler(ctx),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", listen, "nick", nick)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down")
	b.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
