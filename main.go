package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cfilipov/harpoon/internal/config"
	"github.com/cfilipov/harpoon/internal/inventory"
	"github.com/cfilipov/harpoon/internal/locate"
)

// version is set at build time via -ldflags="-X main.version=..."
var version = "0.3.0"

const usage = `Usage: harpoon [flags] <provider> [provider flags] TARGET

TARGET is a container ID (full or short) or an image name.

Providers:
  hosts HOST... TARGET
  ansible [-i FILE] [-limit PATTERN] [-ask-vault-pass] [-vault-password-file FILE] TARGET

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("harpoon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	showVersion := fs.Bool("version", false, "Print the version and exit")

	cfg, err := config.Parse(fs, args)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "harpoon:", err)
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, "harpoon", version)
		return 0
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(log)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	provider, target, err := parseProvider(rest[0], rest[1:], stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "harpoon:", err)
		}
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hosts, err := provider.Hosts(ctx)
	if err != nil {
		log.Error("host list", "err", err)
		return 1
	}
	if len(hosts) == 0 {
		log.Warn("no hosts matched")
	}
	log.Debug("locating", "target", target, "kind", locate.Classify(target).String(), "hosts", len(hosts))

	reports := cfg.Locator(log).Locate(ctx, hosts, target)
	if len(reports) == 0 {
		fmt.Fprintln(stderr, locate.NotFound(target, locate.Classify(target), hosts))
		return 1
	}
	for _, r := range reports {
		fmt.Fprintln(stdout, r)
	}
	return 0
}

// parseProvider handles the provider subcommand. The last positional
// argument is always the lookup target.
func parseProvider(name string, args []string, stderr io.Writer) (inventory.Provider, string, error) {
	fs := flag.NewFlagSet("harpoon "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch name {
	case "hosts":
		if err := fs.Parse(args); err != nil {
			return nil, "", err
		}
		pos := fs.Args()
		if len(pos) < 2 {
			return nil, "", errors.New("hosts: need at least one host and a target")
		}
		return inventory.Static(pos[:len(pos)-1]), pos[len(pos)-1], nil

	case "ansible":
		flags := inventory.BindFlags(fs)
		if err := fs.Parse(args); err != nil {
			return nil, "", err
		}
		if fs.NArg() != 1 {
			return nil, "", errors.New("ansible: need exactly one target")
		}
		provider, err := flags.Provider(inventory.TerminalPrompt(stderr))
		if err != nil {
			return nil, "", err
		}
		return provider, fs.Arg(0), nil
	}
	return nil, "", fmt.Errorf("unknown provider %q", name)
}
