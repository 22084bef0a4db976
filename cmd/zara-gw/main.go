package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zarahq/zara-gw/internal/config"
	"github.com/zarahq/zara-gw/internal/events"
	"github.com/zarahq/zara-gw/internal/log"
	"github.com/zarahq/zara-gw/internal/publish"
	"github.com/zarahq/zara-gw/internal/server"
	"github.com/zarahq/zara-gw/internal/signature"
	"github.com/zarahq/zara-gw/internal/storage"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "start":
		return runStart(args)
	case "config":
		return runConfigNoun(args)
	case "version", "--version":
		fmt.Printf("zara-gw %s\ncommit: %s\n", version, gitCommit)
		return 0
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`zara-gw - Webhook ingestion gateway

Usage:
  zara-gw <command> [flags]

Commands:
  start             Start the gateway service in foreground
  config check      Validate configuration syntax and integrity
  config lock       Authorize current config state (update integrity hashes)
  version           Show version information
  help              Show this help message
`)
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: zara-gw config <check|lock> [--config PATH]")
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		return runConfigCheck(actionArgs)
	case "lock":
		return runConfigLock(actionArgs)
	case "help", "--help", "-h":
		fmt.Println("Usage: zara-gw config <check|lock> [--config PATH]")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration check FAILED: %v\n", err)
		return 1
	}

	fmt.Println("Configuration check PASSED.")
	fmt.Printf("  service: %s\n", cfg.Service.Name)
	fmt.Printf("  listen:  %s\n", cfg.Server.Listen)
	fmt.Printf("  queue:   %s\n", cfg.Queue.Driver)
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if err := config.GenerateChecksums(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to update integrity hashes: %v\n", err)
		return 1
	}

	fmt.Println("Integrity hashes updated.")
	return 0
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("zara-gw starting", "version", version, "config", *configPath)

	maxBodySize, err := config.ParseMaxBodySize(cfg.Server.MaxBodySize)
	if err != nil {
		logger.Error("invalid max_body_size", "value", cfg.Server.MaxBodySize, "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher, cleanup, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize queue publisher", "driver", cfg.Queue.Driver, "error", err)
		return 1
	}
	defer cleanup()
	logger.Info("queue publisher ready", "driver", cfg.Queue.Driver)

	verifier := signature.NewSlackVerifier(cfg.Slack.SigningSecret, cfg.Slack.Strict)
	if cfg.Slack.SigningSecret == "" {
		logger.Warn("slack signing secret not configured, signature verification disabled")
	}

	hub := events.NewHub(256)

	srv := server.New(server.Config{
		Listen:      cfg.Server.Listen,
		ServiceName: cfg.Service.Name,
		MaxBodySize: maxBodySize,
		EventsToken: cfg.Server.EventsToken,
		UsageText:   cfg.Slack.UsageText,
	}, publisher, verifier, hub, log.WithComponent("server"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Start(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()

	logger.Info("zara-gw running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		<-done
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("zara-gw stopped")
	return 0
}

// buildPublisher constructs the queue publisher for the configured driver.
// The returned cleanup closes whatever handle the driver holds.
func buildPublisher(ctx context.Context, cfg *config.Config) (publish.Publisher, func(), error) {
	switch cfg.Queue.Driver {
	case "redis":
		pub, err := publish.NewRedisPublisher(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.PublishTimeout)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() { pub.Close() }, nil
	case "sqlite":
		db, err := storage.OpenSQLite(ctx, cfg.Queue.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		pub, err := publish.NewOutboxPublisher(db, cfg.Queue.PublishTimeout)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return pub, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
	}
}
