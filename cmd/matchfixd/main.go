// Command matchfixd runs the matching engine process: it loads
// configuration, wires the engine, and tears down cleanly on SIGINT
// (spec.md §4.6, SPEC_FULL §4.6 expansion).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/matchfix/internal/config"
	"github.com/abdoElHodaky/matchfix/internal/engine"
	"github.com/abdoElHodaky/matchfix/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML/JSON/TOML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "matchfixd: config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "matchfixd: logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	eng := engine.New(cfg, logger)
	if err := eng.Start(); err != nil {
		logger.Fatal("failed to start engine", zap.Error(err))
	}

	var shutdownRequested atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		shutdownRequested.Store(true)
	}()

	for !shutdownRequested.Load() {
		time.Sleep(200 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := eng.Stop(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
		os.Exit(1)
	}
}
