package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/goofcode/just-start-server/internal/infrastructure/config"
	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/server"
)

func main() {
	workspace := flag.String("workspace", "", "workspace root (overrides JSS_WORKSPACE_ROOT)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *workspace != "" {
		cfg.Workspace.Root = *workspace
	}
	if cfg.Workspace.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Workspace.Root = wd
		}
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal("assembling server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
