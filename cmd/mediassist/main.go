package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wolfman30/mediassist/internal/app"
	appconfig "github.com/wolfman30/mediassist/internal/config"
	"github.com/wolfman30/mediassist/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	// Logs go to stderr so they never interleave with the chat on stdout.
	logger := logging.NewWithWriter(cfg.LogLevel, os.Stderr)
	logger.Info("starting mediassist", "env", cfg.Env, "provider", cfg.LLMProvider, "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newSyncWriter(os.Stdout)
	a, err := app.Build(ctx, cfg, logger, app.WithDispatcher(newTerminalDispatcher(out)))
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	sh := newShell(a, os.Stdin, out)
	if err := sh.run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
