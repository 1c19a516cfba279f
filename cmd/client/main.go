// Package main starts the interactive inventory shell: it reads the
// configuration, restores a persisted session and runs the command loop.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/app"
	"github.com/atinyakov/stockroom/internal/client/shell"
	"github.com/atinyakov/stockroom/internal/config"
	"github.com/atinyakov/stockroom/internal/logger"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	fmt.Printf("Stockroom client %s (built %s)\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))

	// Initialize structured logging; logs go to stderr so the shell keeps stdout.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := app.New(options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot start client", zap.Error(err))
	}
	defer func() {
		if err := client.Close(); err != nil {
			zapLogger.Warn("failed to close state store", zap.Error(err))
		}
	}()

	client.Workspace.Start(ctx)
	shell.New(client.Workspace, os.Stdin, os.Stdout, logger.Named(zapLogger, "shell")).Run(ctx)
}
