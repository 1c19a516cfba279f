// Package main starts the browser front end of the inventory client,
// setting up configuration, logging, the state store, the API client and
// the HTTP server.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/app"
	"github.com/atinyakov/stockroom/internal/config"
	"github.com/atinyakov/stockroom/internal/logger"
	"github.com/atinyakov/stockroom/internal/server/handler/http"
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

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the state store and build the workspace.
	client, err := app.New(options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot start client", zap.Error(err))
	}
	defer func() { _ = client.Close() }()

	// Restore a persisted session before serving the first page.
	client.Workspace.Start(ctx)

	pages, err := http.NewPageHandler(client.Workspace, logger.Named(zapLogger, "pages"))
	if err != nil {
		zapLogger.Fatal("cannot load templates", zap.Error(err))
	}
	router := http.NewRouter(pages, logger.Named(zapLogger, "http"))

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting browser UI", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
