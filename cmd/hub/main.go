package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"partner-hub/auth"
	"partner-hub/infrastructure/httpapi"
	"partner-hub/infrastructure/ws"
	"partner-hub/internal"
	"partner-hub/observability"
	"partner-hub/runtime"
	"partner-hub/runtime/workers"
	"partner-hub/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hub terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	// A local .env is optional; deployments inject the environment directly.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config validation error: %w", err)
	}

	logger := newLogger(config.LogLevel)

	// 2. Core hub wiring
	monitor := observability.NewHubMonitor()
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(logger, registry, monitor, config.PresenceBufferSize)
	hubService := services.NewHubService(dispatcher, registry, monitor)
	tokens := auth.NewTokenManager(config.AuthSecret, config.AuthTokenDuration)

	// 3. Supervision: presence fanout and telemetry run under the
	// supervisor so a panic in either never takes the hub down.
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewPresenceFanout(logger, registry, monitor, dispatcher.PresenceEvents()),
		workers.NewTelemetryWorker(logger, config.MetricInterval, monitor),
	)

	// 4. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting workers...")
		sup.Run(ctx)
	}()

	// 5. HTTP Server Setup (websocket upgrade + internal dispatch API)
	wsHandler := ws.NewHandler(logger, hubService, tokens,
		config.ConnectionBufferSize, config.DeliveryTimeout,
		config.WriteTimeout, config.PongTimeout)
	api := httpapi.NewServer(logger, hubService)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: api.Router(config.Origins(), wsHandler),
	}

	// Use an error channel to capture ListenAndServe() issues asynchronously.
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Final Cleanup (Graceful Shutdown)
	// Active sockets get the shutdown window to flush; workers drain after.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
