// Package main implements the entry point for the matcher API server, which
// handles resume intake, job description analysis, and candidate/job match
// scoring with durable rate-limit retries.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/phrazzld/matcher-api/internal/config"
	"github.com/phrazzld/matcher-api/internal/platform/logger"
)

func main() {
	// A missing .env is fine; environment variables may come from anywhere.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"llm_provider", cfg.LLM.Provider)

	ctx := context.Background()
	app, err := buildApplication(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// run starts the worker runner and the HTTP server, then blocks until a
// shutdown signal arrives and everything has drained.
func (app *application) run(ctx context.Context) error {
	app.runner.StartAll()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.setupRouter(),
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("Server failed", "error", err)
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("Shutting down server...")
	case <-serverCtx.Done():
		app.logger.Info("Server context canceled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop the workers after the HTTP server so no new inline work arrives
	// while cycles drain.
	app.runner.StopAll()
	app.cleanup()

	app.logger.Info("Server shutdown completed")
	return nil
}
