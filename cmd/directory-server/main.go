// cmd/directory-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"visa-directory/internal/app"
	"visa-directory/internal/common/camunda"
	"visa-directory/internal/common/config"
	"visa-directory/internal/common/logger"
	httptransport "visa-directory/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting directory server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
	)

	ctx := context.Background()

	application, err := app.New(ctx, cfg, app.Options{
		ServiceName:     "directory-server",
		ConnectAttempts: 10,
		ConnectDelay:    2 * time.Second,
		Observability:   true,
	}, log)
	if err != nil {
		zapLog.Fatal("directory assembly failed", zap.Error(err))
	}
	defer application.Close()

	// Warm the snapshot so the first visitor does not pay for the chain.
	if n, err := application.Directory.Refresh(ctx); err != nil {
		zapLog.Warn("initial directory load failed", zap.Error(err))
	} else {
		zapLog.Info("directory loaded", zap.Int("businesses", n))
	}

	// --- Zeebe workers (optional) ---
	checks := application.Checks()
	var zeebeClient zbc.Client
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		client, err := camunda.Connect(ctx, camunda.OptionsFrom(cfg.Camunda))
		if err != nil {
			zapLog.Error("zeebe unavailable, job workers disabled", zap.Error(err))
		} else {
			zeebeClient = client.Zeebe()
			checks["zeebe"] = client.HealthCheck
			for _, reg := range application.Workers() {
				workers = append(workers, camunda.NewWorker(zeebeClient, reg, log))
			}
			zapLog.Info("job workers registered", zap.Int("count", len(workers)))
		}
	}

	// --- HTTP server ---
	handler := httptransport.NewHandler(application.Directory, httptransport.Options{
		BasePath:       cfg.Directory.BasePath,
		RequestTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		Checks:         checks,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      httptransport.NewRouter(handler),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	for _, w := range workers {
		w.Stop()
	}
	if zeebeClient != nil {
		if err := zeebeClient.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Directory server stopped gracefully")
}
