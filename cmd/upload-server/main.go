package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lllllllleong/pdfdigest/internal/httpapi"
	"github.com/Lllllllleong/pdfdigest/internal/logger"
	"github.com/Lllllllleong/pdfdigest/internal/services"
)

func main() {
	log := logger.New("upload-server")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	proc, err := services.NewProcessorFromEnv(ctx, registry)
	if err != nil {
		log.Error("Critical error during initialization", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := proc.Close(); err != nil {
			log.Error("Failed to release resources", "error", err)
		}
	}()

	cfg := proc.Config()
	router := httpapi.NewRouter(proc, httpapi.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         log,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
	}

	go func() {
		log.Info("Upload server starting.", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
}
