package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/marcjansen/mapproxy/internal/infrastructure/http/v1"
	"github.com/marcjansen/mapproxy/internal/infrastructure/http/v1/handler"
	"github.com/marcjansen/mapproxy/internal/store"
	"github.com/marcjansen/mapproxy/pkg/config"
	"github.com/marcjansen/mapproxy/pkg/logger"
	"github.com/marcjansen/mapproxy/pkg/telemetry"
)

func Run() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.NewZapLogger(cfg.Logger.Level)

	l.Info("starting mapproxy", "definitions", cfg.Definitions.Path)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	defs, err := config.LoadDefinitions(cfg.Definitions.Path)
	if err != nil {
		l.Fatal("failed to load service definitions", "error", err)
	}

	tileStore, err := store.New(cfg.Store, l)
	if err != nil {
		l.Fatal("failed to initialize tile store", "error", err)
	}

	layers, err := buildLayers(cfg, defs, tileStore, l)
	if err != nil {
		l.Fatal("failed to build layers", "error", err)
	}

	h := handler.NewHandler(layers, l)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.Server.ReadTimeout,
		WriteTimeout: cfg.HTTP.Server.WriteTimeout,
		IdleTimeout:  cfg.HTTP.Server.IdleTimeout,
	}

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Fatal("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
}
