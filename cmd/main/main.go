package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-validation/internal/config"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/server"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/storage"
	"gitlab.com/timkado/api/daisi-crm-validation/internal/usecase"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-validation/pkg/utils"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metricsEnabled := cfg.Metrics.Enabled
	observer.InitMetrics(metricsEnabled)

	logger.Log.Info("Starting Daisi CRM Validation Service",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	// Initialize the data gateway
	gw, err := storage.NewPostgresGateway(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres gateway", zap.Error(err))
	}

	// Services
	duplicates := usecase.NewDuplicateService(gw)
	opportunities := usecase.NewOpportunityService(gw, duplicates)

	importWorker, err := usecase.NewImportWorker(cfg.WorkerPools.Import, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize import worker pool", zap.Error(err))
	}

	// HTTP boundary
	httpServer := server.NewServer(strconv.Itoa(cfg.Server.Port), opportunities, importWorker, logger.Log)

	if metricsEnabled {
		httpServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Server.Port))
	} else {
		logger.Log.Info("Metrics endpoint disabled for environment", zap.String("environment", cfg.Environment))
	}

	httpServer.Start()

	logger.Log.Info("Endpoints available",
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Server.Port)),
		zap.String("api", fmt.Sprintf("http://localhost:%d/v1", cfg.Server.Port)),
	)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", 30*time.Second))

	var wg sync.WaitGroup
	wg.Add(3)

	// Shutdown HTTP server
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping HTTP server")
		start := time.Now()
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
		}
		logger.Log.Info("[shutdown] HTTP server stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping HTTP server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Shutdown import worker pool
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping import worker pool")
		start := time.Now()
		importWorker.Stop()
		logger.Log.Info("[shutdown] Import worker pool stopped",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping import worker pool",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Close database connection
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Closing database connection")
		start := time.Now()
		if err := gw.Close(); err != nil {
			logger.Log.Error("[shutdown] Error closing database connection", zap.Error(err))
		}
		logger.Log.Info("[shutdown] Database connection closed",
			zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing database connection",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Wait for all components with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("Graceful shutdown complete")
	case <-shutdownCtx.Done():
		logger.Log.Warn("Graceful shutdown timed out")
	}
}
