package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/dalfonso89/currency-converter/internal/api"
	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/metrics"
	"github.com/dalfonso89/currency-converter/internal/platform"
	"github.com/dalfonso89/currency-converter/internal/ratelimit"
	"github.com/dalfonso89/currency-converter/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before the environment")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v\n%s", err, config.Usage())
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	converterMetrics := metrics.New(registry)

	// Initialize services
	var (
		source service.RateSource
		status api.RatesStatus
	)
	if cfg.Offline {
		source = service.NewStaticSource()
		logger.Info("Running with the offline rate table")
	} else {
		providers := service.NewProviderFactory(cfg, logger, converterMetrics).CreateProviders()
		failover, err := service.NewProviderFailover(providers, logger, converterMetrics)
		if err != nil {
			logger.Fatalf("Failed to set up providers: %v", err)
		}
		ratesService := service.NewRatesService(service.NewRateCache(cfg.RatesCacheTTL), failover, logger, converterMetrics)
		source, status = ratesService, ratesService
		logger.WithField("providers", failover.Providers()).Info("Rate providers configured")
	}

	engine := service.NewConversionEngine(source, cfg.DefaultBaseCurrency, logger, converterMetrics)
	rateLimiter := ratelimit.NewLimiter(cfg, logger)
	defer rateLimiter.Stop()

	// Initialize HTTP handlers
	handlers := api.NewHandlers(api.HandlerConfig{
		Logger:         logger,
		Engine:         engine,
		Status:         status,
		RateLimiter:    rateLimiter,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()

	if err := platform.Serve(shutdownCtx, server, logger, platform.DefaultShutdownGrace); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
		return
	}

	logger.Info("Server exited")
}
