package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalfonso89/currency-converter/internal/middleware"
	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/ratelimit"
	"github.com/dalfonso89/currency-converter/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// RatesStatus is implemented by the live rate source. Offline mode has none.
type RatesStatus interface {
	CachedBases() int
	ProviderStatus() models.ProviderStatus
}

// HandlerConfig wires the handler dependencies
type HandlerConfig struct {
	Logger         logrus.FieldLogger
	Engine         *service.ConversionEngine
	Status         RatesStatus
	RateLimiter    *ratelimit.Limiter
	MetricsHandler http.Handler
}

// Handlers contains all HTTP handlers
type Handlers struct {
	logger         logrus.FieldLogger
	engine         *service.ConversionEngine
	status         RatesStatus
	rateLimiter    *ratelimit.Limiter
	metricsHandler http.Handler
	startTime      time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(handlerConfig HandlerConfig) *Handlers {
	return &Handlers{
		logger:         handlerConfig.Logger,
		engine:         handlerConfig.Engine,
		status:         handlerConfig.Status,
		rateLimiter:    handlerConfig.RateLimiter,
		metricsHandler: handlerConfig.MetricsHandler,
		startTime:      time.Now(),
	}
}

// SetupRoutes configures all the routes using Gin
func (handlers *Handlers) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(handlers.logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(handlers.corsMiddleware())

	if handlers.rateLimiter != nil {
		router.Use(handlers.rateLimitMiddleware())
	}

	router.GET("/health", handlers.HealthCheck)
	if handlers.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(handlers.metricsHandler))
	}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/rates", handlers.GetRates)
		apiV1.GET("/rates/:base", handlers.GetRatesByBase)
		apiV1.GET("/convert", handlers.Convert)
		apiV1.GET("/batch", handlers.BatchConvert)
		apiV1.GET("/rate-info", handlers.RateInfo)
		apiV1.GET("/currencies", handlers.ListCurrencies)
		apiV1.GET("/currencies/:code/valid", handlers.ValidateCurrency)
		apiV1.GET("/providers", handlers.GetProviders)
	}

	return router
}

// HealthCheck handles health check requests
func (handlers *Handlers) HealthCheck(context *gin.Context) {
	healthCheckResponse := models.HealthCheck{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   version,
		Uptime:    time.Since(handlers.startTime).String(),
	}
	if handlers.engine != nil {
		healthCheckResponse.Source = handlers.engine.Source().Name()
	}
	if handlers.status != nil {
		healthCheckResponse.CachedBases = handlers.status.CachedBases()
		healthCheckResponse.ProviderNext = handlers.status.ProviderStatus().Next
	}

	context.JSON(http.StatusOK, healthCheckResponse)
}

// GetRates returns latest rates for a base currency
func (handlers *Handlers) GetRates(context *gin.Context) {
	handlers.writeRates(context, context.DefaultQuery("base", handlers.engine.DefaultBase()))
}

// GetRatesByBase returns rates for the base given in the path
func (handlers *Handlers) GetRatesByBase(context *gin.Context) {
	handlers.writeRates(context, context.Param("base"))
}

func (handlers *Handlers) writeRates(context *gin.Context, base string) {
	table, err := handlers.engine.RateTable(context.Request.Context(), base)
	if err != nil {
		handlers.writeServiceError(context, "failed to fetch rates", err)
		return
	}
	context.JSON(http.StatusOK, table)
}

// Convert handles /convert?from=USD&to=EUR&amount=100
func (handlers *Handlers) Convert(context *gin.Context) {
	amount, ok := handlers.parseAmount(context)
	if !ok {
		return
	}

	conversion, err := handlers.engine.Convert(context.Request.Context(), amount, context.Query("from"), context.Query("to"))
	if err != nil {
		handlers.writeServiceError(context, "conversion failed", err)
		return
	}
	context.JSON(http.StatusOK, conversion)
}

// BatchConvert handles /batch?from=USD&amount=10&to=EUR,GBP
func (handlers *Handlers) BatchConvert(context *gin.Context) {
	amount, ok := handlers.parseAmount(context)
	if !ok {
		return
	}

	var targets []string
	for _, target := range strings.Split(context.Query("to"), ",") {
		if target = strings.TrimSpace(target); target != "" {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid request", "to must list at least one currency")
		return
	}

	from := context.Query("from")
	if _, err := service.NormalizeCode(from); err != nil {
		handlers.writeServiceError(context, "batch conversion failed", err)
		return
	}

	results := handlers.engine.BatchConvert(context.Request.Context(), amount, from, targets)
	context.JSON(http.StatusOK, gin.H{"from": strings.ToUpper(strings.TrimSpace(from)), "amount": amount, "results": results})
}

// RateInfo handles /rate-info?from=USD&to=EUR
func (handlers *Handlers) RateInfo(context *gin.Context) {
	info, err := handlers.engine.RateInfo(context.Request.Context(), context.Query("from"), context.Query("to"))
	if err != nil {
		handlers.writeServiceError(context, "rate lookup failed", err)
		return
	}
	context.JSON(http.StatusOK, info)
}

// ListCurrencies handles /currencies?base=USD
func (handlers *Handlers) ListCurrencies(context *gin.Context) {
	base := context.DefaultQuery("base", handlers.engine.DefaultBase())

	codes, err := handlers.engine.ListCurrencies(context.Request.Context(), base)
	if err != nil {
		handlers.writeServiceError(context, "failed to list currencies", err)
		return
	}
	context.JSON(http.StatusOK, models.CurrenciesResponse{
		Base:       strings.ToUpper(strings.TrimSpace(base)),
		Count:      len(codes),
		Currencies: codes,
	})
}

// ValidateCurrency handles /currencies/:code/valid
func (handlers *Handlers) ValidateCurrency(context *gin.Context) {
	code := context.Param("code")
	context.JSON(http.StatusOK, models.ValidityResponse{
		Code:  strings.ToUpper(strings.TrimSpace(code)),
		Valid: handlers.engine.IsValidCode(context.Request.Context(), code),
	})
}

// GetProviders reports provider rotation state
func (handlers *Handlers) GetProviders(context *gin.Context) {
	if handlers.status == nil {
		handlers.writeErrorResponse(context, http.StatusNotFound, "no providers", "running with the offline rate table")
		return
	}
	context.JSON(http.StatusOK, handlers.status.ProviderStatus())
}

func (handlers *Handlers) parseAmount(context *gin.Context) (float64, bool) {
	raw := strings.TrimSpace(context.Query("amount"))
	if raw == "" {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid amount", "amount is required")
		return 0, false
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid amount", "amount must be a number")
		return 0, false
	}
	// checked here so a batch fails once instead of once per target
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		handlers.writeServiceError(context, "invalid amount", service.ErrInvalidAmount)
		return 0, false
	}
	return amount, true
}

// writeServiceError maps an error kind onto an HTTP status
func (handlers *Handlers) writeServiceError(context *gin.Context, message string, err error) {
	statusCode := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindInvalidCurrencyCode, service.KindInvalidAmount:
		statusCode = http.StatusBadRequest
	case service.KindUnknownCurrency:
		statusCode = http.StatusNotFound
	case service.KindAllProvidersExhausted, service.KindProviderUnavailable, service.KindProviderMalformedResponse:
		statusCode = http.StatusBadGateway
	}

	if statusCode >= http.StatusInternalServerError {
		_ = context.Error(err)
	}
	handlers.writeErrorResponse(context, statusCode, message, err.Error())
}

// writeErrorResponse writes an error response using Gin context
func (handlers *Handlers) writeErrorResponse(context *gin.Context, statusCode int, errorMessage, errorDetails string) {
	context.JSON(statusCode, models.ErrorResponse{
		Error:   errorMessage,
		Message: errorDetails,
		Code:    statusCode,
	})
}

// corsMiddleware adds CORS headers using Gin middleware
func (handlers *Handlers) corsMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		context.Header("Access-Control-Allow-Origin", "*")
		context.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		context.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if context.Request.Method == http.MethodOptions {
			context.AbortWithStatus(http.StatusNoContent)
			return
		}

		context.Next()
	}
}

// rateLimitMiddleware rejects clients over their budget with 429
func (handlers *Handlers) rateLimitMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		clientIP := handlers.rateLimiter.GetClientIP(context.Request)

		if !handlers.rateLimiter.Allow(clientIP) {
			handlers.logger.Warnf("Rate limit exceeded for IP: %s", clientIP)
			configuration := handlers.rateLimiter.Configuration
			context.Header("X-RateLimit-Limit", strconv.Itoa(configuration.RateLimitRequests))
			context.Header("X-RateLimit-Remaining", "0")
			context.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(configuration.RateLimitWindow).Unix(), 10))
			context.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "too many requests, retry later",
				Code:    http.StatusTooManyRequests,
			})
			return
		}

		context.Next()
	}
}
