package testutils

import (
	"time"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
)

// MockLogger creates a logger that drops everything
func MockLogger() *logrus.Logger {
	return logger.Discard()
}

// MockConfig creates a configuration whose providers are providerURLs, in
// order; with none it uses a single placeholder endpoint
func MockConfig(providerURLs ...string) *config.Config {
	if len(providerURLs) == 0 {
		providerURLs = []string{"https://api.test.com/latest/"}
	}
	return &config.Config{
		Port:     "8081",
		LogLevel: "debug",

		ProviderURLs:           providerURLs,
		ProviderConnectTimeout: 2 * time.Second,
		ProviderReadTimeout:    2 * time.Second,
		ProviderUserAgent:      "currency-converter-test",

		RatesCacheTTL:       time.Hour,
		DefaultBaseCurrency: "USD",

		RateLimitEnabled:  true,
		RateLimitRequests: 100,
		RateLimitWindow:   60 * time.Second,
		RateLimitBurst:    10,
	}
}

// SampleRates returns USD-based rates used across tests
func SampleRates() map[string]float64 {
	return map[string]float64{
		"EUR": 0.92,
		"GBP": 0.79,
		"JPY": 149.50,
		"CAD": 1.36,
	}
}

// MockRateTable creates a USD table from SampleRates
func MockRateTable(provider string) models.RateTable {
	return models.NewRateTable("USD", SampleRates(), time.Now(), provider)
}
