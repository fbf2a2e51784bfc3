package service

import (
	"context"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/metrics"
	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
)

// RateProvider fetches one rate table from one upstream endpoint
type RateProvider interface {
	GetName() string
	GetRates(ctx context.Context, baseCurrency string) (models.RateTable, error)
}

// ProviderFactory creates provider instances
type ProviderFactory struct {
	config  *config.Config
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *config.Config, logger logrus.FieldLogger, metrics *metrics.Metrics) *ProviderFactory {
	return &ProviderFactory{
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// CreateProviders creates one HTTP provider per configured endpoint, in
// rotation order
func (pf *ProviderFactory) CreateProviders() []RateProvider {
	endpoints := pf.config.Endpoints()
	providers := make([]RateProvider, 0, len(endpoints))

	for _, endpoint := range endpoints {
		provider := NewHTTPRateProvider(HTTPProviderOptions{
			Name:           endpoint.Name,
			Template:       endpoint.Template,
			ConnectTimeout: pf.config.ProviderConnectTimeout,
			ReadTimeout:    pf.config.ProviderReadTimeout,
			UserAgent:      pf.config.ProviderUserAgent,
		}, pf.logger, pf.metrics)
		providers = append(providers, provider)
	}

	return providers
}
