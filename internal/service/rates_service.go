package service

import (
	"context"
	"time"

	"github.com/dalfonso89/currency-converter/internal/metrics"
	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RateSource yields the rate table for a base currency. The conversion
// engine is written against this so live and offline modes share one code
// path.
type RateSource interface {
	Rates(ctx context.Context, baseCurrency string) (models.RateTable, error)
	Name() string
}

// RatesService is the cached remote RateSource: cache first, then provider
// failover, then cache the result.
type RatesService struct {
	cache    *RateCache
	failover *ProviderFailover
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics

	singleFlightGroup singleflight.Group
}

func NewRatesService(cache *RateCache, failover *ProviderFailover, logger logrus.FieldLogger, metrics *metrics.Metrics) *RatesService {
	return &RatesService{
		cache:    cache,
		failover: failover,
		logger:   logger,
		metrics:  metrics,
	}
}

func (ratesService *RatesService) Name() string { return "live" }

// Rates serves from cache when fresh. Concurrent misses for the same base
// share one upstream fetch, which keeps running if the caller that started
// it goes away; each caller stops waiting when its own ctx is done.
func (ratesService *RatesService) Rates(requestContext context.Context, baseCurrency string) (models.RateTable, error) {
	base, err := NormalizeCode(baseCurrency)
	if err != nil {
		return models.RateTable{}, err
	}

	if table, ok := ratesService.cache.Get(base); ok {
		ratesService.metrics.CacheHit()
		ratesService.logger.WithFields(logrus.Fields{
			"base": base,
			"age":  time.Since(table.FetchedAt()).Round(time.Second).String(),
		}).Debug("using cached rates")
		return table, nil
	}
	ratesService.metrics.CacheMiss()

	resultChannel := ratesService.singleFlightGroup.DoChan("rates:"+base, func() (interface{}, error) {
		// a flight that finished since our lookup may have filled the entry
		if table, ok := ratesService.cache.Get(base); ok {
			return table, nil
		}
		// shared by every caller, so no single caller's cancellation applies;
		// provider timeouts still bound it
		table, fetchErr := ratesService.failover.FetchWithFallback(context.WithoutCancel(requestContext), base)
		if fetchErr != nil {
			return models.RateTable{}, fetchErr
		}
		ratesService.cache.Put(base, table)
		return table, nil
	})

	select {
	case <-requestContext.Done():
		return models.RateTable{}, requestContext.Err()
	case result := <-resultChannel:
		if result.Err != nil {
			return models.RateTable{}, result.Err
		}
		if result.Shared {
			ratesService.logger.WithField("base", base).Debug("joined in-flight fetch")
		}
		return result.Val.(models.RateTable), nil
	}
}

// CachedBases reports how many bases are in the cache.
func (ratesService *RatesService) CachedBases() int {
	return ratesService.cache.Len()
}

// ProviderStatus reports the failover rotation state.
func (ratesService *RatesService) ProviderStatus() models.ProviderStatus {
	return ratesService.failover.Status()
}
