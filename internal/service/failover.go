package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalfonso89/currency-converter/internal/metrics"
	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
)

// ProviderFailover tries providers in rotation order until one succeeds.
//
// The cursor names the provider tried first on the next call. It moves past
// a provider when that provider fails and stays put on success; it is never
// reset to zero, so later calls skip providers that failed recently.
type ProviderFailover struct {
	providers []RateProvider
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics

	cursorMutex sync.Mutex
	cursor      int
}

// NewProviderFailover needs at least one provider.
func NewProviderFailover(providers []RateProvider, logger logrus.FieldLogger, metrics *metrics.Metrics) (*ProviderFailover, error) {
	if len(providers) == 0 {
		return nil, errors.New("no exchange rate providers configured")
	}
	return &ProviderFailover{
		providers: providers,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// FetchWithFallback returns the first table any provider produces, starting
// at the cursor. When all fail the error is AllProvidersExhausted wrapping
// the last provider's error. A canceled ctx returns the context error and
// leaves the cursor alone.
func (failover *ProviderFailover) FetchWithFallback(ctx context.Context, baseCurrency string) (models.RateTable, error) {
	base, err := NormalizeCode(baseCurrency)
	if err != nil {
		return models.RateTable{}, err
	}

	count := len(failover.providers)
	start := failover.Cursor()

	var (
		lastErr      error
		lastProvider string
		attempts     int
	)

	for i := 0; i < count; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.RateTable{}, fmt.Errorf("fetch %s rates: %w", base, ctxErr)
		}

		index := (start + i) % count
		provider := failover.providers[index]
		attempts++

		table, fetchErr := provider.GetRates(ctx, base)
		if fetchErr == nil {
			failover.logger.WithFields(logrus.Fields{
				"provider": provider.GetName(),
				"base":     base,
				"attempt":  attempts,
			}).Info("fetched fresh rates")
			return table, nil
		}

		// caller canceled, not a provider failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.RateTable{}, fmt.Errorf("fetch %s rates from %s: %w", base, provider.GetName(), ctxErr)
		}

		lastErr = fetchErr
		lastProvider = provider.GetName()
		failover.advancePast(index)

		failover.logger.WithFields(logrus.Fields{
			"provider": lastProvider,
			"base":     base,
			"attempt":  attempts,
			"error":    fetchErr.Error(),
		}).Warn("provider failed, trying next")
	}

	failover.logger.WithField("base", base).Errorf("all %d exchange rate providers failed", attempts)

	return models.RateTable{}, &Error{
		Kind:     KindAllProvidersExhausted,
		Provider: lastProvider,
		Attempts: attempts,
		Err:      lastErr,
	}
}

// Cursor returns the index tried first on the next call.
func (failover *ProviderFailover) Cursor() int {
	failover.cursorMutex.Lock()
	defer failover.cursorMutex.Unlock()
	return failover.cursor
}

// Providers returns provider names in rotation order.
func (failover *ProviderFailover) Providers() []string {
	names := make([]string, len(failover.providers))
	for i, provider := range failover.providers {
		names[i] = provider.GetName()
	}
	return names
}

// Status reports the rotation state.
func (failover *ProviderFailover) Status() models.ProviderStatus {
	cursor := failover.Cursor()
	names := failover.Providers()
	return models.ProviderStatus{
		Providers: names,
		Cursor:    cursor,
		Next:      names[cursor],
	}
}

// advancePast moves the cursor off index unless a concurrent caller already
// moved it, so two callers failing on the same provider advance it once.
func (failover *ProviderFailover) advancePast(index int) {
	failover.cursorMutex.Lock()
	defer failover.cursorMutex.Unlock()

	if failover.cursor == index {
		failover.cursor = (index + 1) % len(failover.providers)
		failover.metrics.Rotated()
	}
}
