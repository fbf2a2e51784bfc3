package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/dalfonso89/currency-converter/internal/metrics"
	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	defaultProviderTimeout = 5 * time.Second
	maxResponseBytes       = 1 << 20
)

// HTTPProviderOptions configures one upstream endpoint
type HTTPProviderOptions struct {
	Name           string
	Template       string // base currency is appended verbatim
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UserAgent      string
}

// HTTPRateProvider implements RateProvider for JSON APIs that answer with a
// {"rates": {...}} object, such as exchangerate-api and frankfurter
type HTTPRateProvider struct {
	options    HTTPProviderOptions
	logger     logrus.FieldLogger
	metrics    *metrics.Metrics
	httpClient *http.Client
}

// NewHTTPRateProvider creates a new HTTP rate provider
func NewHTTPRateProvider(options HTTPProviderOptions, logger logrus.FieldLogger, metrics *metrics.Metrics) *HTTPRateProvider {
	if options.ConnectTimeout <= 0 {
		options.ConnectTimeout = defaultProviderTimeout
	}
	if options.ReadTimeout <= 0 {
		options.ReadTimeout = defaultProviderTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: options.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout:   options.ConnectTimeout,
		ResponseHeaderTimeout: options.ReadTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &HTTPRateProvider{
		options: options,
		logger:  logger,
		metrics: metrics,
		httpClient: &http.Client{
			Transport: transport,
			// caps the body read as well as the handshake
			Timeout: options.ConnectTimeout + options.ReadTimeout,
		},
	}
}

// GetName returns the provider name
func (provider *HTTPRateProvider) GetName() string {
	return provider.options.Name
}

// GetRates fetches the rate table for baseCurrency
func (provider *HTTPRateProvider) GetRates(ctx context.Context, baseCurrency string) (models.RateTable, error) {
	base, err := NormalizeCode(baseCurrency)
	if err != nil {
		return models.RateTable{}, err
	}

	started := time.Now()
	table, err := provider.fetch(ctx, base)
	provider.metrics.ObserveProviderRequest(provider.options.Name, outcomeOf(err), time.Since(started))

	return table, err
}

func (provider *HTTPRateProvider) fetch(ctx context.Context, base string) (models.RateTable, error) {
	url := provider.options.Template + base

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.RateTable{}, providerUnavailable(provider.options.Name, 0, fmt.Errorf("failed to create request: %w", err))
	}
	if provider.options.UserAgent != "" {
		req.Header.Set("User-Agent", provider.options.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	provider.logger.WithFields(logrus.Fields{"provider": provider.options.Name, "base": base}).Debug("fetching rates")

	resp, err := provider.httpClient.Do(req)
	if err != nil {
		return models.RateTable{}, providerUnavailable(provider.options.Name, 0, fmt.Errorf("failed to make request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return models.RateTable{}, providerUnavailable(provider.options.Name, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.RateTable{}, providerUnavailable(provider.options.Name, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	rates, err := parseRates(body)
	if err != nil {
		return models.RateTable{}, malformedResponse(provider.options.Name, err)
	}

	return models.NewRateTable(base, rates, time.Now(), provider.options.Name), nil
}

// parseRates extracts the "rates" object. Every value must be a finite
// positive number.
func parseRates(body []byte) (map[string]float64, error) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("rates field missing or empty")
	}

	for code, rate := range payload.Rates {
		if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return nil, fmt.Errorf("rate for %s is not positive: %v", code, rate)
		}
	}
	return payload.Rates, nil
}

func outcomeOf(err error) string {
	switch KindOf(err) {
	case KindUnknown:
		if err == nil {
			return "ok"
		}
		return "error"
	case KindProviderUnavailable:
		return "unavailable"
	case KindProviderMalformedResponse:
		return "malformed"
	default:
		return "error"
	}
}
