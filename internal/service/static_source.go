package service

import (
	"context"
	"time"

	"github.com/dalfonso89/currency-converter/internal/models"
)

// staticUSDRates are fixed sample rates, 1 USD = rate units.
var staticUSDRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.50,
	"CNY": 7.24,
	"INR": 83.12,
	"CAD": 1.36,
	"AUD": 1.53,
	"CHF": 0.88,
	"MXN": 17.15,
}

// StaticSource is the offline RateSource. Tables for any base in the sample
// set are derived from the USD rates; it never touches the network.
type StaticSource struct {
	usdRates  map[string]float64
	createdAt time.Time
}

func NewStaticSource() *StaticSource {
	return &StaticSource{usdRates: staticUSDRates, createdAt: time.Now()}
}

func (source *StaticSource) Name() string { return "static" }

// Rates fails only with UnknownCurrency, for a base outside the sample set.
func (source *StaticSource) Rates(_ context.Context, baseCurrency string) (models.RateTable, error) {
	base, err := NormalizeCode(baseCurrency)
	if err != nil {
		return models.RateTable{}, unknownCurrency(baseCurrency)
	}

	baseRate, ok := source.usdRates[base]
	if !ok {
		return models.RateTable{}, unknownCurrency(base)
	}

	rates := make(map[string]float64, len(source.usdRates))
	for code, usdRate := range source.usdRates {
		rates[code] = usdRate / baseRate
	}
	return models.NewRateTable(base, rates, source.createdAt, source.Name()), nil
}
