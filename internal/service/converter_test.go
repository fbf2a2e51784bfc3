package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/dalfonso89/currency-converter/internal/metrics"
	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/testutils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves fixed tables and counts lookups.
type fakeSource struct {
	tables map[string]models.RateTable
	err    error
	calls  int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Rates(_ context.Context, base string) (models.RateTable, error) {
	s.calls++
	if s.err != nil {
		return models.RateTable{}, s.err
	}
	code, err := NormalizeCode(base)
	if err != nil {
		return models.RateTable{}, err
	}
	table, ok := s.tables[code]
	if !ok {
		return models.RateTable{}, unknownCurrency(code)
	}
	return table, nil
}

func newFakeSource() *fakeSource {
	now := time.Now()
	return &fakeSource{tables: map[string]models.RateTable{
		"USD": models.NewRateTable("USD", map[string]float64{"EUR": 0.92, "GBP": 0.79, "JPY": 149.50}, now, "p1"),
		"EUR": models.NewRateTable("EUR", map[string]float64{"USD": 1.087, "GBP": 0.86}, now, "p1"),
	}}
}

func newTestEngine(source RateSource) *ConversionEngine {
	return NewConversionEngine(source, "USD", testutils.MockLogger(), nil)
}

func TestConvert(t *testing.T) {
	engine := newTestEngine(newFakeSource())

	conversion, err := engine.Convert(context.Background(), 100, "USD", "EUR")
	require.NoError(t, err)

	assert.Equal(t, "USD", conversion.From)
	assert.Equal(t, "EUR", conversion.To)
	assert.Equal(t, 0.92, conversion.Rate)
	assert.InDelta(t, 92.0, conversion.Converted, 1e-9)
	assert.Equal(t, "p1", conversion.Provider)
	assert.Equal(t, "100.00 USD = 92.00 EUR", conversion.String())
	assert.Equal(t, "1 USD = 0.920000 EUR", conversion.RateLine())
}

func TestConvert_LowercaseCodes(t *testing.T) {
	engine := newTestEngine(newFakeSource())

	_, err := engine.Convert(context.Background(), 10, " gbp", "usd ")
	assert.ErrorIs(t, err, ErrUnknownCurrency, "no GBP table in the fake source")

	conversion, err := engine.Convert(context.Background(), 10, "eur", "gbp")
	require.NoError(t, err)
	assert.Equal(t, "EUR", conversion.From)
	assert.Equal(t, "GBP", conversion.To)
	assert.InDelta(t, 8.6, conversion.Converted, 1e-9)
}

func TestConvert_SameCurrencySkipsSource(t *testing.T) {
	source := newFakeSource()
	engine := newTestEngine(source)

	conversion, err := engine.Convert(context.Background(), 42.5, "usd", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, conversion.Rate)
	assert.Equal(t, 42.5, conversion.Converted)

	// even a code no table lists converts to itself
	conversion, err = engine.Convert(context.Background(), 7, "XAU", "xau")
	require.NoError(t, err)
	assert.Equal(t, 7.0, conversion.Converted)

	assert.Zero(t, source.calls)
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		from   string
		to     string
		want   error
	}{
		{"unknown target", 100, "USD", "XYZ", ErrUnknownCurrency},
		{"short source", 100, "US", "EUR", ErrInvalidCurrencyCode},
		{"digits in target", 100, "USD", "E1R", ErrInvalidCurrencyCode},
		{"negative amount", -1, "USD", "EUR", ErrInvalidAmount},
		{"nan amount", math.NaN(), "USD", "EUR", ErrInvalidAmount},
		{"infinite amount", math.Inf(1), "USD", "EUR", ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEngine(newFakeSource()).Convert(context.Background(), tt.amount, tt.from, tt.to)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConvert_ZeroAmount(t *testing.T) {
	conversion, err := newTestEngine(newFakeSource()).Convert(context.Background(), 0, "USD", "JPY")
	require.NoError(t, err)
	assert.Equal(t, 0.0, conversion.Converted)
	assert.Equal(t, 149.50, conversion.Rate)
}

func TestConvert_SourceFailurePropagates(t *testing.T) {
	source := &fakeSource{err: &Error{Kind: KindAllProvidersExhausted, Provider: "p2", Attempts: 2}}

	_, err := newTestEngine(source).Convert(context.Background(), 1, "USD", "EUR")
	assert.ErrorIs(t, err, ErrAllProvidersExhausted)
}

func TestConvert_RecordsOutcome(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	engine := NewConversionEngine(newFakeSource(), "USD", testutils.MockLogger(), m)

	_, _ = engine.Convert(context.Background(), 1, "USD", "EUR")
	_, _ = engine.Convert(context.Background(), 1, "USD", "USD")
	_, _ = engine.Convert(context.Background(), 1, "USD", "XYZ")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("same_currency")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversionsTotal.WithLabelValues("unknown currency")))
}

func TestBatchConvert(t *testing.T) {
	engine := newTestEngine(newFakeSource())

	results := engine.BatchConvert(context.Background(), 10, "USD", []string{"eur", "XYZ", "USD"})
	require.Len(t, results, 3)

	require.NotNil(t, results[0].Conversion)
	assert.Equal(t, "EUR", results[0].To)
	assert.InDelta(t, 9.2, results[0].Conversion.Converted, 1e-9)

	assert.Nil(t, results[1].Conversion)
	assert.Equal(t, "XYZ", results[1].To)
	assert.ErrorIs(t, results[1].Err, ErrUnknownCurrency)
	assert.Equal(t, "currency code not supported: XYZ", results[1].Error)

	require.NotNil(t, results[2].Conversion)
	assert.Equal(t, 10.0, results[2].Conversion.Converted)
}

func TestRateInfo(t *testing.T) {
	info, err := newTestEngine(newFakeSource()).RateInfo(context.Background(), "usd", "eur")
	require.NoError(t, err)

	assert.Equal(t, models.RateInfo{From: "USD", To: "EUR", Forward: 0.92, Reverse: 1.087}, info)
	assert.Equal(t, []string{"1 USD = 0.920000 EUR", "1 EUR = 1.087000 USD"}, info.Lines())
}

func TestRateInfo_MissingReverse(t *testing.T) {
	_, err := newTestEngine(newFakeSource()).RateInfo(context.Background(), "USD", "JPY")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestListCurrencies(t *testing.T) {
	codes, err := newTestEngine(newFakeSource()).ListCurrencies(context.Background(), "eur")
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "GBP", "USD"}, codes)
}

func TestListCurrencies_Offline(t *testing.T) {
	codes, err := newTestEngine(NewStaticSource()).ListCurrencies(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, []string{"AUD", "CAD", "CHF", "CNY", "EUR", "GBP", "INR", "JPY", "MXN", "USD"}, codes)
}

func TestIsValidCode(t *testing.T) {
	engine := newTestEngine(newFakeSource())

	tests := []struct {
		code string
		want bool
	}{
		{"EUR", true},
		{"gbp", true},
		{"usd", true},
		{"XYZ", false},
		{"EU", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.IsValidCode(context.Background(), tt.code))
		})
	}
}

func TestIsValidCode_SourceDown(t *testing.T) {
	engine := newTestEngine(&fakeSource{err: &Error{Kind: KindAllProvidersExhausted}})
	assert.False(t, engine.IsValidCode(context.Background(), "EUR"))
	assert.True(t, engine.IsValidCode(context.Background(), "USD"), "the default base is always valid")
}

func TestNewConversionEngine_BadDefaultBase(t *testing.T) {
	engine := NewConversionEngine(NewStaticSource(), "dollars", testutils.MockLogger(), nil)
	assert.Equal(t, DefaultBaseCurrency, engine.DefaultBase())
	assert.Equal(t, "static", engine.Source().Name())
}
