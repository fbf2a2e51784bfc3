package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateTable(t *testing.T) {
	fetched := time.Unix(1700000000, 0)
	source := map[string]float64{"eur": 0.92, "USD": 0.5, " gbp ": 0.79}

	table := NewRateTable("usd", source, fetched, "p1")

	assert.Equal(t, "USD", table.Base())
	assert.Equal(t, fetched, table.FetchedAt())
	assert.Equal(t, "p1", table.Provider())
	assert.Equal(t, []string{"EUR", "GBP", "USD"}, table.Codes())

	base, ok := table.Rate("USD")
	assert.True(t, ok)
	assert.Equal(t, 1.0, base, "base is pinned to 1")

	_, ok = table.Rate("eur")
	assert.False(t, ok, "lookups expect normalized codes")

	// later edits to the input do not leak in
	source["EUR"] = 99
	rate, _ := table.Rate("EUR")
	assert.Equal(t, 0.92, rate)
}

func TestRateTable_RatesIsACopy(t *testing.T) {
	table := NewRateTable("USD", map[string]float64{"EUR": 0.92}, time.Now(), "p1")

	rates := table.Rates()
	rates["EUR"] = 2
	delete(rates, "USD")

	rate, _ := table.Rate("EUR")
	assert.Equal(t, 0.92, rate)
	assert.Equal(t, 2, table.Len())
}

func TestRateTable_IsZero(t *testing.T) {
	assert.True(t, RateTable{}.IsZero())
	assert.False(t, NewRateTable("USD", nil, time.Now(), "p1").IsZero())
}

func TestRateTable_MarshalJSON(t *testing.T) {
	table := NewRateTable("USD", map[string]float64{"EUR": 0.92}, time.Unix(1700000000, 0), "frankfurter.app")

	body, err := json.Marshal(table)
	require.NoError(t, err)

	var decoded RatesResponse
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, RatesResponse{
		Base:      "USD",
		Timestamp: 1700000000,
		Rates:     map[string]float64{"EUR": 0.92, "USD": 1},
		Provider:  "frankfurter.app",
	}, decoded)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{92, "92.00"},
		{0, "0.00"},
		{1.005, "1.01"},
		{2.675, "2.68"},
		{1234567.891, "1234567.89"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in))
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0.920000", FormatRate(0.92))
	assert.Equal(t, "1.086957", FormatRate(1/0.92))
	assert.Equal(t, "149.500000", FormatRate(149.5))
}

func TestConversion_String(t *testing.T) {
	conversion := Conversion{From: "USD", To: "JPY", Amount: 12.5, Rate: 149.5, Converted: 1868.75}

	assert.Equal(t, "12.50 USD = 1868.75 JPY", conversion.String())
	assert.Equal(t, "1 USD = 149.500000 JPY", conversion.RateLine())
}

func TestBatchResult_JSONOmitsErr(t *testing.T) {
	body, err := json.Marshal(BatchResult{To: "XYZ", Error: "currency code not supported: XYZ", Err: assert.AnError})
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"XYZ","error":"currency code not supported: XYZ"}`, string(body))
}
