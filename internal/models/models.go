package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RateTable holds the rates for one base currency: 1 unit of Base equals
// Rate(code) units of code. A table is immutable once built.
type RateTable struct {
	base      string
	rates     map[string]float64
	fetchedAt time.Time
	provider  string
}

// NewRateTable copies rates, upper-cases the keys and pins the base currency
// to exactly 1.0.
func NewRateTable(base string, rates map[string]float64, fetchedAt time.Time, provider string) RateTable {
	base = strings.ToUpper(strings.TrimSpace(base))
	copied := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		copied[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	copied[base] = 1.0

	return RateTable{
		base:      base,
		rates:     copied,
		fetchedAt: fetchedAt,
		provider:  provider,
	}
}

func (t RateTable) Base() string         { return t.base }
func (t RateTable) FetchedAt() time.Time { return t.fetchedAt }
func (t RateTable) Provider() string     { return t.provider }
func (t RateTable) Len() int             { return len(t.rates) }
func (t RateTable) IsZero() bool         { return t.base == "" && t.rates == nil }

// Rate looks up the rate for code.
func (t RateTable) Rate(code string) (float64, bool) {
	rate, ok := t.rates[code]
	return rate, ok
}

// Codes returns every currency in the table, sorted.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rates returns a copy of the rate mapping.
func (t RateTable) Rates() map[string]float64 {
	copied := make(map[string]float64, len(t.rates))
	for code, rate := range t.rates {
		copied[code] = rate
	}
	return copied
}

// RatesResponse is the wire shape of a RateTable
type RatesResponse struct {
	Base      string             `json:"base"`
	Timestamp int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
	Provider  string             `json:"provider"`
}

func (t RateTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(RatesResponse{
		Base:      t.base,
		Timestamp: t.fetchedAt.Unix(),
		Rates:     t.rates,
		Provider:  t.provider,
	})
}

// Conversion is the outcome of one convert call
type Conversion struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
	Provider  string  `json:"provider,omitempty"`
}

// String renders "100.00 USD = 92.00 EUR".
func (c Conversion) String() string {
	return FormatAmount(c.Amount) + " " + c.From + " = " + FormatAmount(c.Converted) + " " + c.To
}

// RateLine renders "1 USD = 0.920000 EUR".
func (c Conversion) RateLine() string {
	return "1 " + c.From + " = " + FormatRate(c.Rate) + " " + c.To
}

// BatchResult is one target of a batch conversion. Exactly one of
// Conversion and Error is set.
type BatchResult struct {
	To         string      `json:"to"`
	Conversion *Conversion `json:"conversion,omitempty"`
	Error      string      `json:"error,omitempty"`
	Err        error       `json:"-"`
}

// RateInfo holds the forward and reverse rate between two currencies
type RateInfo struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Forward float64 `json:"forward"`
	Reverse float64 `json:"reverse"`
}

func (r RateInfo) Lines() []string {
	return []string{
		"1 " + r.From + " = " + FormatRate(r.Forward) + " " + r.To,
		"1 " + r.To + " = " + FormatRate(r.Reverse) + " " + r.From,
	}
}

// FormatAmount rounds half away from zero to 2 places.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatRate rounds to 6 places.
func FormatRate(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(6)
}

type HealthCheck struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	Source       string    `json:"source"`
	CachedBases  int       `json:"cached_bases"`
	ProviderNext string    `json:"provider_next,omitempty"`
}

type ProviderStatus struct {
	Providers []string `json:"providers"`
	Cursor    int      `json:"cursor"`
	Next      string   `json:"next"`
}

type CurrenciesResponse struct {
	Base       string   `json:"base"`
	Count      int      `json:"count"`
	Currencies []string `json:"currencies"`
}

type ValidityResponse struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
