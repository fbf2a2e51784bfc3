package service

import (
	"context"
	"math"
	"sort"

	"github.com/dalfonso89/currency-converter/internal/metrics"
	"github.com/dalfonso89/currency-converter/internal/models"

	"github.com/sirupsen/logrus"
)

// DefaultBaseCurrency is the base of the reference table used by IsValidCode.
const DefaultBaseCurrency = "USD"

// ConversionEngine converts amounts using whatever RateSource it was built
// with.
type ConversionEngine struct {
	source      RateSource
	defaultBase string
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
}

func NewConversionEngine(source RateSource, defaultBase string, logger logrus.FieldLogger, metrics *metrics.Metrics) *ConversionEngine {
	base, err := NormalizeCode(defaultBase)
	if err != nil {
		base = DefaultBaseCurrency
	}
	return &ConversionEngine{
		source:      source,
		defaultBase: base,
		logger:      logger,
		metrics:     metrics,
	}
}

func (engine *ConversionEngine) Source() RateSource  { return engine.source }
func (engine *ConversionEngine) DefaultBase() string { return engine.defaultBase }

// Convert returns amount of from expressed in to. Identical codes return the
// amount unchanged without consulting the source, so they succeed even for
// codes no provider lists.
func (engine *ConversionEngine) Convert(ctx context.Context, amount float64, from, to string) (models.Conversion, error) {
	conversion, err := engine.convert(ctx, amount, from, to)
	switch {
	case err != nil:
		engine.metrics.Conversion(KindOf(err).String())
	case conversion.From == conversion.To:
		engine.metrics.Conversion("same_currency")
	default:
		engine.metrics.Conversion("ok")
	}
	return conversion, err
}

func (engine *ConversionEngine) convert(ctx context.Context, amount float64, from, to string) (models.Conversion, error) {
	fromCode, err := NormalizeCode(from)
	if err != nil {
		return models.Conversion{}, err
	}
	toCode, err := NormalizeCode(to)
	if err != nil {
		return models.Conversion{}, err
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Conversion{}, &Error{Kind: KindInvalidAmount}
	}

	if fromCode == toCode {
		return models.Conversion{
			From:      fromCode,
			To:        toCode,
			Amount:    amount,
			Rate:      1,
			Converted: amount,
		}, nil
	}

	table, err := engine.source.Rates(ctx, fromCode)
	if err != nil {
		return models.Conversion{}, err
	}

	rate, ok := table.Rate(toCode)
	if !ok {
		return models.Conversion{}, unknownCurrency(toCode)
	}

	return models.Conversion{
		From:      fromCode,
		To:        toCode,
		Amount:    amount,
		Rate:      rate,
		Converted: amount * rate,
		Provider:  table.Provider(),
	}, nil
}

// BatchConvert converts amount into each target. A failing target is
// reported in its own result and does not stop the others.
func (engine *ConversionEngine) BatchConvert(ctx context.Context, amount float64, from string, targets []string) []models.BatchResult {
	results := make([]models.BatchResult, 0, len(targets))

	for _, target := range targets {
		conversion, err := engine.Convert(ctx, amount, from, target)
		if err != nil {
			results = append(results, models.BatchResult{To: target, Error: err.Error(), Err: err})
			continue
		}
		converted := conversion
		results = append(results, models.BatchResult{To: conversion.To, Conversion: &converted})
	}
	return results
}

// RateInfo returns the rate in both directions between a and b.
func (engine *ConversionEngine) RateInfo(ctx context.Context, a, b string) (models.RateInfo, error) {
	forward, err := engine.Convert(ctx, 1.0, a, b)
	if err != nil {
		return models.RateInfo{}, err
	}
	reverse, err := engine.Convert(ctx, 1.0, b, a)
	if err != nil {
		return models.RateInfo{}, err
	}
	return models.RateInfo{
		From:    forward.From,
		To:      forward.To,
		Forward: forward.Rate,
		Reverse: reverse.Rate,
	}, nil
}

// RateTable exposes the source table for base.
func (engine *ConversionEngine) RateTable(ctx context.Context, base string) (models.RateTable, error) {
	return engine.source.Rates(ctx, base)
}

// ListCurrencies returns every code in the table for base, base included,
// sorted and without duplicates.
func (engine *ConversionEngine) ListCurrencies(ctx context.Context, base string) ([]string, error) {
	table, err := engine.source.Rates(ctx, base)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, table.Len()+1)
	codes := make([]string, 0, table.Len()+1)
	for _, code := range append(table.Codes(), table.Base()) {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// IsValidCode reports whether code appears in the reference table for the
// default base or is that base. Any lookup failure counts as invalid.
func (engine *ConversionEngine) IsValidCode(ctx context.Context, code string) bool {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return false
	}
	if normalized == engine.defaultBase {
		return true
	}

	table, err := engine.source.Rates(ctx, engine.defaultBase)
	if err != nil {
		engine.logger.WithFields(logrus.Fields{"code": normalized, "error": err.Error()}).Warn("could not validate currency code")
		return false
	}
	_, ok := table.Rate(normalized)
	return ok
}
