package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can branch without matching messages
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindInvalidCurrencyCode: malformed caller input, never retried
	KindInvalidCurrencyCode
	// KindInvalidAmount: negative or non-finite amount
	KindInvalidAmount
	// KindProviderUnavailable: transport failure or non-200 status from one provider
	KindProviderUnavailable
	// KindProviderMalformedResponse: one provider answered without a usable rate mapping
	KindProviderMalformedResponse
	// KindAllProvidersExhausted: every provider failed for this call
	KindAllProvidersExhausted
	// KindUnknownCurrency: target absent from an otherwise good table
	KindUnknownCurrency
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCurrencyCode:
		return "invalid currency code"
	case KindInvalidAmount:
		return "invalid amount"
	case KindProviderUnavailable:
		return "provider unavailable"
	case KindProviderMalformedResponse:
		return "provider malformed response"
	case KindAllProvidersExhausted:
		return "all providers exhausted"
	case KindUnknownCurrency:
		return "unknown currency"
	default:
		return "unknown error"
	}
}

// Error is the single error type returned by the rate and conversion layer.
type Error struct {
	Kind     ErrorKind
	Code     string // currency code for InvalidCurrencyCode and UnknownCurrency
	Provider string // provider name, for AllProvidersExhausted the last one tried
	Status   int    // upstream HTTP status, 0 on transport failure
	Attempts int
	Err      error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInvalidCurrencyCode       = &Error{Kind: KindInvalidCurrencyCode}
	ErrInvalidAmount             = &Error{Kind: KindInvalidAmount}
	ErrProviderUnavailable       = &Error{Kind: KindProviderUnavailable}
	ErrProviderMalformedResponse = &Error{Kind: KindProviderMalformedResponse}
	ErrAllProvidersExhausted     = &Error{Kind: KindAllProvidersExhausted}
	ErrUnknownCurrency           = &Error{Kind: KindUnknownCurrency}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindInvalidCurrencyCode:
		msg = fmt.Sprintf("invalid currency code %q: must be 3 letters", e.Code)
	case KindInvalidAmount:
		msg = "amount must be a non-negative number"
	case KindProviderUnavailable:
		if e.Status != 0 {
			msg = fmt.Sprintf("provider %s unavailable: HTTP %d", e.Provider, e.Status)
		} else {
			msg = fmt.Sprintf("provider %s unavailable", e.Provider)
		}
	case KindProviderMalformedResponse:
		msg = fmt.Sprintf("provider %s returned a malformed response", e.Provider)
	case KindAllProvidersExhausted:
		msg = fmt.Sprintf("all %d providers failed, last was %s", e.Attempts, e.Provider)
	case KindUnknownCurrency:
		msg = fmt.Sprintf("currency code not supported: %s", e.Code)
	default:
		msg = e.Kind.String()
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so errors.Is(err, ErrUnknownCurrency) works for any code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) ErrorKind {
	var serviceError *Error
	if errors.As(err, &serviceError) {
		return serviceError.Kind
	}
	return KindUnknown
}

func invalidCode(code string) error {
	return &Error{Kind: KindInvalidCurrencyCode, Code: code}
}

func unknownCurrency(code string) error {
	return &Error{Kind: KindUnknownCurrency, Code: code}
}

func providerUnavailable(provider string, status int, cause error) error {
	return &Error{Kind: KindProviderUnavailable, Provider: provider, Status: status, Err: cause}
}

func malformedResponse(provider string, cause error) error {
	return &Error{Kind: KindProviderMalformedResponse, Provider: provider, Err: cause}
}
