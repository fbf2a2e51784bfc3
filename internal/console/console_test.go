package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dalfonso89/currency-converter/internal/service"
	"github.com/dalfonso89/currency-converter/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, script string) string {
	t.Helper()
	engine := service.NewConversionEngine(service.NewStaticSource(), "USD", testutils.MockLogger(), nil)
	var out bytes.Buffer
	require.NoError(t, New(engine, strings.NewReader(script), &out).Run(context.Background()))
	return out.String()
}

func TestConsole_SingleConversion(t *testing.T) {
	out := runScript(t, "1\nUSD\nEUR\n100\nno\n")

	assert.Contains(t, out, "100.00 USD = 92.00 EUR")
	assert.Contains(t, out, "Exchange Rate: 1 USD = 0.920000 EUR")
	assert.Contains(t, out, "Thank you for using the currency converter!")
}

func TestConsole_RepromptsOnBadInput(t *testing.T) {
	out := runScript(t, "1\nUS\nXYZ\nusd\neur\nabc\n-5\n10\nno\n")

	assert.Contains(t, out, "Currency code must be 3 letters")
	assert.Contains(t, out, "Unknown currency code XYZ")
	assert.Contains(t, out, "Invalid input. Please enter a valid number.")
	assert.Contains(t, out, "Please enter a positive number.")
	assert.Contains(t, out, "10.00 USD = 9.20 EUR")
}

func TestConsole_RepromptsOnNonFiniteAmount(t *testing.T) {
	out := runScript(t, "1\nUSD\nEUR\nNaN\nInf\n-Inf\n1\nno\n")

	assert.Equal(t, 3, strings.Count(out, "Invalid input. Please enter a valid number."))
	assert.NotContains(t, out, "Error:")
	assert.Contains(t, out, "1.00 USD = 0.92 EUR")
}

func TestConsole_BatchConversion(t *testing.T) {
	out := runScript(t, "2\nUSD\n10\nEUR, gbp,XYZ\nno\n")

	assert.Contains(t, out, "Converting 10.00 USD to:")
	assert.Contains(t, out, "EUR   =         9.20")
	assert.Contains(t, out, "GBP   =         7.90")
	assert.Contains(t, out, "XYZ   = Error: currency code not supported: XYZ")
}

func TestConsole_RateInfo(t *testing.T) {
	out := runScript(t, "3\nUSD\nEUR\nno\n")

	assert.Contains(t, out, "1 USD = 0.920000 EUR")
	assert.Contains(t, out, "1 EUR = 1.086957 USD")
}

func TestConsole_ListAndPopular(t *testing.T) {
	out := runScript(t, "4\nyes\n5\ny\n6\n")

	assert.Contains(t, out, "(10 currencies)")
	assert.Contains(t, out, "CHF   - Swiss Franc")
	assert.Equal(t, 1, strings.Count(out, "Thank you"))
}

func TestConsole_InvalidChoice(t *testing.T) {
	out := runScript(t, "9\nabc\n6\n")

	assert.Equal(t, 2, strings.Count(out, "Invalid choice. Please select 1-6."))
}

func TestConsole_EndOfInput(t *testing.T) {
	out := runScript(t, "1\nUSD\n")

	assert.Contains(t, out, "Thank you")
	assert.NotContains(t, out, "Exchange Rate:")
}

func TestConsole_CanceledContext(t *testing.T) {
	engine := service.NewConversionEngine(service.NewStaticSource(), "USD", testutils.MockLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(engine, strings.NewReader("1\n"), &bytes.Buffer{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsole_ConvertOnce(t *testing.T) {
	engine := service.NewConversionEngine(service.NewStaticSource(), "USD", testutils.MockLogger(), nil)
	var out bytes.Buffer
	ui := New(engine, strings.NewReader(""), &out)

	require.NoError(t, ui.ConvertOnce(context.Background(), 2, "usd", "jpy"))
	assert.Contains(t, out.String(), "2.00 USD = 299.00 JPY")

	err := ui.ConvertOnce(context.Background(), 2, "USD", "SEK")
	assert.ErrorIs(t, err, service.ErrUnknownCurrency)
}
