package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/service"
)

const rule = "============================================"

// PopularCurrencies is shown before prompts; any code the source knows is accepted.
var PopularCurrencies = [][2]string{
	{"USD", "US Dollar"},
	{"EUR", "Euro"},
	{"GBP", "British Pound"},
	{"JPY", "Japanese Yen"},
	{"CHF", "Swiss Franc"},
	{"CAD", "Canadian Dollar"},
	{"AUD", "Australian Dollar"},
	{"CNY", "Chinese Yuan"},
	{"INR", "Indian Rupee"},
	{"KRW", "South Korean Won"},
	{"BRL", "Brazilian Real"},
	{"MXN", "Mexican Peso"},
	{"ZAR", "South African Rand"},
	{"SGD", "Singapore Dollar"},
	{"HKD", "Hong Kong Dollar"},
}

// Console is the interactive menu front-end. It reads line by line from in
// and calls the engine on the same goroutine.
type Console struct {
	engine  *service.ConversionEngine
	scanner *bufio.Scanner
	out     io.Writer
}

func New(engine *service.ConversionEngine, in io.Reader, out io.Writer) *Console {
	return &Console{
		engine:  engine,
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Run shows the menu until the user exits or input ends.
func (c *Console) Run(ctx context.Context) error {
	c.printf("%s\n  CURRENCY CONVERTER (%s rates)\n%s\n", rule, c.engine.Source().Name(), rule)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.printf("\nSelect operation:\n")
		c.printf("1. Single conversion\n")
		c.printf("2. Batch conversion (to multiple currencies)\n")
		c.printf("3. View exchange rate info\n")
		c.printf("4. List all available currencies\n")
		c.printf("5. View popular currencies\n")
		c.printf("6. Exit\n")

		line, ok := c.prompt("\nYour choice (1-6): ")
		if !ok {
			break
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > 6 {
			c.printf("Invalid choice. Please select 1-6.\n")
			continue
		}
		if choice == 6 {
			break
		}

		var done bool
		switch choice {
		case 1:
			done = c.singleConversion(ctx)
		case 2:
			done = c.batchConversion(ctx)
		case 3:
			done = c.rateInfo(ctx)
		case 4:
			c.listCurrencies(ctx)
		case 5:
			c.popularCurrencies()
		}
		if done {
			break
		}

		answer, ok := c.prompt("\nContinue using the converter? (yes/no): ")
		if !ok || !isYes(answer) {
			break
		}
	}

	c.printf("\nThank you for using the currency converter!\n")
	return nil
}

// ConvertOnce runs one conversion and prints it, for non-interactive use.
func (c *Console) ConvertOnce(ctx context.Context, amount float64, from, to string) error {
	conversion, err := c.engine.Convert(ctx, amount, from, to)
	if err != nil {
		return err
	}
	c.printConversion(conversion)
	return nil
}

// singleConversion returns true when input ended mid-dialog.
func (c *Console) singleConversion(ctx context.Context) bool {
	c.popularCurrencies()

	from, ok := c.readCode(ctx, "\nEnter source currency (e.g., USD): ")
	if !ok {
		return true
	}
	to, ok := c.readCode(ctx, "Enter target currency (e.g., EUR): ")
	if !ok {
		return true
	}
	amount, ok := c.readAmount("Enter amount: ")
	if !ok {
		return true
	}

	c.printf("\nFetching exchange rates...\n")
	if err := c.ConvertOnce(ctx, amount, from, to); err != nil {
		c.printError(err)
	}
	return false
}

func (c *Console) batchConversion(ctx context.Context) bool {
	c.popularCurrencies()

	from, ok := c.readCode(ctx, "\nEnter source currency (e.g., USD): ")
	if !ok {
		return true
	}
	amount, ok := c.readAmount("Enter amount: ")
	if !ok {
		return true
	}
	line, ok := c.prompt("Enter target currencies separated by commas (e.g., EUR,GBP,JPY): ")
	if !ok {
		return true
	}

	var targets []string
	for _, target := range strings.Split(line, ",") {
		if target = strings.ToUpper(strings.TrimSpace(target)); target != "" {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		c.printf("No target currencies given.\n")
		return false
	}

	c.printf("\nFetching exchange rates...\n")
	c.printf("\n===== Batch Conversion =====\n")
	c.printf("Converting %s %s to:\n", models.FormatAmount(amount), from)
	c.printf("============================\n")
	for _, result := range c.engine.BatchConvert(ctx, amount, from, targets) {
		if result.Err != nil {
			c.printf("%-5s = Error: %s\n", result.To, result.Error)
			continue
		}
		c.printf("%-5s = %12s\n", result.To, models.FormatAmount(result.Conversion.Converted))
	}
	return false
}

func (c *Console) rateInfo(ctx context.Context) bool {
	c.popularCurrencies()

	first, ok := c.readCode(ctx, "\nEnter first currency (e.g., USD): ")
	if !ok {
		return true
	}
	second, ok := c.readCode(ctx, "Enter second currency (e.g., EUR): ")
	if !ok {
		return true
	}

	c.printf("\nFetching exchange rates...\n")
	info, err := c.engine.RateInfo(ctx, first, second)
	if err != nil {
		c.printError(err)
		return false
	}

	c.printf("\n===== Exchange Rate Info =====\n")
	for _, line := range info.Lines() {
		c.printf("%s\n", line)
	}
	c.printf("==============================\n")
	return false
}

func (c *Console) listCurrencies(ctx context.Context) {
	c.printf("\nFetching all available currencies...\n")
	codes, err := c.engine.ListCurrencies(ctx, c.engine.DefaultBase())
	if err != nil {
		c.printError(err)
		return
	}

	c.printf("\n===== All Available Currencies =====\n")
	c.printf("(%d currencies)\n", len(codes))
	c.printf("====================================\n")
	for i, code := range codes {
		c.printf("%-5s", code)
		if (i+1)%10 == 0 {
			c.printf("\n")
		}
	}
	c.printf("\n====================================\n")
}

func (c *Console) popularCurrencies() {
	c.printf("\n===== Popular Currencies =====\n")
	for _, currency := range PopularCurrencies {
		c.printf("%-5s - %s\n", currency[0], currency[1])
	}
	c.printf("==============================\n")
}

// readCode prompts until the answer is a 3-letter code the rate source
// recognizes.
func (c *Console) readCode(ctx context.Context, label string) (string, bool) {
	for {
		line, ok := c.prompt(label)
		if !ok {
			return "", false
		}
		code, err := service.NormalizeCode(line)
		if err != nil {
			c.printf("Currency code must be 3 letters (e.g., USD, EUR, JPY)\n")
			continue
		}
		if !c.engine.IsValidCode(ctx, code) {
			c.printf("Unknown currency code %s, please try again.\n", code)
			continue
		}
		return code, true
	}
}

func (c *Console) readAmount(label string) (float64, bool) {
	for {
		line, ok := c.prompt(label)
		if !ok {
			return 0, false
		}
		amount, err := strconv.ParseFloat(line, 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
			c.printf("Invalid input. Please enter a valid number.\n")
			continue
		}
		if amount < 0 {
			c.printf("Please enter a positive number.\n")
			continue
		}
		return amount, true
	}
}

func (c *Console) printConversion(conversion models.Conversion) {
	c.printf("\n%s\n", rule)
	c.printf("%s\n", conversion.String())
	c.printf("Exchange Rate: %s\n", conversion.RateLine())
	c.printf("%s\n", rule)
}

func (c *Console) printError(err error) {
	c.printf("\nError: %v\n", err)
	if service.KindOf(err) == service.KindAllProvidersExhausted {
		c.printf("Please check your internet connection and try again.\n")
	}
}

func (c *Console) prompt(label string) (string, bool) {
	c.printf("%s", label)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *Console) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func isYes(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
