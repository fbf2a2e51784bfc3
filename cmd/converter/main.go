package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/console"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/platform"
	"github.com/dalfonso89/currency-converter/internal/service"
)

func main() {
	var (
		envFile = flag.String("env", ".env", "dotenv file to load before the environment")
		offline = flag.Bool("offline", false, "use the built-in sample rates instead of live providers")
		from    = flag.String("from", "", "source currency for a one-shot conversion")
		to      = flag.String("to", "", "target currency for a one-shot conversion")
		amount  = flag.Float64("amount", 0, "amount for a one-shot conversion")
	)
	flag.Parse()

	if err := run(*envFile, *offline, *from, *to, *amount); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string, offline bool, from, to string, amount float64) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	// stdout belongs to the prompts
	log := logger.NewWithOutput("warn", os.Stderr)
	if cfg.LogLevel == "debug" {
		log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}

	var source service.RateSource
	if offline || cfg.Offline {
		source = service.NewStaticSource()
	} else {
		providers := service.NewProviderFactory(cfg, log, nil).CreateProviders()
		failover, err := service.NewProviderFailover(providers, log, nil)
		if err != nil {
			return err
		}
		source = service.NewRatesService(service.NewRateCache(cfg.RatesCacheTTL), failover, log, nil)
	}

	engine := service.NewConversionEngine(source, cfg.DefaultBaseCurrency, log, nil)
	ui := console.New(engine, os.Stdin, os.Stdout)

	ctx, stop := platform.NewShutdownContext(context.Background())
	defer stop()

	if from != "" || to != "" {
		if from == "" || to == "" {
			return fmt.Errorf("-from and -to must be given together")
		}
		return ui.ConvertOnce(ctx, amount, from, to)
	}
	return ui.Run(ctx)
}
