package main

import (
	"flag"
	"log"
	"os"

	"StockOracle/internal/di"
	"StockOracle/pkg/config"

	"github.com/shopspring/decimal"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Prices go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	log.Printf("env=%s oracle=%s alerts=%s", cfg.Environment, cfg.Oracle.BaseURL, cfg.Alerts.Backend)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
