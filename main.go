package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"portfolioEngine/config"
	"portfolioEngine/internal/adapters/binance"
	"portfolioEngine/internal/adapters/coingecko"
	"portfolioEngine/internal/adapters/logger"
	"portfolioEngine/internal/adapters/sqlite"
	"portfolioEngine/internal/app"
	"portfolioEngine/internal/ports"
	"portfolioEngine/internal/pricefeed"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade repository")
		log.Fatalf("FATAL: Failed to initialize trade repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing trade repository")
		}
	}()
	appLogger.Info(context.Background(), "Trade repository initialized")

	// 4. Initialize Price Source
	source, err := buildPriceSource(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price source")
		log.Fatalf("FATAL: Failed to initialize price source: %v", err)
	}
	appLogger.Info(context.Background(), "Price source initialized", map[string]interface{}{"source": string(cfg.PriceSource)})

	// 5. Initialize Price Poller
	poller, err := pricefeed.New(pricefeed.Config{
		Source:   source,
		Logger:   appLogger,
		Interval: cfg.PollInterval,
		Timeout:  cfg.RequestTimeout,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price poller")
		log.Fatalf("FATAL: Failed to initialize price poller: %v", err)
	}

	// 6. Initialize Application Service
	service, err := app.NewPortfolioService(cfg, appLogger, repo, poller)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize portfolio service")
		log.Fatalf("FATAL: Failed to initialize portfolio service: %v", err)
	}
	appLogger.Info(context.Background(), "Portfolio service initialized")

	// 7. Start the Service
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Portfolio service exited with error")
		log.Fatalf("FATAL: Portfolio service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// buildPriceSource selects the configured price-feed adapter.
func buildPriceSource(cfg *config.Config, appLogger ports.Logger) (ports.PriceSource, error) {
	switch cfg.PriceSource {
	case config.SourceBinance:
		return binance.New(binance.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.IsTestnet,
			Logger:     appLogger,
		})
	default:
		symbols, err := coingecko.LoadSymbolTable(cfg.SymbolMapPath)
		if err != nil {
			return nil, err
		}
		return coingecko.New(coingecko.Config{
			BaseURL: cfg.CoinGeckoBaseURL,
			Timeout: cfg.RequestTimeout,
			Symbols: symbols,
			Logger:  appLogger,
		})
	}
}
