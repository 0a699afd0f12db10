package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"portfolioEngine/config"
	"portfolioEngine/internal/adapters/binance"
	"portfolioEngine/internal/adapters/coingecko"
	"portfolioEngine/internal/adapters/logger"
	"portfolioEngine/internal/adapters/sqlite"
	"portfolioEngine/internal/domain"
	"portfolioEngine/internal/portfolio"
	"portfolioEngine/internal/ports"
)

// report is a one-shot host for the valuation engine: load the trade list,
// fetch prices once, print the portfolio summary and optionally export the
// equity curve to CSV.
func main() {
	csvPath := flag.String("csv", "", "write the equity curve to this CSV file")
	skipPrices := flag.Bool("no-prices", false, "skip the price fetch and value open positions as unknown")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Initialize Trade Repository
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trade repository")
		log.Fatalf("FATAL: Failed to initialize trade repository: %v", err)
	}
	defer repo.Close()

	trades, err := repo.List(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Error loading trades")
		log.Fatalf("Error loading trades: %v", err)
	}
	appLogger.Info(ctx, "Loaded trades", map[string]interface{}{"count": len(trades)})

	// 4. Fetch one price map generation for the open symbols
	prices := domain.PriceMap{}
	if !*skipPrices {
		source, err := buildPriceSource(cfg, appLogger)
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize price source")
			log.Fatalf("FATAL: Failed to initialize price source: %v", err)
		}
		fetchCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
		prices, err = source.GetPrices(fetchCtx, openSymbols(trades))
		if err != nil {
			// Degrade to unknown valuations rather than failing the report.
			appLogger.Warn(ctx, "Price fetch failed, open positions valued as unknown", map[string]interface{}{"error": err.Error()})
			prices = domain.PriceMap{}
		}
	}

	// 5. Run the valuation
	snap := portfolio.Aggregate(trades, prices)
	curve := portfolio.BuildCurve(trades, cfg.StartingEquity, snap.UnrealizedPnL)
	drawdown := portfolio.MaxDrawdownPercent(curve)

	printSummary(snap, drawdown)

	if *csvPath != "" {
		if err := portfolio.WriteCurveCSV(curve, *csvPath); err != nil {
			appLogger.Error(ctx, err, "Error writing CSV")
			log.Fatalf("Error writing CSV: %v", err)
		}
		appLogger.Info(ctx, "Equity curve saved", map[string]interface{}{"filename": *csvPath, "points": len(curve)})
	}
}

func printSummary(snap *domain.PortfolioSnapshot, drawdown float64) {
	fmt.Printf("Realized PnL:    %+.2f\n", snap.RealizedPnL)
	fmt.Printf("Unrealized PnL:  %+.2f\n", snap.UnrealizedPnL)
	fmt.Printf("Total PnL:       %+.2f\n", snap.TotalPnL)
	fmt.Printf("Max drawdown:    %.2f%%\n", drawdown)

	breakdown := snap.Breakdown()
	symbols := make([]string, 0, len(breakdown))
	for sym := range breakdown {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	if len(symbols) > 0 {
		fmt.Println("\nBy symbol:")
		for _, sym := range symbols {
			totals := breakdown[sym]
			fmt.Printf("  %-12s realized %+.2f  unrealized %+.2f  (%d trades)\n",
				sym, totals.Realized, totals.Unrealized, totals.TradeCount)
		}
	}

	if len(snap.OpenPositions) > 0 {
		fmt.Println("\nOpen positions:")
		for _, pv := range snap.OpenPositions {
			switch {
			case pv.Invalid:
				fmt.Printf("  %-12s INVALID RECORD (id %d)\n", pv.Trade.Symbol, pv.Trade.ID)
			case pv.CurrentPrice == nil:
				fmt.Printf("  %-12s price unavailable\n", pv.Trade.Symbol)
			default:
				fmt.Printf("  %-12s @ %.2f  pnl %+.2f (%+.2f%%)\n",
					pv.Trade.Symbol, *pv.CurrentPrice, pv.UnrealizedPnL, pv.UnrealizedPnLPct)
			}
		}
	}
}

func openSymbols(trades []*domain.Trade) []string {
	seen := make(map[string]struct{})
	for _, t := range trades {
		if t.IsOpen() {
			seen[t.Symbol] = struct{}{}
		}
	}
	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
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
