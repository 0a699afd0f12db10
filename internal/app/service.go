package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"portfolioEngine/config"
	"portfolioEngine/internal/domain"
	"portfolioEngine/internal/portfolio"
	"portfolioEngine/internal/ports"
	"portfolioEngine/internal/pricefeed"
)

// Valuation is the complete derived state handed to presentation: the
// aggregated snapshot, the equity curve with its live tail point, and the
// maximum drawdown over that curve.
type Valuation struct {
	Snapshot    *domain.PortfolioSnapshot
	EquityCurve []domain.EquityPoint
	MaxDrawdown float64 // percent
	Connected   bool    // whether the last price poll succeeded
	ComputedAt  time.Time
}

// PortfolioService orchestrates the valuation engine: it reads trades from
// the repository, keeps the price poller pointed at the open-position symbol
// set, and recomputes the full valuation from scratch on every price update.
type PortfolioService struct {
	cfg    *config.Config
	logger ports.Logger
	repo   ports.TradeRepository
	poller *pricefeed.Poller

	// State fields
	mu     sync.Mutex // Protects access to state fields below
	trades []*domain.Trade
	latest *Valuation
}

// NewPortfolioService creates a new application service instance.
func NewPortfolioService(
	cfg *config.Config,
	logger ports.Logger,
	repo ports.TradeRepository,
	poller *pricefeed.Poller,
) (*PortfolioService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || repo == nil || poller == nil {
		return nil, fmt.Errorf("missing required dependencies for PortfolioService")
	}

	return &PortfolioService{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		poller: poller,
	}, nil
}

// Start begins the valuation loop and blocks until the context is cancelled
// or a shutdown signal arrives.
func (s *PortfolioService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Portfolio Service...")

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// --- Initialization Steps ---
	// 1. Load the trade list; state is critical, so a failed initial load is fatal.
	if err := s.reloadTrades(ctx); err != nil {
		s.logger.Error(ctx, err, "Failed to load initial trade list")
		return fmt.Errorf("failed to load initial trade list: %w", err)
	}

	// 2. Compute an initial valuation before any price arrives, so consumers
	// see realized totals (and open positions as "unknown") immediately.
	s.recompute(domain.PriceMap{})

	// 3. Start polling prices for the open-position symbol set.
	if err := s.poller.Start(ctx, s.openSymbols(), s.handlePriceUpdate); err != nil {
		s.logger.Error(ctx, err, "Failed to start price poller")
		return fmt.Errorf("failed to start price poller: %w", err)
	}
	defer s.poller.Stop()
	s.retargetPoller()
	s.logger.Info(ctx, "Price poller started", map[string]interface{}{"interval": s.cfg.PollInterval.String()})

	// --- Main Loop ---
	// Valuation work happens in handlePriceUpdate; here we periodically
	// refresh the trade list so new or closed trades are picked up.
	reload := time.NewTicker(s.cfg.TradeReload)
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Portfolio Service stopping...")
			return nil
		case <-reload.C:
			if err := s.reloadTrades(ctx); err != nil {
				// Not fatal: keep valuing the last known trade list.
				s.logger.Warn(ctx, "Trade list reload failed, keeping previous list", map[string]interface{}{"error": err.Error()})
				continue
			}
			s.retargetPoller()
			s.recompute(s.poller.Snapshot())
		}
	}
}

// Latest returns the most recently computed valuation, or nil before the
// first pass.
func (s *PortfolioService) Latest() *Valuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// handlePriceUpdate is invoked by the poller with each new price map
// generation. The map is one consistent snapshot; the whole valuation is
// recomputed against it.
func (s *PortfolioService) handlePriceUpdate(prices domain.PriceMap) {
	s.recompute(prices)
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	ctx := context.Background()
	s.logger.Debug(ctx, "Valuation recomputed", map[string]interface{}{
		"realized":   latest.Snapshot.RealizedPnL,
		"unrealized": latest.Snapshot.UnrealizedPnL,
		"total":      latest.Snapshot.TotalPnL,
		"positions":  len(latest.Snapshot.OpenPositions),
	})
}

// reloadTrades refreshes the in-memory trade list from the repository.
func (s *PortfolioService) reloadTrades(ctx context.Context) error {
	trades, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.trades = trades
	s.mu.Unlock()
	s.logger.Debug(ctx, "Trade list loaded", map[string]interface{}{"count": len(trades)})
	return nil
}

// openSymbols returns the distinct symbols of currently open trades, sorted.
func (s *PortfolioService) openSymbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, t := range s.trades {
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

// retargetPoller points the poller at the current open-position symbols and
// tightens the cadence when a single position is being tracked.
func (s *PortfolioService) retargetPoller() {
	symbols := s.openSymbols()
	s.poller.SetSymbols(symbols)

	interval := s.cfg.PollInterval
	if len(symbols) == 1 && s.cfg.FocusedPollInterval > 0 {
		interval = s.cfg.FocusedPollInterval
	}
	s.poller.SetInterval(interval)
}

// recompute derives a fresh Valuation from the current trade list and one
// price map generation. Derived state is always rebuilt from scratch; nothing
// incremental survives between passes.
func (s *PortfolioService) recompute(prices domain.PriceMap) {
	s.mu.Lock()
	trades := s.trades
	s.mu.Unlock()

	snap := portfolio.Aggregate(trades, prices)
	curve := portfolio.BuildCurve(trades, s.cfg.StartingEquity, snap.UnrealizedPnL)
	drawdown := portfolio.MaxDrawdownPercent(curve)

	valuation := &Valuation{
		Snapshot:    snap,
		EquityCurve: curve,
		MaxDrawdown: drawdown,
		Connected:   s.poller.Connected(),
		ComputedAt:  time.Now(),
	}

	s.mu.Lock()
	s.latest = valuation
	s.mu.Unlock()
}
