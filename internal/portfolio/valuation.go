package portfolio

import (
	"fmt"

	"portfolioEngine/internal/domain"
	"portfolioEngine/internal/ports"
)

// PnLResult holds the outcome of a single profit-and-loss calculation.
type PnLResult struct {
	PnL        float64 // Absolute profit or loss in quote currency
	PnLPercent float64 // PnL relative to the entry price, leverage applied
}

// ComputePnL calculates profit and loss for one position given its entry
// price and a current (or exit) price. The price delta is current-entry for
// long and entry-current for short, scaled by quantity and leverage.
//
// Callers must not substitute a stale or zero price when none is available;
// a missing price is the caller's condition to handle (ErrPriceUnavailable),
// not an input to this function.
func ComputePnL(direction domain.Direction, entryPrice, currentPrice, quantity, leverage float64) (PnLResult, error) {
	if entryPrice <= 0 {
		return PnLResult{}, fmt.Errorf("entry price %v: %w", entryPrice, ports.ErrInvalidTradeData)
	}
	if quantity <= 0 {
		return PnLResult{}, fmt.Errorf("quantity %v: %w", quantity, ports.ErrInvalidTradeData)
	}
	if currentPrice <= 0 {
		return PnLResult{}, fmt.Errorf("current price %v: %w", currentPrice, ports.ErrPriceUnavailable)
	}
	if leverage <= 0 {
		leverage = 1 // Repository default when unset
	}

	delta := currentPrice - entryPrice
	if direction == domain.Short {
		delta = entryPrice - currentPrice
	}

	return PnLResult{
		PnL:        delta * quantity * leverage,
		PnLPercent: delta / entryPrice * 100 * leverage,
	}, nil
}
