package portfolio

import (
	"portfolioEngine/internal/domain"
)

// Aggregate folds a trade list and one price-map generation into a
// PortfolioSnapshot. Closed trades contribute their persisted PNL (never
// recomputed); open trades are valued live against the price map.
//
// An open trade whose symbol is missing from the map contributes zero to the
// unrealized sum but is still listed with a nil CurrentPrice, so consumers
// can distinguish "no position" from "unknown valuation". A trade with a
// non-positive entry price or quantity is flagged Invalid instead of blanking
// the whole snapshot.
//
// The fold is pure: inputs are not mutated, and identical inputs always yield
// identical output regardless of trade-list order.
func Aggregate(trades []*domain.Trade, prices domain.PriceMap) *domain.PortfolioSnapshot {
	snap := &domain.PortfolioSnapshot{
		BySymbol:      make(map[string]domain.SymbolTotals),
		OpenPositions: make([]domain.PositionValuation, 0),
	}

	for _, t := range trades {
		totals := snap.BySymbol[t.Symbol]
		totals.TradeCount++

		switch {
		case t.IsClosed():
			snap.RealizedPnL += t.PNL
			totals.Realized += t.PNL

		case t.IsOpen():
			pv := valueOpenPosition(t, prices)
			snap.OpenPositions = append(snap.OpenPositions, pv)
			snap.UnrealizedPnL += pv.UnrealizedPnL
			totals.Unrealized += pv.UnrealizedPnL

		default:
			// Unknown status: exclude from both sums, but keep the symbol's
			// trade count honest.
		}

		snap.BySymbol[t.Symbol] = totals
	}

	snap.TotalPnL = snap.RealizedPnL + snap.UnrealizedPnL
	return snap
}

// valueOpenPosition values one open trade against the current price map.
func valueOpenPosition(t *domain.Trade, prices domain.PriceMap) domain.PositionValuation {
	pv := domain.PositionValuation{Trade: t}

	if t.EntryPrice <= 0 || t.Quantity <= 0 {
		pv.Invalid = true
		return pv
	}

	quote, ok := prices.Lookup(t.Symbol)
	if !ok || quote.Price <= 0 {
		return pv // CurrentPrice stays nil: valuation unknown, not zero
	}

	res, err := ComputePnL(t.Direction, t.EntryPrice, quote.Price, t.Quantity, t.Leverage)
	if err != nil {
		pv.Invalid = true
		return pv
	}

	price := quote.Price
	pv.CurrentPrice = &price
	pv.UnrealizedPnL = res.PnL
	pv.UnrealizedPnLPct = res.PnLPercent
	return pv
}
