package domain

import "time"

// PositionValuation is the live valuation of a single open trade. Derived,
// never persisted.
type PositionValuation struct {
	Trade            *Trade
	CurrentPrice     *float64 // nil when the symbol is missing from the price map
	UnrealizedPnL    float64  // 0 when CurrentPrice is nil or the record is invalid
	UnrealizedPnLPct float64
	Invalid          bool // set when the trade record has a non-positive entry price or quantity
}

// SymbolTotals accumulates realized and unrealized PnL for one symbol.
type SymbolTotals struct {
	Realized   float64
	Unrealized float64
	TradeCount int
}

// PortfolioSnapshot is the full derived valuation of a trade list against one
// price map generation. Recomputed from scratch on every valuation pass.
type PortfolioSnapshot struct {
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
	BySymbol      map[string]SymbolTotals
	OpenPositions []PositionValuation
}

// Breakdown returns the per-symbol totals with net-zero symbols excluded,
// suitable for a breakdown view. The underlying BySymbol map keeps every
// symbol.
func (s *PortfolioSnapshot) Breakdown() map[string]SymbolTotals {
	out := make(map[string]SymbolTotals)
	for sym, totals := range s.BySymbol {
		if totals.Realized == 0 && totals.Unrealized == 0 {
			continue
		}
		out[sym] = totals
	}
	return out
}

// EquityPoint is one point on the cumulative equity curve, ordered by the
// closing time of the underlying trade. The final synthetic point carries the
// label "now" and folds in live unrealized PnL.
type EquityPoint struct {
	Label              string    // Human-readable timestamp label, or "now" for the live tail point
	Time               time.Time // Exit time of the underlying trade (zero for the tail point)
	CumulativeRealized float64
	CumulativeTotal    float64
}
