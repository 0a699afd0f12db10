package domain

import "time"

// Trade represents a trade record owned by the external trade repository.
// The engine only reads trades; it never creates or mutates them.
type Trade struct {
	ID         int64       // Unique identifier for the trade (usually from DB)
	Symbol     string      // Trading pair symbol (e.g., "BTCUSDT")
	Direction  Direction   // long or short
	Status     TradeStatus // open or closed
	EntryPrice float64     // Price at which the position was entered
	ExitPrice  float64     // Price at which the position was exited (0 while open)
	Quantity   float64     // Size of the position in base-asset units
	Leverage   float64     // Leverage multiplier, 1 if unset
	PNL        float64     // Profit and loss, persisted at close time (meaningless while open)
	PNLPercent float64     // Percentage PnL, persisted at close time
	EntryTime  time.Time   // Timestamp when the position was entered
	ExitTime   time.Time   // Timestamp when the position was exited (zero value while open)
}

// IsOpen checks if the trade is still open.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}

// IsClosed checks if the trade has been closed.
// A closed trade's PNL and PNLPercent are immutable snapshots taken at close
// time; the engine never recomputes them from prices.
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}
