package ports

import (
	"context"

	"portfolioEngine/internal/domain"
)

// TradeRepository defines the interface for storing and retrieving trade
// records. The valuation engine itself only calls List; the write side of the
// contract exists for hosts that own the trade lifecycle.
type TradeRepository interface {
	// List retrieves all trades, ordered by entry time descending.
	List(ctx context.Context) ([]*domain.Trade, error)
	// FindOpen retrieves all currently open trades.
	FindOpen(ctx context.Context) ([]*domain.Trade, error)
	// Create saves a new trade record and returns its assigned ID.
	Create(ctx context.Context, trade *domain.Trade) (int64, error)
	// Update modifies an existing trade record.
	Update(ctx context.Context, trade *domain.Trade) error
	// Delete removes a trade record by ID.
	Delete(ctx context.Context, id int64) error
	// RealizedTotal calculates the sum of persisted PNL for all closed trades.
	RealizedTotal(ctx context.Context) (float64, error)
}
