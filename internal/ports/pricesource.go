package ports

import (
	"context"

	"portfolioEngine/internal/domain"
)

// PriceSource defines the interface for looking up current prices.
// This abstraction allows decoupling the valuation engine from specific
// price-feed implementations.
type PriceSource interface {
	// GetPrices retrieves the current price for each of the given trading-pair
	// symbols. Symbols the source cannot resolve or price are simply absent
	// from the returned map; a partial result is not an error. An error is
	// returned only when the feed itself is unreachable or the whole request
	// fails.
	GetPrices(ctx context.Context, symbols []string) (domain.PriceMap, error)
}
