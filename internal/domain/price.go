package domain

import "time"

// PriceQuote is a single observed price for a symbol.
type PriceQuote struct {
	Price float64   // Last known price in the quote currency (USD)
	AsOf  time.Time // When the price was fetched
}

// PriceMap maps trading-pair symbols to their latest quotes. A symbol may be
// legitimately absent (feed lookup failed); consumers must treat absence as
// "valuation unknown", not as a zero price.
type PriceMap map[string]PriceQuote

// Lookup returns the quote for a symbol and whether one is present.
func (m PriceMap) Lookup(symbol string) (PriceQuote, bool) {
	q, ok := m[symbol]
	return q, ok
}

// Clone returns an independent copy of the map. The price poller replaces
// whole generations instead of mutating in place, so readers always see one
// consistent snapshot.
func (m PriceMap) Clone() PriceMap {
	out := make(PriceMap, len(m))
	for sym, q := range m {
		out[sym] = q
	}
	return out
}
