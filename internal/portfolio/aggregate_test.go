package portfolio

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioEngine/internal/domain"
)

func quote(price float64) domain.PriceQuote {
	return domain.PriceQuote{Price: price, AsOf: time.Now()}
}

func TestAggregateRealizedAndUnrealized(t *testing.T) {
	// Scenario from the acceptance checklist: one closed trade with persisted
	// pnl 50, one open long entered at 100 with quantity 2, priced at 110.
	trades := []*domain.Trade{
		{
			ID: 1, Symbol: "BTCUSDT", Direction: domain.Long, Status: domain.StatusClosed,
			EntryPrice: 90, ExitPrice: 115, Quantity: 2, Leverage: 1, PNL: 50,
		},
		{
			ID: 2, Symbol: "BTCUSDT", Direction: domain.Long, Status: domain.StatusOpen,
			EntryPrice: 100, Quantity: 2, Leverage: 1,
		},
	}
	prices := domain.PriceMap{"BTCUSDT": quote(110)}

	snap := Aggregate(trades, prices)

	assert.InDelta(t, 50.0, snap.RealizedPnL, 1e-9)
	assert.InDelta(t, 20.0, snap.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 70.0, snap.TotalPnL, 1e-9)

	require.Len(t, snap.OpenPositions, 1)
	require.NotNil(t, snap.OpenPositions[0].CurrentPrice)
	assert.InDelta(t, 110.0, *snap.OpenPositions[0].CurrentPrice, 1e-9)

	totals := snap.BySymbol["BTCUSDT"]
	assert.InDelta(t, 50.0, totals.Realized, 1e-9)
	assert.InDelta(t, 20.0, totals.Unrealized, 1e-9)
	assert.Equal(t, 2, totals.TradeCount)
}

func TestAggregateMissingPriceIsUnknownNotZero(t *testing.T) {
	trades := []*domain.Trade{
		{
			ID: 1, Symbol: "BTCUSDT", Direction: domain.Long, Status: domain.StatusOpen,
			EntryPrice: 100, Quantity: 2, Leverage: 1,
		},
	}

	snap := Aggregate(trades, domain.PriceMap{})

	assert.Zero(t, snap.UnrealizedPnL)
	require.Len(t, snap.OpenPositions, 1)
	// nil price, not a zero price: consumers must be able to tell "unknown
	// valuation" apart from break-even.
	assert.Nil(t, snap.OpenPositions[0].CurrentPrice)
	assert.False(t, snap.OpenPositions[0].Invalid)
	assert.Zero(t, snap.OpenPositions[0].UnrealizedPnL)
}

func TestAggregateInvalidTradeIsFlaggedNotFatal(t *testing.T) {
	trades := []*domain.Trade{
		{
			ID: 1, Symbol: "ETHUSDT", Direction: domain.Long, Status: domain.StatusOpen,
			EntryPrice: 0, Quantity: 2, Leverage: 1, // bad record
		},
		{
			ID: 2, Symbol: "ETHUSDT", Direction: domain.Long, Status: domain.StatusOpen,
			EntryPrice: 2000, Quantity: 1, Leverage: 1,
		},
	}
	prices := domain.PriceMap{"ETHUSDT": quote(2100)}

	snap := Aggregate(trades, prices)

	require.Len(t, snap.OpenPositions, 2)
	assert.True(t, snap.OpenPositions[0].Invalid)
	assert.Zero(t, snap.OpenPositions[0].UnrealizedPnL)
	// The healthy trade still values normally.
	assert.False(t, snap.OpenPositions[1].Invalid)
	assert.InDelta(t, 100.0, snap.UnrealizedPnL, 1e-9)
}

func TestAggregateShortPosition(t *testing.T) {
	trades := []*domain.Trade{
		{
			ID: 1, Symbol: "SOLUSDT", Direction: domain.Short, Status: domain.StatusOpen,
			EntryPrice: 200, Quantity: 10, Leverage: 3,
		},
	}
	prices := domain.PriceMap{"SOLUSDT": quote(180)}

	snap := Aggregate(trades, prices)

	assert.InDelta(t, 600.0, snap.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 30.0, snap.OpenPositions[0].UnrealizedPnLPct, 1e-9)
}

func TestAggregateOrderIndependent(t *testing.T) {
	trades := []*domain.Trade{
		{ID: 1, Symbol: "BTCUSDT", Status: domain.StatusClosed, PNL: 50},
		{ID: 2, Symbol: "ETHUSDT", Status: domain.StatusClosed, PNL: -30},
		{ID: 3, Symbol: "BTCUSDT", Direction: domain.Long, Status: domain.StatusOpen, EntryPrice: 100, Quantity: 2, Leverage: 1},
		{ID: 4, Symbol: "ETHUSDT", Direction: domain.Short, Status: domain.StatusOpen, EntryPrice: 2000, Quantity: 1, Leverage: 2},
		{ID: 5, Symbol: "SOLUSDT", Direction: domain.Long, Status: domain.StatusOpen, EntryPrice: 150, Quantity: 4, Leverage: 1},
	}
	prices := domain.PriceMap{
		"BTCUSDT": quote(110),
		"ETHUSDT": quote(1900),
	}

	want := Aggregate(trades, prices)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]*domain.Trade, len(trades))
		copy(shuffled, trades)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Aggregate(shuffled, prices)
		assert.Equal(t, want.RealizedPnL, got.RealizedPnL)
		assert.Equal(t, want.UnrealizedPnL, got.UnrealizedPnL)
		assert.Equal(t, want.TotalPnL, got.TotalPnL)
		assert.Equal(t, want.BySymbol, got.BySymbol)
	}
}

func TestAggregateEmptyInputs(t *testing.T) {
	snap := Aggregate(nil, nil)
	assert.Zero(t, snap.RealizedPnL)
	assert.Zero(t, snap.UnrealizedPnL)
	assert.Zero(t, snap.TotalPnL)
	assert.Empty(t, snap.OpenPositions)
	assert.Empty(t, snap.BySymbol)
}

func TestBreakdownExcludesNetZeroSymbols(t *testing.T) {
	trades := []*domain.Trade{
		{ID: 1, Symbol: "BTCUSDT", Status: domain.StatusClosed, PNL: 50},
		{ID: 2, Symbol: "ETHUSDT", Status: domain.StatusClosed, PNL: 0},
		{ID: 3, Symbol: "SOLUSDT", Direction: domain.Long, Status: domain.StatusOpen, EntryPrice: 150, Quantity: 4, Leverage: 1},
	}

	// SOLUSDT has no price, so its contribution is zero as well.
	snap := Aggregate(trades, domain.PriceMap{})

	// Full map keeps every symbol.
	assert.Len(t, snap.BySymbol, 3)

	breakdown := snap.Breakdown()
	assert.Len(t, breakdown, 1)
	assert.Contains(t, breakdown, "BTCUSDT")
}
