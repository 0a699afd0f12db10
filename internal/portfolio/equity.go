package portfolio

import (
	"sort"

	"portfolioEngine/internal/domain"
)

// timeLabelLayout formats the timestamp shown on equity curve points.
const timeLabelLayout = "2006-01-02 15:04"

// LiveLabel is the label of the synthetic trailing point carrying live
// unrealized PnL.
const LiveLabel = "now"

// BuildCurve produces the chronological cumulative-PnL series from closed
// trades. The running total starts at startingEquity (0 if unset) and
// accumulates each closed trade's persisted PNL in exit-time order.
//
// Trades are always sorted here, never trusted to arrive ordered; the sort is
// stable so trades closed at the same instant keep their original relative
// order. When at least one closed trade exists, one final synthetic point
// labeled "now" folds liveUnrealizedPnL into the total. With zero closed
// trades the series is empty and callers must render an explicit empty state.
func BuildCurve(closedTrades []*domain.Trade, startingEquity, liveUnrealizedPnL float64) []domain.EquityPoint {
	// Work on a copy: callers' slices are never reordered.
	trades := make([]*domain.Trade, 0, len(closedTrades))
	for _, t := range closedTrades {
		if t.IsClosed() {
			trades = append(trades, t)
		}
	}
	if len(trades) == 0 {
		return []domain.EquityPoint{}
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ExitTime.Before(trades[j].ExitTime)
	})

	points := make([]domain.EquityPoint, 0, len(trades)+1)
	cumulative := startingEquity
	for _, t := range trades {
		cumulative += t.PNL
		points = append(points, domain.EquityPoint{
			Label:              t.ExitTime.Format(timeLabelLayout),
			Time:               t.ExitTime,
			CumulativeRealized: cumulative,
			// No unrealized component at historical points.
			CumulativeTotal: cumulative,
		})
	}

	points = append(points, domain.EquityPoint{
		Label:              LiveLabel,
		CumulativeRealized: cumulative,
		CumulativeTotal:    cumulative + liveUnrealizedPnL,
	})

	return points
}
