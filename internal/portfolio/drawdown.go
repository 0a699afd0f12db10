package portfolio

import "portfolioEngine/internal/domain"

// MaxDrawdownPercent computes the largest peak-to-trough decline of
// CumulativeTotal over an equity series, as a percentage of the peak.
//
// The running peak only ever increases; it never resets mid-series. Points
// observed while the peak is non-positive are skipped to avoid dividing by
// zero (a drawdown percentage is meaningless without a positive baseline).
func MaxDrawdownPercent(series []domain.EquityPoint) float64 {
	var maxDrawdown float64
	peak := 0.0
	havePeak := false

	for _, p := range series {
		v := p.CumulativeTotal
		if !havePeak || v > peak {
			peak = v
			havePeak = true
			continue
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - v) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}
