package domain

// Direction represents which way a trade bets (long or short).
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)
