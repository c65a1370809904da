package models

// Position is a read-only cached copy of a brokerage position.
type Position struct {
	Ticker  string  `json:"ticker"`
	Qty     float64 `json:"qty"`
	AvgCost float64 `json:"avg_cost"`
}

// EnrichedPosition is a Position joined with the latest live price.
// Gains is nil when qty*avg_cost == 0: the percentage is undefined there and
// must render as a placeholder, not as zero.
type EnrichedPosition struct {
	Position
	CurrentPrice float64  `json:"current_price"`
	Profit       float64  `json:"profit"`
	Gains        *float64 `json:"gains"`
}

// Account aggregates brokerage stats for the current project.
type Account struct {
	Balance       float64 `json:"balance"`
	InvestedValue float64 `json:"invested_value"`
	OpenValue     float64 `json:"open_value"`
	PositionCount int     `json:"position_count"`
}

// OrderSide distinguishes buy from sell orders.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// Order is a paper order submitted to the brokerage.
type Order struct {
	Ticker string    `json:"ticker"`
	Qty    float64   `json:"qty"`
	Price  float64   `json:"price"`
	Side   OrderSide `json:"side"`
}

// OrderResult is the brokerage confirmation for a completed order.
type OrderResult struct {
	Ticker string  `json:"ticker"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}
