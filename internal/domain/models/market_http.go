package models

// Requests for the view API endpoints. Defined in domain for consistency and reuse.

type OrderRequest struct {
	Ticker string  `json:"ticker" validate:"required"`
	Qty    float64 `json:"qty" validate:"required,gt=0"`
	Price  float64 `json:"price" validate:"gte=0"` // 0 means use the latest live price
}

type TickerRequest struct {
	Symbol string `param:"symbol" query:"symbol" json:"symbol" validate:"required"`
}

type AlertsRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
