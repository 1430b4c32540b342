package domain

// OrderSide indicates whether an order buys or sells the base asset.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderResult wraps the venue's response to a confirmed market order.
type OrderResult struct {
	OrderID string
	// FilledPrice is the reference fill price reported by the venue.
	FilledPrice float64
	Quantity    float64
}
