package domain

// PriceLevel is one order-book entry: a price and the amount resting at it.
// Both values keep the exchange's decimal text.
type PriceLevel struct {
	Price  string
	Amount string
}

// OrderBook is a depth snapshot for a trading pair.
type OrderBook struct {
	Bids []PriceLevel
	Asks []PriceLevel
}
