package pricer

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// Pricer returns the current market price for a pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}
