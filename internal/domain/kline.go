package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Candle single OHLCV bar as reported by an exchange.
//
// Price and volume fields keep the exchange's exact decimal text until a
// consumer parses them; the report renderer must reproduce the provider's
// representation byte for byte.
type Candle struct {
	// OpenTime bar open, milliseconds since epoch.
	OpenTime int64
	// Open is the opening price.
	Open string
	// High is the highest price.
	High string
	// Low is the lowest price.
	Low string
	// Close is the closing price.
	Close string
	// Volume is the traded base-asset volume.
	Volume string
	// CloseTime bar close, milliseconds since epoch.
	CloseTime int64
}

// CloseDecimal parses the closing price.
func (c *Candle) CloseDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Close)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse close price %q", c.Close)
	}
	return d, nil
}

// LatestClose returns the closing price of the most recent candle.
func LatestClose(candles []Candle) (decimal.Decimal, error) {
	if len(candles) == 0 {
		return decimal.Zero, errors.New("empty candle series")
	}
	return candles[len(candles)-1].CloseDecimal()
}
