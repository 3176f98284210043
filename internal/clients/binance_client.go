// Package clients constructs the exchange SDK clients the feed reads market data from.
package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient creates a Binance REST client. Empty credentials are
// accepted, the kline and depth endpoints used here are public.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}
