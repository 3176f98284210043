package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"

	"github.com/vadiminshakov/marketfeed/internal/clients"
	"github.com/vadiminshakov/marketfeed/internal/services/market/collector"
	"github.com/vadiminshakov/marketfeed/internal/services/market/depth"
	"github.com/vadiminshakov/marketfeed/internal/services/pricer"
	"github.com/vadiminshakov/marketfeed/pkg/retrier"
)

// klineRetries caps backoff attempts per interval fetch.
const klineRetries = 2

// ServiceProvider defines a factory interface for creating platform-specific services.
type ServiceProvider interface {
	KlineProvider() (collector.KlineProvider, error)
	DepthProvider() (depth.Provider, error)
	Pricer() (pricer.Pricer, error)
}

// NewServiceProvider creates a service provider based on the client type.
// This is the single point of truth for dispatching to platform-specific implementations.
func NewServiceProvider(client any) (ServiceProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return &binanceProvider{client: c}, nil
	case *bybit.Client:
		return &bybitProvider{client: c}, nil
	case *clients.HyperliquidClient:
		return &hyperliquidProvider{client: c}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

type binanceProvider struct {
	client *binance.Client
}

func (p *binanceProvider) KlineProvider() (collector.KlineProvider, error) {
	return collector.WithRetry(collector.NewBinanceKlineProvider(p.client),
		retrier.WithMaxRetries(klineRetries)), nil
}
func (p *binanceProvider) DepthProvider() (depth.Provider, error) {
	return depth.NewBinanceDepthProvider(p.client), nil
}
func (p *binanceProvider) Pricer() (pricer.Pricer, error) {
	return pricer.NewBinancePricer(p.client), nil
}

type bybitProvider struct {
	client *bybit.Client
}

func (p *bybitProvider) KlineProvider() (collector.KlineProvider, error) {
	return collector.WithRetry(collector.NewBybitKlineProvider(p.client),
		retrier.WithMaxRetries(klineRetries)), nil
}

// order book snapshots always come from the public Binance book,
// the depth endpoint there needs no credentials
func (p *bybitProvider) DepthProvider() (depth.Provider, error) {
	return depth.NewBinanceDepthProvider(clients.NewBinanceClient("", "")), nil
}
func (p *bybitProvider) Pricer() (pricer.Pricer, error) {
	return pricer.NewBybitPricer(p.client), nil
}

type hyperliquidProvider struct {
	client *clients.HyperliquidClient
}

func (p *hyperliquidProvider) KlineProvider() (collector.KlineProvider, error) {
	return collector.WithRetry(collector.NewHyperliquidKlineProvider(p.client.Exchange().Info()),
		retrier.WithMaxRetries(klineRetries)), nil
}
func (p *hyperliquidProvider) DepthProvider() (depth.Provider, error) {
	return depth.NewBinanceDepthProvider(clients.NewBinanceClient("", "")), nil
}
func (p *hyperliquidProvider) Pricer() (pricer.Pricer, error) {
	return pricer.NewHyperliquidPricer(p.client.Exchange().Info()), nil
}
