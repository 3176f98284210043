// Command marketfeed builds LLM-ready market analysis prompts from exchange
// data. It renders a historical-data report (klines, Stochastic RSI,
// Bollinger bands) for one trading pair, consolidates order book depth and
// assembles everything into a single analysis prompt.
//
// Usage:
//
//	marketfeed setup            interactive config wizard
//	marketfeed --config config.yaml
//	marketfeed (uses CLI arguments)
//
// Environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET (optional, public data works without)
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Hyperliquid: HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/marketfeed/config"
	"github.com/vadiminshakov/marketfeed/internal"
	"github.com/vadiminshakov/marketfeed/internal/clients"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"github.com/vadiminshakov/marketfeed/internal/services/promptbuilder"
	"github.com/vadiminshakov/marketfeed/internal/services/report"
	"github.com/vadiminshakov/marketfeed/internal/setup"
	"github.com/vadiminshakov/marketfeed/internal/storage/prompts"
	"github.com/vadiminshakov/marketfeed/internal/web"
)

// depthLimit is the number of raw order book levels fetched per side before
// consolidation.
const depthLimit = 1000

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	configs, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(configs) > 0 && configs[0].ListenAddr != "" {
		if err := serve(ctx, configs[0], logger); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
		return
	}

	for _, conf := range configs {
		prompt, err := buildPrompt(ctx, conf, logger)
		if err != nil {
			logger.Fatal("failed to build prompt",
				zap.String("pair", conf.Pair.String()),
				zap.Error(err))
		}
		if conf.PromptLogDir != "" {
			if err := journalPrompt(conf, prompt); err != nil {
				logger.Warn("failed to journal prompt",
					zap.String("pair", conf.Pair.String()),
					zap.Error(err))
			}
		}
		fmt.Println(prompt)
	}
}

// journalPrompt appends the built prompt to the WAL journal under the
// configured directory.
func journalPrompt(conf config.Config, prompt string) error {
	journal, err := prompts.NewWALStore(conf.PromptLogDir)
	if err != nil {
		return err
	}
	defer journal.Close()

	return journal.Save(domain.PromptEvent{
		Timestamp:  time.Now().UTC(),
		Pair:       conf.Pair.String(),
		Platform:   conf.Platform,
		Prediction: conf.Prediction,
		Prompt:     prompt,
	})
}

// serve runs the report HTTP server for one configuration until the context
// is cancelled.
func serve(ctx context.Context, conf config.Config, logger *zap.Logger) error {
	provider, err := createServiceProvider(conf)
	if err != nil {
		return err
	}
	klineProvider, err := provider.KlineProvider()
	if err != nil {
		return err
	}

	server := web.NewServer(conf.ListenAddr, klineProvider, web.ReportDefaults{
		Pair:        conf.Pair,
		Limit:       conf.DefaultLimit,
		Klines:      conf.Klines,
		StochRSI:    conf.StochRSI,
		Bollinger:   conf.Bollinger,
		BollingerMA: conf.BollingerMA,
	}, logger)

	logger.Info("serving reports",
		zap.String("addr", conf.ListenAddr),
		zap.String("pair", conf.Pair.String()),
		zap.String("platform", conf.Platform))

	if len(conf.TLSDomains) > 0 {
		return server.StartWithAutoTLS(ctx, conf.TLSDomains, conf.TLSCacheDir)
	}
	return server.Start(ctx)
}

// buildPrompt runs the whole pipeline once: report, order book, current
// price, assembled prompt.
func buildPrompt(ctx context.Context, conf config.Config, logger *zap.Logger) (string, error) {
	provider, err := createServiceProvider(conf)
	if err != nil {
		return "", err
	}

	klineProvider, err := provider.KlineProvider()
	if err != nil {
		return "", err
	}
	depthProvider, err := provider.DepthProvider()
	if err != nil {
		return "", err
	}
	pricer, err := provider.Pricer()
	if err != nil {
		return "", err
	}

	reportText, err := report.NewBuilder(klineProvider, conf.Pair, conf.DefaultLimit, logger).
		WithKlines(conf.Klines...).
		WithStochRSI(conf.StochRSI...).
		WithBollinger(conf.Bollinger...).
		WithBollingerMA(conf.BollingerMA...).
		Build(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to build report")
	}

	book, err := depthProvider.GetOrderBook(ctx, conf.Pair, depthLimit)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch order book")
	}

	price, err := pricer.GetPrice(ctx, conf.Pair)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch current price")
	}

	prompt := promptbuilder.NewPromptBuilder(conf.Pair, logger).BuildUserPrompt(
		promptbuilder.PredictionType(conf.Prediction),
		promptbuilder.MarketSnapshot{
			Report:       reportText,
			OrderBook:    book,
			CurrentPrice: price,
			FundUSD:      conf.FundUSD,
			Now:          time.Now(),
		},
	)

	return prompt, nil
}

func createServiceProvider(conf config.Config) (internal.ServiceProvider, error) {
	client, err := createClient(conf)
	if err != nil {
		return nil, err
	}
	return internal.NewServiceProvider(client)
}

func createClient(conf config.Config) (any, error) {
	switch conf.Platform {
	case "binance":
		return clients.NewBinanceClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET")), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, fmt.Errorf("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		return clients.NewBybitClient(apiKey, apiSecret), nil
	case "hyperliquid":
		privateKey := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
		if privateKey == "" {
			return nil, fmt.Errorf("HYPERLIQUID_PRIVATE_KEY environment variable must be set")
		}
		return clients.NewHyperliquidClient(privateKey, conf.HyperliquidBaseURL)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", conf.Platform)
	}
}
