package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	defaultPlatform       = "binance"
	defaultLimit          = 100
	defaultFundUSD        = "1000"
	defaultPrediction     = "trading"
	defaultHyperliquidURL = "https://api.hyperliquid.xyz"
)

var (
	defaultKlines      = []string{"15m", "1h", "4h", "1d"}
	defaultStochRSI    = []string{"1h", "4h"}
	defaultBollinger   = []string{"1h"}
	defaultBollingerMA = []string{"1h"}
)

// Config describes one market feed: where to fetch data from and which
// intervals go into each report section.
type Config struct {
	Platform           string
	Pair               domain.Pair
	Klines             []string
	StochRSI           []string
	Bollinger          []string
	BollingerMA        []string
	DefaultLimit       int
	FundUSD            decimal.Decimal
	Prediction         string
	PromptLogDir       string
	ListenAddr         string
	TLSDomains         []string
	TLSCacheDir        string
	HyperliquidBaseURL string
}

// ConfigTmp mirrors the yaml layout. The interval lists carry no omitempty so
// a generated config keeps an explicitly empty (disabled) section distinct
// from a missing one, which falls back to defaults on load.
type ConfigTmp struct {
	Platform           string   `yaml:"platform,omitempty"`
	Pair               string   `yaml:"pair"`
	Klines             []string `yaml:"klines"`
	StochRSI           []string `yaml:"stoch_rsi"`
	Bollinger          []string `yaml:"bollinger"`
	BollingerMA        []string `yaml:"bollinger_ma"`
	DefaultLimitStr    string   `yaml:"default_limit,omitempty"`
	FundUSDStr         string   `yaml:"fund_usd,omitempty"`
	Prediction         string   `yaml:"prediction,omitempty"`
	PromptLogDir       string   `yaml:"prompt_log_dir,omitempty"`
	ListenAddr         string   `yaml:"listen_addr,omitempty"`
	TLSDomains         []string `yaml:"tls_domains,omitempty"`
	TLSCacheDir        string   `yaml:"tls_cache_dir,omitempty"`
	HyperliquidBaseURL string   `yaml:"hyperliquid_base_url,omitempty"`
}

func Get() ([]Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	pairFlag := flag.String("pair", "BTC_USDT", "market pair, example: BTC_USDT")
	platform := flag.String("platform", defaultPlatform, "market data platform: binance, bybit or hyperliquid")
	klines := flag.String("klines", strings.Join(defaultKlines, ","), "comma separated kline interval specs, example: 15m,1h:200")
	stochRSI := flag.String("stochrsi", strings.Join(defaultStochRSI, ","), "comma separated StochRSI interval specs")
	bollinger := flag.String("bollinger", strings.Join(defaultBollinger, ","), "comma separated Bollinger band interval specs")
	bollingerMA := flag.String("bollingerma", strings.Join(defaultBollingerMA, ","), "comma separated Bollinger band MA interval specs")
	limit := flag.Int("limit", defaultLimit, "default number of candles fetched per interval")
	fund := flag.String("fundusd", defaultFundUSD, "fund size in USD embedded into the prompt")
	prediction := flag.String("prediction", defaultPrediction, "prediction type: trading or graph")
	promptLog := flag.String("promptlog", "", "directory for the prompt WAL journal, empty disables journaling")
	listen := flag.String("listen", "", "address for the report HTTP server, empty builds one report to stdout")
	hyperliquidURL := flag.String("hyperliquidurl", defaultHyperliquidURL, "hyperliquid API base URL")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	pair, err := domain.ParsePair(*pairFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --pair provided, --pair=%s", *pairFlag)
	}
	if *limit <= 0 {
		return nil, fmt.Errorf("invalid --limit provided, --limit=%d", *limit)
	}
	fundUSD, err := decimal.NewFromString(*fund)
	if err != nil {
		return nil, fmt.Errorf("invalid --fundusd provided, --fundusd=%s", *fund)
	}
	if err := validatePrediction(*prediction); err != nil {
		return nil, err
	}

	return []Config{
		{
			Platform:           *platform,
			Pair:               pair,
			Klines:             splitList(*klines),
			StochRSI:           splitList(*stochRSI),
			Bollinger:          splitList(*bollinger),
			BollingerMA:        splitList(*bollingerMA),
			DefaultLimit:       *limit,
			FundUSD:            fundUSD,
			Prediction:         *prediction,
			PromptLogDir:       *promptLog,
			ListenAddr:         *listen,
			HyperliquidBaseURL: *hyperliquidURL,
		},
	}, nil
}

func getYaml(path string) ([]Config, error) {
	var configsTmp []ConfigTmp
	var configs []Config

	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(f, &configsTmp); err != nil {
		return nil, err
	}

	for _, c := range configsTmp {
		pair, err := domain.ParsePair(c.Pair)
		if err != nil {
			return nil, fmt.Errorf("incorrect 'pair' param in yaml config: %s, error: %w", c.Pair, err)
		}

		newConfig := Config{
			Platform:           c.Platform,
			Pair:               pair,
			Klines:             c.Klines,
			StochRSI:           c.StochRSI,
			Bollinger:          c.Bollinger,
			BollingerMA:        c.BollingerMA,
			Prediction:         c.Prediction,
			PromptLogDir:       c.PromptLogDir,
			ListenAddr:         c.ListenAddr,
			TLSDomains:         c.TLSDomains,
			TLSCacheDir:        c.TLSCacheDir,
			HyperliquidBaseURL: c.HyperliquidBaseURL,
		}

		if newConfig.Platform == "" {
			newConfig.Platform = defaultPlatform
		}
		// a section list left out entirely falls back to the defaults,
		// an explicitly empty list disables the section
		if c.Klines == nil {
			newConfig.Klines = defaultKlines
		}
		if c.StochRSI == nil {
			newConfig.StochRSI = defaultStochRSI
		}
		if c.Bollinger == nil {
			newConfig.Bollinger = defaultBollinger
		}
		if c.BollingerMA == nil {
			newConfig.BollingerMA = defaultBollingerMA
		}

		if c.DefaultLimitStr == "" {
			newConfig.DefaultLimit = defaultLimit
		} else {
			lim, err := strconv.Atoi(c.DefaultLimitStr)
			if err != nil || lim <= 0 {
				return nil, fmt.Errorf("incorrect 'default_limit' param in yaml config (must be a positive integer), got: %s", c.DefaultLimitStr)
			}
			newConfig.DefaultLimit = lim
		}

		if c.FundUSDStr == "" {
			newConfig.FundUSD = decimal.RequireFromString(defaultFundUSD)
		} else {
			fundUSD, err := decimal.NewFromString(c.FundUSDStr)
			if err != nil {
				return nil, fmt.Errorf("incorrect 'fund_usd' param in yaml config (must be a decimal), error: %w", err)
			}
			newConfig.FundUSD = fundUSD
		}

		if newConfig.Prediction == "" {
			newConfig.Prediction = defaultPrediction
		}
		if err := validatePrediction(newConfig.Prediction); err != nil {
			return nil, err
		}

		if newConfig.HyperliquidBaseURL == "" {
			newConfig.HyperliquidBaseURL = defaultHyperliquidURL
		}

		configs = append(configs, newConfig)
	}
	return configs, nil
}

func validatePrediction(prediction string) error {
	if prediction != "trading" && prediction != "graph" {
		return fmt.Errorf("incorrect 'prediction' param (must be 'trading' or 'graph'), got: %s", prediction)
	}
	return nil
}

// splitList splits a comma separated flag value, dropping empty entries.
func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}
