// Package setup provides the interactive terminal wizard that generates a
// marketfeed configuration file.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/marketfeed/config"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform       string
		pair           string
		klines         string
		stochRSI       string
		bollinger      string
		bollingerMA    string
		limitStr       string
		fundStr        string
		prediction     string
		promptLogDir   string
		listenAddr     string
		hyperliquidURL string
		confirm        bool
	)

	// defaults
	klines = "15m,1h,4h,1d"
	stochRSI = "1h,4h"
	bollinger = "1h"
	bollingerMA = "1h"
	limitStr = "100"
	fundStr = "1000"
	hyperliquidURL = "https://api.hyperliquid.xyz"

	// step 1: platform
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("MARKETFEED CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire up your market data feed.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Market Data Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: pair
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("MARKETFEED CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Market Pair").
				Description("Must contain underscore (e.g. BTC_USDT)").
				Value(&pair).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("pair cannot be empty")
					}
					if !strings.Contains(s, "_") {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_USDT)")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: report sections
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("MARKETFEED CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: REPORT SECTIONS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kline Intervals").
				Description("Comma separated specs, optional :limit (e.g. 15m,1h:200). Empty disables the section.").
				Value(&klines),
			huh.NewInput().
				Title("Stochastic RSI Intervals").
				Value(&stochRSI),
			huh.NewInput().
				Title("Bollinger Band Intervals").
				Value(&bollinger),
			huh.NewInput().
				Title("Bollinger Band + MA Intervals").
				Value(&bollingerMA),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: fetch settings
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("MARKETFEED CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: FETCH SETTINGS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default Candle Limit").
				Description("Candles fetched per interval without an explicit :limit").
				Value(&limitStr).
				Validate(validateLimit),
			huh.NewInput().
				Title("Fund USD").
				Description("Fund size embedded into the analysis prompt").
				Value(&fundStr).
				Validate(validateFund),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 5: output
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("MARKETFEED CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: OUTPUT"))
	outputFields := []huh.Field{
		huh.NewSelect[string]().
			Title("Prediction Type").
			Options(
				huh.NewOption("Trading signal", "trading"),
				huh.NewOption("Trading signal + candle projection", "graph"),
			).
			Value(&prediction),
		huh.NewInput().
			Title("Listen Address").
			Description("HTTP server address (e.g. :8080). Empty prints one report to stdout.").
			Value(&listenAddr),
		huh.NewInput().
			Title("Prompt Journal Directory").
			Description("WAL directory for built prompts (e.g. ./wal/prompts). Empty disables journaling.").
			Value(&promptLogDir),
	}

	if platform == "hyperliquid" {
		outputFields = append(outputFields, huh.NewInput().
			Title("Hyperliquid API URL").
			Value(&hyperliquidURL),
		)
	}

	err = huh.NewForm(huh.NewGroup(outputFields...)).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("MARKETFEED CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nPair: %s\nKlines: %s\nStochRSI: %s\nBollinger: %s\nBollinger+MA: %s\nLimit: %s\nPrediction: %s\n",
		platform, pair, klines, stochRSI, bollinger, bollingerMA, limitStr, prediction,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	cfgTmp := config.ConfigTmp{
		Platform:        platform,
		Pair:            pair,
		Klines:          splitCSV(klines),
		StochRSI:        splitCSV(stochRSI),
		Bollinger:       splitCSV(bollinger),
		BollingerMA:     splitCSV(bollingerMA),
		DefaultLimitStr: limitStr,
		FundUSDStr:      fundStr,
		Prediction:      prediction,
		PromptLogDir:    promptLogDir,
		ListenAddr:      listenAddr,
	}
	if platform == "hyperliquid" {
		cfgTmp.HyperliquidBaseURL = hyperliquidURL
	}

	configs := []config.ConfigTmp{cfgTmp}

	data, err := yaml.Marshal(configs)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	success := fmt.Sprintf("\n✓ Configuration saved to %s\nRun: marketfeed --config %s", filename, filename)
	switch platform {
	case "bybit":
		success += "\nRemember to export BYBIT_API_KEY and BYBIT_API_SECRET."
	case "hyperliquid":
		success += "\nRemember to export HYPERLIQUID_PRIVATE_KEY."
	}
	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(success))
	return nil
}

func validateLimit(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateFund(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func splitCSV(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
