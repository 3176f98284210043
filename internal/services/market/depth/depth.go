// Package depth aggregates order-book snapshots into coarse price buckets.
// Bids are rounded down and asks rounded up to a configurable fractional
// part, so each side of the book collapses into cumulative amounts per
// bucket suitable for textual consumption.
package depth

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// FractionalPart selects the price-bucket granularity for order-book grouping.
type FractionalPart string

const (
	FractionalPartOneTenth FractionalPart = "0.1"
	FractionalPartOne      FractionalPart = "1"
	FractionalPartTen      FractionalPart = "10"
	FractionalPartHundred  FractionalPart = "100"
)

// ParseFractionalPart converts a config string into a FractionalPart.
func ParseFractionalPart(s string) (FractionalPart, error) {
	switch part := FractionalPart(s); part {
	case FractionalPartOneTenth, FractionalPartOne, FractionalPartTen, FractionalPartHundred:
		return part, nil
	}

	return "", errors.Errorf("unknown fractional part %q, expected one of 0.1, 1, 10, 100", s)
}

func (f FractionalPart) multiplier() float64 {
	switch f {
	case FractionalPartOneTenth:
		return 10
	case FractionalPartTen:
		return 0.1
	case FractionalPartHundred:
		return 0.01
	default:
		return 1
	}
}

// GroupByFractionalPart buckets both sides of an order book by price, bids
// rounded down and asks rounded up to the requested granularity, and
// accumulates the resting amount per bucket. Levels that fail to parse are
// skipped.
func GroupByFractionalPart(book domain.OrderBook, part FractionalPart) (map[string]float64, map[string]float64) {
	multiplier := part.multiplier()

	bids := make(map[string]float64, len(book.Bids))
	for _, level := range book.Bids {
		price, amount, err := parseLevel(level)
		if err != nil {
			continue
		}
		// keys are formatted without decimals to keep them stable across float noise
		key := fmt.Sprintf("%.0f", math.Floor(price*multiplier)/multiplier)
		bids[key] += amount
	}

	asks := make(map[string]float64, len(book.Asks))
	for _, level := range book.Asks {
		price, amount, err := parseLevel(level)
		if err != nil {
			continue
		}
		key := fmt.Sprintf("%.0f", math.Ceil(price*multiplier)/multiplier)
		asks[key] += amount
	}

	return bids, asks
}

func parseLevel(level domain.PriceLevel) (float64, float64, error) {
	price, err := strconv.ParseFloat(level.Price, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to parse price %q", level.Price)
	}
	amount, err := strconv.ParseFloat(level.Amount, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to parse amount %q", level.Amount)
	}

	return price, amount, nil
}

// Level is one aggregated price bucket.
type Level struct {
	Price  float64
	Amount float64
}

// TopBids returns up to n buckets with the highest prices, amounts rounded
// to three decimals.
func TopBids(grouped map[string]float64, n int) []Level {
	levels := collectLevels(grouped)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	if len(levels) > n {
		levels = levels[:n]
	}

	return levels
}

// TopAsks returns up to n buckets with the lowest prices, amounts rounded
// to three decimals.
func TopAsks(grouped map[string]float64, n int) []Level {
	levels := collectLevels(grouped)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	if len(levels) > n {
		levels = levels[:n]
	}

	return levels
}

func collectLevels(grouped map[string]float64) []Level {
	levels := make([]Level, 0, len(grouped))
	for key, amount := range grouped {
		price, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		levels = append(levels, Level{Price: price, Amount: math.Round(amount*1000) / 1000})
	}

	return levels
}

// LevelsCSV renders grouped buckets as CSV with three-decimal amounts, rows
// ordered by bucket key.
func LevelsCSV(grouped map[string]float64) string {
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("price,cumulative_amount\n")
	for _, key := range keys {
		price, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("%.0f,%.3f\n", price, grouped[key]))
	}

	return sb.String()
}
