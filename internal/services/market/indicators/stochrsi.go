// Package indicators derives technical indicator series from candle data.
// Stochastic RSI is computed directly (Wilder smoothing with stochastic
// normalization and double SMA smoothing); Bollinger bands and moving
// averages are delegated to the cinar/indicator library.
package indicators

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// StochRSIWarmup returns the number of leading entries that stay at the 0.0
// "not yet computable" sentinel for the given parameters. Rows inside the
// warmup span must be skipped when rendering.
func StochRSIWarmup(rsiPeriod, stochPeriod, smoothK, smoothD int) int {
	return rsiPeriod + stochPeriod + smoothK + smoothD
}

// CalculateStochRSI computes the Stochastic RSI (%K and %D) over a candle
// series. The returned slices are aligned to the input: at[i] is the open
// time of candles[i], k[i] and d[i] hold the smoothed oscillator values.
// Leading entries are 0.0 until enough history accumulates; valid values lie
// in (0, 100].
//
// rsiPeriod, stochPeriod, smoothK and smoothD are conventionally 14/14/3/3.
func CalculateStochRSI(candles []domain.Candle, rsiPeriod, stochPeriod, smoothK, smoothD int) (at []int64, k []float64, d []float64, err error) {
	closes := make([]float64, len(candles))
	at = make([]int64, len(candles))
	for i := range candles {
		c, err := strconv.ParseFloat(candles[i].Close, 64)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		closes[i] = c
		at[i] = candles[i].OpenTime
	}

	minLen := rsiPeriod + stochPeriod + smoothK + smoothD
	if len(closes) < minLen {
		return nil, nil, nil, errors.Errorf("not enough data points for stochastic RSI: need %d, got %d", minLen, len(closes))
	}

	// Wilder RSI. The seed averages the first rsiPeriod-1 changes over the
	// full period, then each step smooths with weight (period-1)/period.
	rsi := make([]float64, len(closes))
	var avgGain, avgLoss float64

	for i := 1; i < rsiPeriod; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(rsiPeriod)
	avgLoss /= float64(rsiPeriod)

	for i := rsiPeriod; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		}
		if change < 0 {
			loss = -change
		}

		avgGain = (avgGain*float64(rsiPeriod-1) + gain) / float64(rsiPeriod)
		avgLoss = (avgLoss*float64(rsiPeriod-1) + loss) / float64(rsiPeriod)

		if avgLoss == 0 {
			rsi[i] = 100.0
		} else {
			rs := avgGain / avgLoss
			rsi[i] = 100.0 - (100.0 / (1.0 + rs))
		}
	}

	// Stochastic normalization over a trailing window of RSI values.
	stochRSI := make([]float64, len(closes))
	for i := stochPeriod; i < len(closes); i++ {
		window := rsi[i-stochPeriod+1 : i+1]
		lowest, highest := window[0], window[0]
		for _, v := range window[1:] {
			if v < lowest {
				lowest = v
			}
			if v > highest {
				highest = v
			}
		}

		if highest == lowest {
			if rsi[i] == lowest {
				stochRSI[i] = 0.0
			} else {
				stochRSI[i] = 100.0
			}
		} else {
			stochRSI[i] = (rsi[i] - lowest) / (highest - lowest) * 100.0
		}
	}

	// Smooth %K, then derive %D from the smoothed series.
	k = trailingSMASeries(stochRSI, smoothK)
	d = trailingSMASeries(k, smoothD)

	return at, k, d, nil
}

// trailingSMASeries smooths a series with a trailing simple moving average of
// the given width, starting once width values exist. Earlier entries stay 0.
func trailingSMASeries(values []float64, width int) []float64 {
	out := make([]float64, len(values))
	for i := width; i < len(values); i++ {
		var sum float64
		for _, v := range values[i-width+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(width)
	}
	return out
}
