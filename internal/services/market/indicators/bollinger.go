package indicators

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

// bollingerPeriod is the fixed Bollinger band window.
const bollingerPeriod = 20

// maWindows are the trailing moving-average widths reported alongside the band.
var maWindows = [3]int{7, 25, 99}

// BollingerMASnapshot holds the most recent Bollinger band values and the
// trailing moving averages of the closing price.
type BollingerMASnapshot struct {
	// Avg is the middle band (20-period SMA of close).
	Avg float64
	// Upper is Avg + 2 standard deviations.
	Upper float64
	// Lower is Avg - 2 standard deviations.
	Lower float64
	// MA7, MA25 and MA99 are trailing simple moving averages of close.
	MA7  float64
	MA25 float64
	MA99 float64
}

// Detail renders the snapshot as the multi-line text embedded in reports.
func (s BollingerMASnapshot) Detail() string {
	return fmt.Sprintf("BB %d %.2f %.2f %.2f\nMA %d %.2f\nMA %d %.2f\nMA %d %.2f",
		bollingerPeriod, s.Avg, s.Upper, s.Lower,
		maWindows[0], s.MA7,
		maWindows[1], s.MA25,
		maWindows[2], s.MA99)
}

// LatestBollingerMA computes the latest Bollinger band values (period 20,
// bands at 2 sigma) and the trailing 7/25/99 moving averages of close for a
// candle series. Each moving-average window must fit within the series; a
// window wider than the available history is an error rather than a
// meaningless average over missing candles.
func LatestBollingerMA(candles []domain.Candle) (*BollingerMASnapshot, error) {
	if len(candles) < bollingerPeriod {
		return nil, errors.Errorf("not enough data points for Bollinger bands: need %d, got %d", bollingerPeriod, len(candles))
	}

	closes := make([]float64, len(candles))
	for i := range candles {
		c, err := strconv.ParseFloat(candles[i].Close, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		closes[i] = c
	}

	bb := volatility.NewBollingerBandsWithPeriod[float64](bollingerPeriod)
	upperChan, middleChan, lowerChan := bb.Compute(helper.SliceToChan(closes))

	// All three channels must be drained concurrently to keep the pipeline moving.
	var middleVals, lowerVals []float64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		middleVals = helper.ChanToSlice(middleChan)
	}()
	go func() {
		defer wg.Done()
		lowerVals = helper.ChanToSlice(lowerChan)
	}()
	upperVals := helper.ChanToSlice(upperChan)
	wg.Wait()

	if len(upperVals) == 0 || len(middleVals) == 0 || len(lowerVals) == 0 {
		return nil, errors.New("bollinger band computation returned no values")
	}

	snapshot := &BollingerMASnapshot{
		Avg:   middleVals[len(middleVals)-1],
		Upper: upperVals[len(upperVals)-1],
		Lower: lowerVals[len(lowerVals)-1],
	}

	mas := [3]float64{}
	for i, window := range maWindows {
		ma, err := trailingSMA(closes, window)
		if err != nil {
			return nil, err
		}
		mas[i] = ma
	}
	snapshot.MA7, snapshot.MA25, snapshot.MA99 = mas[0], mas[1], mas[2]

	return snapshot, nil
}

// trailingSMA returns the simple moving average of the last `period` values.
func trailingSMA(closes []float64, period int) (float64, error) {
	if len(closes) < period {
		return 0, errors.Errorf("not enough data points for MA%d: need %d, got %d", period, period, len(closes))
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	outputChan := sma.Compute(helper.SliceToChan(closes))
	smaVals := helper.ChanToSlice(outputChan)
	if len(smaVals) == 0 {
		return 0, errors.Errorf("SMA%d computation returned no values", period)
	}

	return smaVals[len(smaVals)-1], nil
}
