package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"github.com/vadiminshakov/marketfeed/internal/services/market/indicators"
)

// Stochastic RSI parameters used for rendering.
const (
	rsiPeriod   = 14
	stochPeriod = 14
	smoothK     = 3
	smoothD     = 3
)

const (
	klineCSVHeader = "open_time,open,high,low,close,volume,close_time\n"
	stochCSVHeader = "at,stoch_rsi_k,stoch_rsi_d\n"
)

// KlinesCSV renders a candle series as CSV under the fixed kline header.
// Price and volume fields keep their original decimal text; a field that
// does not parse as a decimal is written as an empty column instead of
// failing the whole row.
func KlinesCSV(candles []domain.Candle) string {
	var sb strings.Builder
	sb.WriteString(klineCSVHeader)
	for _, c := range candles {
		sb.WriteString(strconv.FormatInt(c.OpenTime, 10))
		for _, field := range [5]string{c.Open, c.High, c.Low, c.Close, c.Volume} {
			sb.WriteByte(',')
			sb.WriteString(decimalField(field))
		}
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatInt(c.CloseTime, 10))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func decimalField(field string) string {
	if _, err := decimal.NewFromString(field); err != nil {
		return ""
	}

	return field
}

// StochRSICSV computes Stochastic RSI over a candle series and renders it as
// CSV. Rows where either smoothed line is still at the warm-up sentinel are
// skipped, only fully computed values appear in the output.
func StochRSICSV(candles []domain.Candle) (string, error) {
	at, k, d, err := indicators.CalculateStochRSI(candles, rsiPeriod, stochPeriod, smoothK, smoothD)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(stochCSVHeader)
	for i := range at {
		if k[i] <= 0 || d[i] <= 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%d,%.2f,%.2f\n", at[i], k[i], d[i]))
	}

	return sb.String(), nil
}

// bollingerDetail renders the latest Bollinger band and moving-average
// snapshot for a candle series.
func bollingerDetail(candles []domain.Candle) (string, error) {
	snapshot, err := indicators.LatestBollingerMA(candles)
	if err != nil {
		return "", err
	}

	return snapshot.Detail(), nil
}
