package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/marketfeed/internal/domain"
)

func TestValidateCandleText(t *testing.T) {
	valid := domain.Candle{
		OpenTime:  1700000000000,
		Open:      "102.51000000",
		High:      "103.20000000",
		Low:       "101.00000000",
		Close:     "102.80000000",
		Volume:    "15023.12300000",
		CloseTime: 1700003599999,
	}

	require.NoError(t, validateCandleText(&valid, 0))

	tests := []struct {
		name   string
		mutate func(c *domain.Candle)
	}{
		{
			name:   "non-numeric open",
			mutate: func(c *domain.Candle) { c.Open = "not-a-number" },
		},
		{
			name:   "empty close",
			mutate: func(c *domain.Candle) { c.Close = "" },
		},
		{
			name:   "garbage volume",
			mutate: func(c *domain.Candle) { c.Volume = "12,5" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candle := valid
			tt.mutate(&candle)
			assert.Error(t, validateCandleText(&candle, 3))
		})
	}
}

func TestParseIntervalToDuration(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  time.Duration
		shouldErr bool
	}{
		{
			name:     "minutes",
			input:    "15m",
			expected: 15 * time.Minute,
		},
		{
			name:     "hours",
			input:    "4h",
			expected: 4 * time.Hour,
		},
		{
			name:     "days",
			input:    "1d",
			expected: 24 * time.Hour,
		},
		{
			name:     "weeks",
			input:    "1w",
			expected: 7 * 24 * time.Hour,
		},
		{
			name:      "empty",
			input:     "",
			shouldErr: true,
		},
		{
			name:      "no number",
			input:     "h",
			shouldErr: true,
		},
		{
			name:      "unsupported unit",
			input:     "3y",
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseIntervalToDuration(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
