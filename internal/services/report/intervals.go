package report

import (
	"strconv"
	"strings"

	"github.com/vadiminshakov/marketfeed/internal/domain"
	"go.uber.org/zap"
)

// ParseIntervalSpec parses a spec string like "1h" or "1h:200" into an
// interval request. The part after the last colon is an explicit fetch limit;
// if it is not a positive integer the whole string is kept as the interval
// name and the limit falls back to the report default.
func ParseIntervalSpec(spec string, logger *zap.Logger) domain.IntervalRequest {
	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		limit, err := strconv.Atoi(spec[idx+1:])
		if err == nil && limit > 0 {
			return domain.IntervalRequest{Name: spec[:idx], Limit: limit}
		}
		logger.Warn("invalid limit in interval spec, treating whole string as interval name",
			zap.String("spec", spec))
	}

	return domain.IntervalRequest{Name: spec}
}

// ParseIntervalSpecs parses each spec independently, a malformed limit in one
// spec does not affect the others.
func ParseIntervalSpecs(specs []string, logger *zap.Logger) []domain.IntervalRequest {
	requests := make([]domain.IntervalRequest, 0, len(specs))
	for _, spec := range specs {
		requests = append(requests, ParseIntervalSpec(spec, logger))
	}

	return requests
}
