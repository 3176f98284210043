// Package promptbuilder assembles analysis prompts for LLM consumption. It
// combines the historical-data report, aggregated order-book volume and the
// instruction set for the requested prediction type into one user prompt.
package promptbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/marketfeed/internal/domain"
	"github.com/vadiminshakov/marketfeed/internal/services/market/depth"
	"go.uber.org/zap"
)

// topLevels caps how many aggregated buckets per book side are logged.
const topLevels = 10

// PromptBuilder constructs analysis prompts for one trading pair.
type PromptBuilder struct {
	pair   domain.Pair
	logger *zap.Logger
}

// NewPromptBuilder creates a new PromptBuilder instance.
func NewPromptBuilder(pair domain.Pair, logger *zap.Logger) *PromptBuilder {
	return &PromptBuilder{
		pair:   pair,
		logger: logger,
	}
}

// MarketSnapshot carries everything one prompt is built from.
type MarketSnapshot struct {
	// Report is the historical-data report, see services/report.
	Report       string
	OrderBook    domain.OrderBook
	CurrentPrice decimal.Decimal
	FundUSD      decimal.Decimal
	Now          time.Time
}

// BuildUserPrompt renders the complete user prompt from a market snapshot.
// The order book is collapsed into whole-price buckets per side before it is
// embedded.
func (pb *PromptBuilder) BuildUserPrompt(prediction PredictionType, snapshot MarketSnapshot) string {
	bids, asks := depth.GroupByFractionalPart(snapshot.OrderBook, depth.FractionalPartOne)

	pb.logger.Debug("aggregated order book",
		zap.String("pair", pb.pair.String()),
		zap.Any("top_bids", depth.TopBids(bids, topLevels)),
		zap.Any("top_asks", depth.TopAsks(asks, topLevels)))

	now := snapshot.Now.UTC()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyze %s for price movement in the next 4 hours using:\n\n", pb.pair.From))

	sb.WriteString("## Input Data:\n")
	sb.WriteString(fmt.Sprintf("symbol=%s\n", pb.pair.From))
	sb.WriteString(fmt.Sprintf("fund_usd=%s\n", snapshot.FundUSD.String()))
	sb.WriteString(fmt.Sprintf("current_datetime=%s\n", now.Format("2006-01-02T15:04:05Z")))
	sb.WriteString(fmt.Sprintf("current_timestamp=%d\n", now.UnixMilli()))
	sb.WriteString(fmt.Sprintf("current_price=%s\n", snapshot.CurrentPrice.String()))

	sb.WriteString("\n## Historical Data in CSV:\n")
	sb.WriteString(snapshot.Report)

	sb.WriteString("\n## Consolidated Data in CSV:\n\n")
	sb.WriteString("**Bids:**\n")
	sb.WriteString(depth.LevelsCSV(bids))
	sb.WriteString("\n**Asks:**\n")
	sb.WriteString(depth.LevelsCSV(asks))

	sb.WriteString("\n## Instructions:\n")
	sb.WriteString(Instruction(prediction))

	sb.WriteString("\n## Output in JSON:\n```json\n")
	sb.WriteString(outputSchema)
	sb.WriteString("\n```\n")

	return sb.String()
}
