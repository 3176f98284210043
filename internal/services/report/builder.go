// Package report assembles Markdown price-history reports for a trading
// pair. Callers register the intervals they want per section (raw klines,
// Stochastic RSI, Bollinger bands); the builder fetches each distinct
// interval once and renders the computed sections into a single string
// with fenced CSV blocks ready for LLM consumption.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vadiminshakov/marketfeed/internal/domain"
	"github.com/vadiminshakov/marketfeed/internal/services/market/collector"
	"go.uber.org/zap"
)

const (
	noIntervalsMessage = "No historical data intervals specified.\n"
	noDataMessage      = "Warning: No kline data could be fetched for the requested intervals.\n"
)

// sectionKind describes how one report section is rendered: its heading, the
// per-interval notices and the renderer producing the fenced content.
type sectionKind struct {
	heading       string
	label         string
	emptyNotice   string
	errorLabel    string
	missingNotice string
	fence         string
	render        func([]domain.Candle) (string, error)
}

var (
	klinesSection = sectionKind{
		heading:       "**Klines (Price History):**",
		label:         "Price",
		emptyNotice:   "No data found.",
		errorLabel:    "Error formatting Klines to CSV",
		missingNotice: "Data unexpectedly missing after fetch",
		fence:         "```csv",
		render: func(candles []domain.Candle) (string, error) {
			return KlinesCSV(candles), nil
		},
	}
	stochRSISection = sectionKind{
		heading:       "**Stochastic RSI:**",
		label:         "Stochastic RSI",
		emptyNotice:   "No kline data available to calculate StochRSI.",
		errorLabel:    "Error calculating StochRSI",
		missingNotice: "Kline data unexpectedly missing for StochRSI calculation",
		fence:         "```csv",
		render:        StochRSICSV,
	}
	bollingerSection = sectionKind{
		heading:       "**Bollinger Band:**",
		label:         "Bollinger Band",
		emptyNotice:   "No kline data available to calculate Bollinger Band.",
		errorLabel:    "Error calculating Bollinger Band",
		missingNotice: "Bollinger Band data unexpectedly missing for Bollinger Band calculation",
		fence:         "```csv",
		render:        bollingerDetail,
	}
	bollingerMASection = sectionKind{
		heading:       "**Bollinger Band and Moving Average:**",
		label:         "Bollinger Band and Moving Average",
		emptyNotice:   "No kline data available to calculate Bollinger Band and Moving Average.",
		errorLabel:    "Error calculating Bollinger Band and Moving Average",
		missingNotice: "Bollinger Band data unexpectedly missing for Bollinger Band calculation",
		fence:         "```",
		render:        bollingerDetail,
	}
)

// intervalSet accumulates interval registrations for one section keyed by
// interval name. Repeated registrations of a name collapse into a single
// entry carrying the largest explicit limit; whether any registration relied
// on the report default is tracked separately so the fetch plan still honors
// it.
type intervalSet struct {
	order []string
	items map[string]*intervalEntry
}

type intervalEntry struct {
	maxExplicit int
	sawDefault  bool
}

func (s *intervalSet) add(requests []domain.IntervalRequest) {
	if s.items == nil {
		s.items = make(map[string]*intervalEntry)
	}
	for _, req := range requests {
		entry, ok := s.items[req.Name]
		if !ok {
			entry = &intervalEntry{}
			s.items[req.Name] = entry
			s.order = append(s.order, req.Name)
		}
		if req.HasLimit() {
			if req.Limit > entry.maxExplicit {
				entry.maxExplicit = req.Limit
			}
		} else {
			entry.sawDefault = true
		}
	}
}

func (s *intervalSet) empty() bool {
	return len(s.order) == 0
}

// requests returns one renderable request per registered name, in
// registration order.
func (s *intervalSet) requests() []domain.IntervalRequest {
	requests := make([]domain.IntervalRequest, 0, len(s.order))
	for _, name := range s.order {
		requests = append(requests, domain.IntervalRequest{Name: name, Limit: s.items[name].maxExplicit})
	}

	return requests
}

// planRequests returns the registrations as the fetch planner must see them:
// one entry per name with the largest explicit limit, plus an entry without
// a limit when any registration relied on the default. The effective fetch
// limit for a name is the maximum across every requester, default included.
func (s *intervalSet) planRequests() []domain.IntervalRequest {
	requests := make([]domain.IntervalRequest, 0, len(s.order))
	for _, name := range s.order {
		entry := s.items[name]
		if entry.maxExplicit > 0 {
			requests = append(requests, domain.IntervalRequest{Name: name, Limit: entry.maxExplicit})
		}
		if entry.sawDefault || entry.maxExplicit == 0 {
			requests = append(requests, domain.IntervalRequest{Name: name})
		}
	}

	return requests
}

// Builder accumulates per-section interval registrations and renders the
// report. Sections always appear in a fixed order (klines, Stochastic RSI,
// Bollinger band, Bollinger band with moving averages) regardless of
// registration order, and registrations within a section merge by interval
// name.
type Builder struct {
	provider     collector.KlineProvider
	pair         domain.Pair
	defaultLimit int
	logger       *zap.Logger

	klineIntervals       intervalSet
	stochRSIIntervals    intervalSet
	bollingerIntervals   intervalSet
	bollingerMAIntervals intervalSet
}

// NewBuilder creates a report builder for one trading pair. defaultLimit is
// the candle count fetched for intervals without an explicit override.
func NewBuilder(provider collector.KlineProvider, pair domain.Pair, defaultLimit int, logger *zap.Logger) *Builder {
	return &Builder{
		provider:     provider,
		pair:         pair,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// WithKlines registers interval specs for the raw price history section.
// Can be called multiple times.
func (b *Builder) WithKlines(specs ...string) *Builder {
	b.klineIntervals.add(ParseIntervalSpecs(specs, b.logger))
	return b
}

// WithStochRSI registers interval specs for the Stochastic RSI section.
// Can be called multiple times.
func (b *Builder) WithStochRSI(specs ...string) *Builder {
	b.stochRSIIntervals.add(ParseIntervalSpecs(specs, b.logger))
	return b
}

// WithBollinger registers interval specs for the Bollinger band section.
func (b *Builder) WithBollinger(specs ...string) *Builder {
	b.bollingerIntervals.add(ParseIntervalSpecs(specs, b.logger))
	return b
}

// WithBollingerMA registers interval specs for the combined Bollinger band
// and moving average section.
func (b *Builder) WithBollingerMA(specs ...string) *Builder {
	b.bollingerMAIntervals.add(ParseIntervalSpecs(specs, b.logger))
	return b
}

type section struct {
	kind sectionKind
	set  *intervalSet
}

func (b *Builder) sections() []section {
	return []section{
		{kind: klinesSection, set: &b.klineIntervals},
		{kind: stochRSISection, set: &b.stochRSIIntervals},
		{kind: bollingerSection, set: &b.bollingerIntervals},
		{kind: bollingerMASection, set: &b.bollingerMAIntervals},
	}
}

// Build fetches all registered intervals concurrently and renders the report.
// A fetch failure aborts the whole build; an indicator failure for a single
// interval is rendered inline and the rest of the report still completes.
// Nothing is cached, calling Build twice issues the fetches twice.
func (b *Builder) Build(ctx context.Context) (string, error) {
	sections := b.sections()

	requested := false
	var all []domain.IntervalRequest
	for _, s := range sections {
		if !s.set.empty() {
			requested = true
		}
		all = append(all, s.set.planRequests()...)
	}
	if !requested {
		return noIntervalsMessage, nil
	}

	plan := Plan(all, b.defaultLimit)
	b.logger.Debug("resolved fetch plan",
		zap.String("pair", b.pair.String()),
		zap.Int("intervals", len(plan)))

	data, err := fetchAll(ctx, b.provider, b.pair, plan, b.logger)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return noDataMessage, nil
	}

	var sb strings.Builder
	for _, s := range sections {
		if s.set.empty() {
			continue
		}
		b.formatSection(&sb, s.kind, s.set.requests(), data)
	}

	return sb.String(), nil
}

// formatSection renders one report section: a heading followed by a fenced
// block, a notice or an inline error per requested interval, sorted by
// interval name for deterministic output.
func (b *Builder) formatSection(sb *strings.Builder, kind sectionKind, requests []domain.IntervalRequest, data map[string][]domain.Candle) {
	sb.WriteString("\n" + kind.heading + "\n")

	sorted := make([]domain.IntervalRequest, len(requests))
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, req := range sorted {
		display := req.Display()

		candles, ok := data[req.Name]
		if !ok {
			sb.WriteString(fmt.Sprintf("\n* Interval: %s (%s)\n", display, kind.missingNotice))
			b.logger.Warn("interval missing from fetch result",
				zap.String("interval", req.Name),
				zap.String("section", kind.label))
			continue
		}
		if len(candles) == 0 {
			sb.WriteString(fmt.Sprintf(" (%s) %s\n", display, kind.emptyNotice))
			continue
		}

		content, err := kind.render(candles)
		if err != nil {
			sb.WriteString(fmt.Sprintf("\n* Interval: %s (%s: %s)\n", display, kind.errorLabel, err))
			b.logger.Warn("failed to render report section for interval",
				zap.String("interval", req.Name),
				zap.String("section", kind.label),
				zap.Error(err))
			continue
		}

		sb.WriteString(fmt.Sprintf("\n* %s: %s\n", kind.label, display))
		sb.WriteString(kind.fence + "\n")
		sb.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString("```\n")
	}
}
