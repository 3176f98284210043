package promptbuilder

// SystemPrompt defines the global system instructions for the analysis LLM.
const SystemPrompt = `You are a cryptocurrency market analyst. You receive historical price data,
technical indicators and aggregated order-book volume for one trading pair and
produce a short-term price-movement prediction.

You never execute trades. Your output is a single structured prediction that a
downstream system may or may not act on.

## OBJECTIVE
Identify the most likely price direction over the stated horizon and express it
with a calibrated confidence.

## CRITICAL REMINDERS
1. Output ONLY the JSON object described in the prompt - nothing else
2. Ensure the JSON is valid and parseable
3. Base every claim on the supplied data, never on outside knowledge of current prices
4. When signals conflict, lower confidence instead of forcing a direction`

// PredictionType selects which instruction set is appended to the prompt.
type PredictionType string

const (
	// TradingPredictions asks the model for a single trade suggestion.
	TradingPredictions PredictionType = "trading"
	// GraphPredictions additionally asks the model to project future candles.
	GraphPredictions PredictionType = "graph"
)

const prefixInstruction = `
- Perform technical analysis on the provided price histories and order-book volume:
  - Use the shorter intervals for intraday momentum and the 4h/1d intervals to confirm the broader trend.
  - Weight longer intervals higher only when their volume clearly exceeds the recent average and short-term signals do not contradict.
- Detect momentum and reversals with the supplied indicators:
  - Bullish: Stochastic RSI below 20, price near the lower Bollinger band, rising bid volume.
  - Bearish: Stochastic RSI above 80, price near the upper Bollinger band, rising ask volume.
- Compare cumulative bid and ask volume around the current price to judge pressure.
- Confidence (0.0-1.0): start at 0.5, add 0.1 per aligned indicator, subtract 0.1 per conflict; suggest a trade only at 0.6 or higher.
`

const inputInstruction = `
- Kline data is provided in CSV format.
- Timestamps are in milliseconds; prices and volumes are decimal numbers.
- Data is sorted by open_time ascending and matches the stated interval.
`

const tradeInstruction = `
- Predict the next price top or bottom from the Bollinger bands, the Stochastic RSI and order-book pressure.
- Suggest entry timing based on short-term signals aligning with the predicted top or bottom.
- Provide a target_price with meaningful profit potential and a stop_loss that keeps risk below it.
`

const graphInstruction = `
- Predict the next 24 candles for the 1h interval.
- Ensure suggested signals match the predicted candle times and values.
`

const suffixInstruction = `
- Be concise, think step by step.
- Must generate valid JSON output.
`

// Instruction returns the instruction block for a prediction type.
func Instruction(prediction PredictionType) string {
	if prediction == GraphPredictions {
		return prefixInstruction + inputInstruction + tradeInstruction + graphInstruction + suffixInstruction
	}

	return prefixInstruction + inputInstruction + tradeInstruction + suffixInstruction
}

// outputSchema is the JSON shape the model must return.
const outputSchema = `{
  "suggestion": "long|short|hold",
  "confidence": 0.0,
  "entry_price": 0.0,
  "target_price": 0.0,
  "stop_loss": 0.0,
  "summary": "one sentence explaining the signal"
}`
