package shared

import (
	"context"
)

// MarketSource defines the requirements for fetching market data.
type MarketSource interface {
	// FetchCandles fetches ordered candlestick data for the provided market
	// and timeframe.
	FetchCandles(ctx context.Context, market string, timeframe Timeframe, limit int) ([]Candlestick, error)
	// FetchLastPrice fetches the most recent traded price for the provided market.
	FetchLastPrice(ctx context.Context, market string) (float64, error)
}

// IndicatorEngine defines the requirements for deriving indicator snapshots
// from candle data.
type IndicatorEngine interface {
	// Compute derives a market snapshot from the provided candles.
	Compute(candles []Candlestick) (*MarketSnapshot, error)
}

// SentimentSource defines the requirements for scoring market sentiment.
type SentimentSource interface {
	// Score returns a sentiment score in the range [-1, 1] for the provided market.
	Score(ctx context.Context, market string) (float64, error)
}

// Notifier defines the requirements for sending outbound notifications.
type Notifier interface {
	// Notify sends the provided message. Failures are logged by the caller
	// and never block the signal pipeline.
	Notify(message string)
}
