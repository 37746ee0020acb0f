package shared

// MarketSnapshot represents one timeframe's candle history alongside the
// indicator values derived from it. Indicator fields are fixed and explicitly
// named so consumers never have to introspect dynamic columns.
type MarketSnapshot struct {
	Market    string
	Timeframe Timeframe
	Candles   []Candlestick

	// Derived indicator fields.
	RSI         float64
	ADX         float64
	ATR         float64
	SMA20       float64
	EMA20       float64
	EMA50       float64
	VolumeRatio float64
}

// Closes returns the ordered closing price series of the snapshot.
func (s *MarketSnapshot) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for idx := range s.Candles {
		closes[idx] = s.Candles[idx].Close
	}

	return closes
}

// LastClose returns the most recent closing price of the snapshot.
func (s *MarketSnapshot) LastClose() (float64, bool) {
	if len(s.Candles) == 0 {
		return 0, false
	}

	return s.Candles[len(s.Candles)-1].Close, true
}
