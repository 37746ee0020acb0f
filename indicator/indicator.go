package indicator

import (
	"fmt"
	"math"

	"github.com/dnldd/scout/shared"
	"github.com/markcheno/go-talib"
)

const (
	// rsiPeriod is the lookback period for the relative strength index.
	rsiPeriod = 14
	// adxPeriod is the lookback period for the average directional index.
	adxPeriod = 14
	// atrPeriod is the lookback period for the average true range.
	atrPeriod = 14
	// smaPeriod is the lookback period for the simple moving average.
	smaPeriod = 20
	// emaFastPeriod is the lookback period for the fast exponential moving average.
	emaFastPeriod = 20
	// emaSlowPeriod is the lookback period for the slow exponential moving average.
	emaSlowPeriod = 50
	// volumeLookback is the lookback period for the average volume.
	volumeLookback = 20
)

// Engine derives indicator snapshots from candle data.
type Engine struct{}

// Ensure the engine implements the IndicatorEngine interface.
var _ shared.IndicatorEngine = (*Engine)(nil)

// NewEngine initializes a new indicator engine.
func NewEngine() *Engine {
	return &Engine{}
}

// lastValue returns the most recent usable value of the provided series,
// skipping trailing NaN entries produced by indicator warmup.
func lastValue(series []float64) float64 {
	for idx := len(series) - 1; idx >= 0; idx-- {
		if !math.IsNaN(series[idx]) {
			return series[idx]
		}
	}

	return 0
}

// Compute derives a market snapshot from the provided candles. Indicators
// whose lookback exceeds the available history are left at their zero value,
// the caller treats such snapshots as insufficient data.
func (e *Engine) Compute(candles []shared.Candlestick) (*shared.MarketSnapshot, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles provided for indicator computation")
	}

	snapshot := &shared.MarketSnapshot{
		Market:    candles[0].Market,
		Timeframe: candles[0].Timeframe,
		Candles:   candles,
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for idx := range candles {
		closes[idx] = candles[idx].Close
		highs[idx] = candles[idx].High
		lows[idx] = candles[idx].Low
		volumes[idx] = candles[idx].Volume
	}

	if len(candles) > rsiPeriod {
		snapshot.RSI = lastValue(talib.Rsi(closes, rsiPeriod))
	}
	if len(candles) > adxPeriod*2 {
		snapshot.ADX = lastValue(talib.Adx(highs, lows, closes, adxPeriod))
	}
	if len(candles) > atrPeriod {
		snapshot.ATR = lastValue(talib.Atr(highs, lows, closes, atrPeriod))
	}
	if len(candles) >= smaPeriod {
		snapshot.SMA20 = lastValue(talib.Sma(closes, smaPeriod))
	}
	if len(candles) >= emaFastPeriod {
		snapshot.EMA20 = lastValue(talib.Ema(closes, emaFastPeriod))
	}
	if len(candles) >= emaSlowPeriod {
		snapshot.EMA50 = lastValue(talib.Ema(closes, emaSlowPeriod))
	}

	if len(candles) >= volumeLookback {
		var sum float64
		for idx := len(volumes) - volumeLookback; idx < len(volumes); idx++ {
			sum += volumes[idx]
		}

		averageVolume := sum / volumeLookback
		if averageVolume > 0 {
			snapshot.VolumeRatio = volumes[len(volumes)-1] / averageVolume
		}
	}

	return snapshot, nil
}
