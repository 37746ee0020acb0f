package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/dnldd/scout/shared"
	"github.com/peterldowns/testy/assert"
)

// makeCandles generates a rising candle series for the provided market.
func makeCandles(market string, timeframe shared.Timeframe, count int) []shared.Candlestick {
	candles := make([]shared.Candlestick, count)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for idx := range candles {
		base := 100 + float64(idx)
		candles[idx] = shared.Candlestick{
			Open:      base,
			High:      base + 2,
			Low:       base - 2,
			Close:     base + 1,
			Volume:    1000 + float64(idx*10),
			Date:      start.Add(time.Hour * time.Duration(idx)),
			Market:    market,
			Timeframe: timeframe,
		}
	}

	return candles
}

func TestComputeRequiresCandles(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Compute(nil)
	assert.Error(t, err)

	_, err = engine.Compute([]shared.Candlestick{})
	assert.Error(t, err)
}

func TestCompute(t *testing.T) {
	engine := NewEngine()
	candles := makeCandles("BTCUSDT", shared.OneHour, 120)

	snapshot, err := engine.Compute(candles)
	assert.NoError(t, err)
	assert.Equal(t, snapshot.Market, "BTCUSDT")
	assert.Equal(t, snapshot.Timeframe, shared.OneHour)
	assert.Equal(t, len(snapshot.Candles), 120)

	// A consistently rising series has a high rsi and positive trend strength.
	assert.GreaterThan(t, snapshot.RSI, 50)
	assert.LessThanOrEqual(t, snapshot.RSI, 100)
	assert.GreaterThan(t, snapshot.ADX, 0)
	assert.GreaterThan(t, snapshot.ATR, 0)

	// The sma lags the last close of a rising series.
	lastClose, ok := snapshot.LastClose()
	assert.True(t, ok)
	assert.GreaterThan(t, lastClose, snapshot.SMA20)
	assert.GreaterThan(t, snapshot.EMA20, snapshot.EMA50)

	// Volume grows through the series, so the latest candle sits above average.
	assert.GreaterThan(t, snapshot.VolumeRatio, 1)
}

func TestComputeShortHistory(t *testing.T) {
	engine := NewEngine()
	candles := makeCandles("ETHUSDT", shared.OneDay, 5)

	// Indicators whose lookback exceeds the history stay at their zero value.
	snapshot, err := engine.Compute(candles)
	assert.NoError(t, err)
	assert.Equal(t, snapshot.RSI, 0)
	assert.Equal(t, snapshot.ADX, 0)
	assert.Equal(t, snapshot.ATR, 0)
	assert.Equal(t, snapshot.SMA20, 0)
	assert.Equal(t, snapshot.EMA50, 0)
	assert.Equal(t, snapshot.VolumeRatio, 0)
}

func TestLastValue(t *testing.T) {
	assert.Equal(t, lastValue([]float64{1, 2, 3}), 3)
	assert.Equal(t, lastValue([]float64{1, 2, math.NaN()}), 2)
	assert.Equal(t, lastValue([]float64{math.NaN()}), 0)
	assert.Equal(t, lastValue(nil), 0)
}
