package risk

import (
	"testing"

	"github.com/dnldd/scout/shared"
	"github.com/peterldowns/testy/assert"
)

// volatilitySnapshot builds a snapshot with the provided average true range.
func volatilitySnapshot(atr float64) *shared.MarketSnapshot {
	return &shared.MarketSnapshot{
		Market:    "BTCUSDT",
		Timeframe: shared.OneHour,
		ATR:       atr,
	}
}

// swingSnapshot builds a snapshot whose candles carry the provided lows and highs.
func swingSnapshot(lows []float64, highs []float64) *shared.MarketSnapshot {
	candles := make([]shared.Candlestick, len(lows))
	for idx := range lows {
		candles[idx] = shared.Candlestick{
			Low:  lows[idx],
			High: highs[idx],
		}
	}

	return &shared.MarketSnapshot{
		Market:    "BTCUSDT",
		Timeframe: shared.OneHour,
		Candles:   candles,
	}
}

func TestVolatilityLevels(t *testing.T) {
	calculator := NewCalculator(&CalculatorConfig{Policy: VolatilityStop})

	// An atr of 2 with a 1.5 multiplier and 2:1 reward ratio places a long
	// entry at 100 between a stop of 97 and a target of 106.
	stopLoss, takeProfit, err := calculator.Levels(volatilitySnapshot(2), shared.Long, 100)
	assert.NoError(t, err)
	assert.Equal(t, stopLoss, 97)
	assert.Equal(t, takeProfit, 106)

	// The short side mirrors the envelope.
	stopLoss, takeProfit, err = calculator.Levels(volatilitySnapshot(2), shared.Short, 100)
	assert.NoError(t, err)
	assert.Equal(t, stopLoss, 103)
	assert.Equal(t, takeProfit, 94)
}

func TestVolatilityLevelsRejectsZeroATR(t *testing.T) {
	calculator := NewCalculator(&CalculatorConfig{Policy: VolatilityStop})

	_, _, err := calculator.Levels(volatilitySnapshot(0), shared.Long, 100)
	assert.Error(t, err)
}

func TestSwingLevels(t *testing.T) {
	calculator := NewCalculator(&CalculatorConfig{Policy: SwingStop})

	lows := make([]float64, 20)
	highs := make([]float64, 20)
	for idx := range lows {
		lows[idx] = 96
		highs[idx] = 104
	}
	lows[5] = 95
	highs[7] = 105

	// The long stop sits at the rolling low, the target twice the stop
	// distance above the entry.
	stopLoss, takeProfit, err := calculator.Levels(swingSnapshot(lows, highs), shared.Long, 100)
	assert.NoError(t, err)
	assert.Equal(t, stopLoss, 95)
	assert.Equal(t, takeProfit, 110)

	// The short stop sits at the rolling high.
	stopLoss, takeProfit, err = calculator.Levels(swingSnapshot(lows, highs), shared.Short, 100)
	assert.NoError(t, err)
	assert.Equal(t, stopLoss, 105)
	assert.Equal(t, takeProfit, 90)
}

func TestSwingLevelsRejectsBadOrdering(t *testing.T) {
	calculator := NewCalculator(&CalculatorConfig{Policy: SwingStop})

	lows := make([]float64, 20)
	highs := make([]float64, 20)
	for idx := range lows {
		lows[idx] = 102
		highs[idx] = 104
	}

	// A swing low above the entry cannot bracket a long position.
	_, _, err := calculator.Levels(swingSnapshot(lows, highs), shared.Long, 100)
	assert.Error(t, err)

	// Too little history for the swing window errors rather than guessing.
	_, _, err = calculator.Levels(swingSnapshot(lows[:5], highs[:5]), shared.Long, 100)
	assert.Error(t, err)
}

func TestLevelsRejectsInvalidInputs(t *testing.T) {
	calculator := NewCalculator(&CalculatorConfig{})

	_, _, err := calculator.Levels(nil, shared.Long, 100)
	assert.Error(t, err)

	_, _, err = calculator.Levels(volatilitySnapshot(2), shared.Long, 0)
	assert.Error(t, err)
}

func TestValidateLevels(t *testing.T) {
	tests := []struct {
		name       string
		direction  shared.Direction
		entry      float64
		stopLoss   float64
		takeProfit float64
		wantErr    bool
	}{
		{
			name:       "valid long",
			direction:  shared.Long,
			entry:      100,
			stopLoss:   97,
			takeProfit: 106,
			wantErr:    false,
		},
		{
			name:       "valid short",
			direction:  shared.Short,
			entry:      100,
			stopLoss:   103,
			takeProfit: 94,
			wantErr:    false,
		},
		{
			name:       "long stop above entry",
			direction:  shared.Long,
			entry:      100,
			stopLoss:   101,
			takeProfit: 106,
			wantErr:    true,
		},
		{
			name:       "short target above entry",
			direction:  shared.Short,
			entry:      100,
			stopLoss:   103,
			takeProfit: 101,
			wantErr:    true,
		},
		{
			name:       "degenerate levels",
			direction:  shared.Long,
			entry:      100,
			stopLoss:   100,
			takeProfit: 100,
			wantErr:    true,
		},
	}

	for _, test := range tests {
		err := ValidateLevels(test.direction, test.entry, test.stopLoss, test.takeProfit)
		if test.wantErr && err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
		if !test.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
		}
	}
}

func TestParseStopPolicy(t *testing.T) {
	policy, err := ParseStopPolicy("volatility")
	assert.NoError(t, err)
	assert.Equal(t, policy, VolatilityStop)

	policy, err = ParseStopPolicy("swing")
	assert.NoError(t, err)
	assert.Equal(t, policy, SwingStop)

	// An empty policy defaults to volatility.
	policy, err = ParseStopPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, policy, VolatilityStop)

	_, err = ParseStopPolicy("martingale")
	assert.Error(t, err)
}
