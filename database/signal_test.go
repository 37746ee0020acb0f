package database

import (
	"strings"
	"testing"

	"github.com/dnldd/scout/shared"
	"github.com/peterldowns/testy/assert"
)

func TestSignalStatusString(t *testing.T) {
	tests := []struct {
		name   string
		status SignalStatus
		want   string
	}{
		{
			name:   "created",
			status: Created,
			want:   "created",
		},
		{
			name:   "elite",
			status: Elite,
			want:   "elite",
		},
		{
			name:   "rejected",
			status: Rejected,
			want:   "rejected",
		},
		{
			name:   "closed take profit",
			status: ClosedTakeProfit,
			want:   "closed_tp",
		},
		{
			name:   "closed stop loss",
			status: ClosedStopLoss,
			want:   "closed_sl",
		},
		{
			name:   "unknown",
			status: SignalStatus(999),
			want:   "unknown",
		},
	}

	for _, test := range tests {
		str := test.status.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}

func TestParseSignalStatus(t *testing.T) {
	for _, status := range []SignalStatus{Created, Elite, Rejected, ClosedTakeProfit, ClosedStopLoss} {
		parsed, err := ParseSignalStatus(status.String())
		assert.NoError(t, err)
		assert.Equal(t, parsed, status)
	}

	_, err := ParseSignalStatus("reopened")
	assert.Error(t, err)
}

func TestSignalStatusTerminal(t *testing.T) {
	assert.False(t, Created.Terminal())
	assert.False(t, Elite.Terminal())
	assert.True(t, Rejected.Terminal())
	assert.True(t, ClosedTakeProfit.Terminal())
	assert.True(t, ClosedStopLoss.Terminal())
}

func TestSignalLifecycle(t *testing.T) {
	signal := NewSignal("BTCUSDT", 100)
	assert.NotNil(t, signal)
	assert.Equal(t, signal.Status, Created)
	assert.True(t, signal.ID != "")
	assert.True(t, signal.CreatedOn > 0)

	// A created signal can be accepted once.
	err := signal.Accept("bullish regime aligned across all timeframes")
	assert.NoError(t, err)
	assert.Equal(t, signal.Status, Elite)

	// An evaluated signal cannot be re-evaluated.
	assert.Error(t, signal.Accept("again"))
	assert.Error(t, signal.Reject("again"))

	// Rejection is terminal from created.
	rejected := NewSignal("ETHUSDT", 100)
	err = rejected.Reject("timeframe disagreement: 1h is bullish but 1d is bearish")
	assert.NoError(t, err)
	assert.Equal(t, rejected.Status, Rejected)
	assert.True(t, strings.Contains(rejected.Reason, "1d is bearish"))
}

func TestSignalPNLPercent(t *testing.T) {
	long := NewSignal("BTCUSDT", 100)
	long.Direction = shared.Long

	pnl, err := long.PNLPercent(106)
	assert.NoError(t, err)
	assert.Equal(t, pnl, 6)

	pnl, err = long.PNLPercent(97)
	assert.NoError(t, err)
	assert.Equal(t, pnl, -3)

	short := NewSignal("BTCUSDT", 100)
	short.Direction = shared.Short

	pnl, err = short.PNLPercent(94)
	assert.NoError(t, err)
	assert.Equal(t, pnl, 6)

	// A zero entry price cannot produce a percentage change.
	invalid := NewSignal("BTCUSDT", 0)
	_, err = invalid.PNLPercent(100)
	assert.Error(t, err)

	// A directionless signal cannot realize an outcome.
	directionless := NewSignal("BTCUSDT", 100)
	assert.Equal(t, directionless.Direction, shared.None)
	_, err = directionless.PNLPercent(106)
	assert.Error(t, err)
}
