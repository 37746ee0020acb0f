package monitor

import (
	"context"
	"fmt"
	"testing"

	"github.com/dnldd/scout/database"
	"github.com/dnldd/scout/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
)

func openSignal(market string, direction shared.Direction, entry, stop, target float64) *database.Signal {
	signal := database.NewSignal(market, entry)
	signal.Direction = direction
	signal.StopLoss = stop
	signal.TakeProfit = target
	signal.Status = database.Elite

	return signal
}

func TestNewMonitorValidatesConfig(t *testing.T) {
	logger := zerolog.Nop()

	_, err := NewMonitor(&MonitorConfig{Logger: &logger})
	assert.Error(t, err)
}

func TestEvaluateBreach(t *testing.T) {
	tests := []struct {
		name       string
		signal     *database.Signal
		price      float64
		wantStatus database.SignalStatus
		crossed    bool
	}{
		{
			name:       "long take profit hit",
			signal:     openSignal("BTCUSDT", shared.Long, 100, 97, 106),
			price:      107,
			wantStatus: database.ClosedTakeProfit,
			crossed:    true,
		},
		{
			name:       "long stop loss hit",
			signal:     openSignal("BTCUSDT", shared.Long, 100, 97, 106),
			price:      96.5,
			wantStatus: database.ClosedStopLoss,
			crossed:    true,
		},
		{
			name:    "long no breach",
			signal:  openSignal("BTCUSDT", shared.Long, 100, 97, 106),
			price:   101,
			crossed: false,
		},
		{
			name:       "short take profit hit",
			signal:     openSignal("ETHUSDT", shared.Short, 100, 103, 94),
			price:      93,
			wantStatus: database.ClosedTakeProfit,
			crossed:    true,
		},
		{
			name:       "short stop loss hit",
			signal:     openSignal("ETHUSDT", shared.Short, 100, 103, 94),
			price:      103.5,
			wantStatus: database.ClosedStopLoss,
			crossed:    true,
		},
		{
			name:    "short no breach",
			signal:  openSignal("ETHUSDT", shared.Short, 100, 103, 94),
			price:   99,
			crossed: false,
		},
	}

	for _, test := range tests {
		status, crossed := evaluateBreach(test.signal, test.price)
		if crossed != test.crossed {
			t.Errorf("%s: expected crossed %v, got %v", test.name, test.crossed, crossed)
		}
		if crossed && status != test.wantStatus {
			t.Errorf("%s: expected status %v, got %v", test.name, test.wantStatus.String(),
				status.String())
		}
	}
}

func TestScanClosesBreachedSignals(t *testing.T) {
	logger := zerolog.Nop()
	signal := openSignal("BTCUSDT", shared.Long, 100, 97, 106)

	closed := make(map[string]database.SignalStatus)
	notified := []string{}

	mon, err := NewMonitor(&MonitorConfig{
		FetchOpenSignals: func(ctx context.Context) ([]*database.Signal, error) {
			return []*database.Signal{signal}, nil
		},
		CloseSignal: func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error {
			closed[id] = status
			return nil
		},
		FetchLastPrice: func(ctx context.Context, market string) (float64, error) {
			return 107, nil
		},
		Notify: func(message string) {
			notified = append(notified, message)
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	events, err := mon.Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(events), 1)

	// The signal resolves at its take profit level, not the observed tick.
	assert.Equal(t, events[0].Status, database.ClosedTakeProfit)
	assert.Equal(t, events[0].ExitPrice, float64(106))
	assert.Equal(t, events[0].PNLPercent, float64(6))
	assert.Equal(t, closed[signal.ID], database.ClosedTakeProfit)
	assert.Equal(t, len(notified), 1)
}

func TestScanClosesStopLoss(t *testing.T) {
	logger := zerolog.Nop()
	signal := openSignal("BTCUSDT", shared.Long, 100, 97, 106)

	mon, err := NewMonitor(&MonitorConfig{
		FetchOpenSignals: func(ctx context.Context) ([]*database.Signal, error) {
			return []*database.Signal{signal}, nil
		},
		CloseSignal: func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error {
			return nil
		},
		FetchLastPrice: func(ctx context.Context, market string) (float64, error) {
			return 96, nil
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	events, err := mon.Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(events), 1)
	assert.Equal(t, events[0].Status, database.ClosedStopLoss)
	assert.Equal(t, events[0].ExitPrice, float64(97))
	assert.Equal(t, events[0].PNLPercent, float64(-3))
}

func TestScanLeavesUnbreachedSignalsOpen(t *testing.T) {
	logger := zerolog.Nop()
	signal := openSignal("BTCUSDT", shared.Long, 100, 97, 106)

	mon, err := NewMonitor(&MonitorConfig{
		FetchOpenSignals: func(ctx context.Context) ([]*database.Signal, error) {
			return []*database.Signal{signal}, nil
		},
		CloseSignal: func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error {
			t.Errorf("unexpected close for signal %s", id)
			return nil
		},
		FetchLastPrice: func(ctx context.Context, market string) (float64, error) {
			return 102, nil
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	events, err := mon.Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(events), 0)
}

func TestScanIsolatesPriceFailures(t *testing.T) {
	logger := zerolog.Nop()
	failing := openSignal("DOGEUSDT", shared.Long, 100, 97, 106)
	healthy := openSignal("BTCUSDT", shared.Short, 100, 103, 94)

	mon, err := NewMonitor(&MonitorConfig{
		FetchOpenSignals: func(ctx context.Context) ([]*database.Signal, error) {
			return []*database.Signal{failing, healthy}, nil
		},
		CloseSignal: func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error {
			return nil
		},
		FetchLastPrice: func(ctx context.Context, market string) (float64, error) {
			if market == "DOGEUSDT" {
				return 0, fmt.Errorf("market data unavailable")
			}
			return 93, nil
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	// The failing market is skipped, the rest of the pass completes.
	events, err := mon.Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(events), 1)
	assert.Equal(t, events[0].Market, "BTCUSDT")
	assert.Equal(t, events[0].Status, database.ClosedTakeProfit)
}

func TestScanSkipsFailedCloses(t *testing.T) {
	logger := zerolog.Nop()
	signal := openSignal("BTCUSDT", shared.Long, 100, 97, 106)

	mon, err := NewMonitor(&MonitorConfig{
		FetchOpenSignals: func(ctx context.Context) ([]*database.Signal, error) {
			return []*database.Signal{signal}, nil
		},
		CloseSignal: func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error {
			return fmt.Errorf("signal already resolved")
		},
		FetchLastPrice: func(ctx context.Context, market string) (float64, error) {
			return 107, nil
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	events, err := mon.Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(events), 0)
}

func TestScanSurfacesFetchErrors(t *testing.T) {
	logger := zerolog.Nop()

	mon, err := NewMonitor(&MonitorConfig{
		FetchOpenSignals: func(ctx context.Context) ([]*database.Signal, error) {
			return nil, fmt.Errorf("store unavailable")
		},
		CloseSignal: func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error {
			return nil
		},
		FetchLastPrice: func(ctx context.Context, market string) (float64, error) {
			return 0, nil
		},
		Logger: &logger,
	})
	assert.NoError(t, err)

	_, err = mon.Scan(context.Background())
	assert.Error(t, err)
}
