package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/dnldd/scout/database"
	"github.com/dnldd/scout/shared"
	"github.com/rs/zerolog"
)

// defaultPriceTimeout bounds each price lookup during a scan.
const defaultPriceTimeout = time.Second * 5

// ClosureEvent describes an elite signal resolved during a scan.
type ClosureEvent struct {
	// ID is the resolved signal id.
	ID string
	// Market is the tracked market.
	Market string
	// Direction is the direction of the resolved signal.
	Direction shared.Direction
	// EntryPrice is the price the signal was generated at.
	EntryPrice float64
	// ExitPrice is the level the signal resolved at.
	ExitPrice float64
	// PNLPercent is the realized percentage change from entry to exit.
	PNLPercent float64
	// Status is the terminal status applied to the signal.
	Status database.SignalStatus
}

// MonitorConfig represents the monitor configuration.
type MonitorConfig struct {
	// FetchOpenSignals fetches all unresolved elite signals.
	FetchOpenSignals func(ctx context.Context) ([]*database.Signal, error)
	// CloseSignal transitions the provided signal to a terminal status,
	// recording the realized percent change.
	CloseSignal func(ctx context.Context, id string, status database.SignalStatus, reason string, pnlPercent float64) error
	// FetchLastPrice fetches the most recent traded price for the provided market.
	FetchLastPrice func(ctx context.Context, market string) (float64, error)
	// Notify sends the provided message.
	Notify func(message string)
	// PriceTimeout bounds each price lookup.
	PriceTimeout time.Duration
	// Logger represents the monitor logger.
	Logger *zerolog.Logger
}

// Monitor tracks open elite signals and resolves them once price crosses
// their take profit or stop loss levels.
type Monitor struct {
	cfg *MonitorConfig
}

// NewMonitor initializes a new signal monitor.
func NewMonitor(cfg *MonitorConfig) (*Monitor, error) {
	if cfg.FetchOpenSignals == nil {
		return nil, fmt.Errorf("fetch open signals function cannot be nil")
	}
	if cfg.CloseSignal == nil {
		return nil, fmt.Errorf("close signal function cannot be nil")
	}
	if cfg.FetchLastPrice == nil {
		return nil, fmt.Errorf("fetch last price function cannot be nil")
	}
	if cfg.PriceTimeout <= 0 {
		cfg.PriceTimeout = defaultPriceTimeout
	}

	return &Monitor{
		cfg: cfg,
	}, nil
}

// evaluateBreach returns the terminal status for the provided signal at the
// current price, and whether a level was crossed at all.
func evaluateBreach(signal *database.Signal, currentPrice float64) (database.SignalStatus, bool) {
	switch signal.Direction {
	case shared.Long:
		switch {
		case currentPrice >= signal.TakeProfit:
			return database.ClosedTakeProfit, true
		case currentPrice <= signal.StopLoss:
			return database.ClosedStopLoss, true
		}
	case shared.Short:
		switch {
		case currentPrice <= signal.TakeProfit:
			return database.ClosedTakeProfit, true
		case currentPrice >= signal.StopLoss:
			return database.ClosedStopLoss, true
		}
	}

	return database.Created, false
}

// exitLevel returns the audited exit price for the provided closure status.
// Signals resolve at the level they crossed, not the observed tick, so
// realized outcomes stay consistent with the persisted levels.
func exitLevel(signal *database.Signal, status database.SignalStatus) float64 {
	if status == database.ClosedTakeProfit {
		return signal.TakeProfit
	}

	return signal.StopLoss
}

// Scan re-evaluates all open elite signals against current prices and closes
// those that crossed their levels. A failure on one signal is logged and
// skipped, it never aborts the pass.
func (m *Monitor) Scan(ctx context.Context) ([]ClosureEvent, error) {
	signals, err := m.cfg.FetchOpenSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching open signals: %w", err)
	}

	events := make([]ClosureEvent, 0, len(signals))
	for _, signal := range signals {
		if ctx.Err() != nil {
			return events, ctx.Err()
		}

		priceCtx, cancel := context.WithTimeout(ctx, m.cfg.PriceTimeout)
		currentPrice, err := m.cfg.FetchLastPrice(priceCtx, signal.Market)
		cancel()
		if err != nil {
			m.cfg.Logger.Error().Msgf("fetching last price for %s: %v", signal.Market, err)
			continue
		}

		status, crossed := evaluateBreach(signal, currentPrice)
		if !crossed {
			continue
		}

		exitPrice := exitLevel(signal, status)
		pnl, err := signal.PNLPercent(exitPrice)
		if err != nil {
			m.cfg.Logger.Error().Msgf("computing pnl for signal %s: %v", signal.ID, err)
			continue
		}

		var reason string
		switch status {
		case database.ClosedTakeProfit:
			reason = fmt.Sprintf("take profit hit at %.8f", exitPrice)
		default:
			reason = fmt.Sprintf("stop loss hit at %.8f", exitPrice)
		}

		err = m.cfg.CloseSignal(ctx, signal.ID, status, reason, pnl)
		if err != nil {
			m.cfg.Logger.Error().Msgf("closing signal %s: %v", signal.ID, err)
			continue
		}

		event := ClosureEvent{
			ID:         signal.ID,
			Market:     signal.Market,
			Direction:  signal.Direction,
			EntryPrice: signal.EntryPrice,
			ExitPrice:  exitPrice,
			PNLPercent: pnl,
			Status:     status,
		}
		events = append(events, event)

		m.cfg.Logger.Info().Msgf("closed %s signal for %s at %.8f (%.2f%%)",
			signal.Direction.String(), signal.Market, exitPrice, pnl)

		if m.cfg.Notify != nil {
			m.cfg.Notify(fmt.Sprintf("%s %s signal %s at %.8f, entry %.8f, pnl %.2f%%",
				signal.Market, signal.Direction.String(), status.String(),
				exitPrice, signal.EntryPrice, pnl))
		}
	}

	return events, nil
}
