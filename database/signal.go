package database

import (
	"fmt"

	"github.com/dnldd/scout/shared"
	"github.com/google/uuid"
)

// SignalStatus represents the lifecycle status of a signal.
type SignalStatus int

const (
	Created SignalStatus = iota
	Elite
	Rejected
	ClosedTakeProfit
	ClosedStopLoss
)

// String stringifies the provided signal status.
func (s SignalStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Elite:
		return "elite"
	case Rejected:
		return "rejected"
	case ClosedTakeProfit:
		return "closed_tp"
	case ClosedStopLoss:
		return "closed_sl"
	default:
		return "unknown"
	}
}

// ParseSignalStatus parses a signal status from its string form.
func ParseSignalStatus(str string) (SignalStatus, error) {
	switch str {
	case "created":
		return Created, nil
	case "elite":
		return Elite, nil
	case "rejected":
		return Rejected, nil
	case "closed_tp":
		return ClosedTakeProfit, nil
	case "closed_sl":
		return ClosedStopLoss, nil
	default:
		return Created, fmt.Errorf("unknown signal status: %s", str)
	}
}

// Terminal reports whether the status permits no further transitions.
func (s SignalStatus) Terminal() bool {
	switch s {
	case Rejected, ClosedTakeProfit, ClosedStopLoss:
		return true
	default:
		return false
	}
}

// Signal represents one evaluated decision for a market. Every evaluated
// market appends exactly one signal row per scan cycle, whether accepted or
// rejected, forming an audit log. Only the status and reason mutate after
// insertion, and only once, when the monitor closes the signal.
type Signal struct {
	ID         string
	CreatedOn  uint64
	HourOfDay  int
	Market     string
	Direction  shared.Direction
	EntryPrice float64
	Regimes    map[shared.Timeframe]shared.Regime

	// Indicator context at decision time.
	RSI         float64
	ADX         float64
	ATR         float64
	VolumeRatio float64

	// Risk envelope and decision outcome.
	StopLoss      float64
	TakeProfit    float64
	Aligned       bool
	Confidence    float64
	PercentChange float64
	Status        SignalStatus
	Reason        string
}

// NewSignal initializes a new signal row for the provided market and entry price.
func NewSignal(market string, entryPrice float64) *Signal {
	now := shared.UTCTime()

	return &Signal{
		ID:         uuid.New().String(),
		CreatedOn:  uint64(now.Unix()),
		HourOfDay:  now.Hour(),
		Market:     market,
		EntryPrice: entryPrice,
		Regimes:    make(map[shared.Timeframe]shared.Regime),
		Status:     Created,
	}
}

// Accept marks the signal elite with the provided reason.
func (s *Signal) Accept(reason string) error {
	if s.Status != Created {
		return fmt.Errorf("cannot accept a %s signal", s.Status.String())
	}

	s.Status = Elite
	s.Reason = reason

	return nil
}

// Reject marks the signal rejected with the provided reason.
func (s *Signal) Reject(reason string) error {
	if s.Status != Created {
		return fmt.Errorf("cannot reject a %s signal", s.Status.String())
	}

	s.Status = Rejected
	s.Reason = reason

	return nil
}

// PNLPercent returns the realized percentage change between the signal's
// entry price and the provided exit price.
func (s *Signal) PNLPercent(exitPrice float64) (float64, error) {
	if s.EntryPrice <= 0 {
		return 0, fmt.Errorf("signal %s has no usable entry price", s.ID)
	}

	switch s.Direction {
	case shared.Long:
		return ((exitPrice - s.EntryPrice) / s.EntryPrice) * 100, nil
	case shared.Short:
		return ((s.EntryPrice - exitPrice) / s.EntryPrice) * 100, nil
	default:
		return 0, fmt.Errorf("unknown direction for signal: %s", s.Direction.String())
	}
}
