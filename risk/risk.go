package risk

import (
	"fmt"

	"github.com/dnldd/scout/shared"
)

const (
	// defaultStopMultiplier scales the average true range into a stop distance.
	defaultStopMultiplier = 1.5
	// defaultRewardRatio is the target distance as a multiple of the stop distance.
	defaultRewardRatio = 2
	// defaultSwingLookback is the lookback window for swing extrema.
	defaultSwingLookback = 20
)

// StopPolicy represents the stop distance derivation policy. The policy is
// fixed per deployment at construction time.
type StopPolicy int

const (
	// VolatilityStop derives the stop distance from the average true range.
	VolatilityStop StopPolicy = iota
	// SwingStop derives the stop from a rolling swing extremum.
	SwingStop
)

// String stringifies the provided stop policy.
func (p StopPolicy) String() string {
	switch p {
	case VolatilityStop:
		return "volatility"
	case SwingStop:
		return "swing"
	default:
		return "unknown"
	}
}

// ParseStopPolicy parses a stop policy from its string form.
func ParseStopPolicy(str string) (StopPolicy, error) {
	switch str {
	case "", "volatility":
		return VolatilityStop, nil
	case "swing":
		return SwingStop, nil
	default:
		return VolatilityStop, fmt.Errorf("unknown stop policy: %s", str)
	}
}

// CalculatorConfig represents the risk calculator configuration.
type CalculatorConfig struct {
	// Policy is the stop distance derivation policy.
	Policy StopPolicy
	// StopMultiplier scales the average true range into a stop distance.
	StopMultiplier float64
	// RewardRatio is the target distance as a multiple of the stop distance.
	RewardRatio float64
	// SwingLookback is the lookback window for swing extrema.
	SwingLookback int
}

// Calculator derives stop loss and take profit levels for trade signals.
type Calculator struct {
	cfg *CalculatorConfig
}

// NewCalculator initializes a new risk calculator.
func NewCalculator(cfg *CalculatorConfig) *Calculator {
	if cfg.StopMultiplier <= 0 {
		cfg.StopMultiplier = defaultStopMultiplier
	}
	if cfg.RewardRatio <= 0 {
		cfg.RewardRatio = defaultRewardRatio
	}
	if cfg.SwingLookback <= 0 {
		cfg.SwingLookback = defaultSwingLookback
	}

	return &Calculator{
		cfg: cfg,
	}
}

// swingExtremum returns the rolling low (long) or high (short) over the
// configured lookback window.
func (c *Calculator) swingExtremum(candles []shared.Candlestick, direction shared.Direction) (float64, error) {
	if len(candles) < c.cfg.SwingLookback {
		return 0, fmt.Errorf("insufficient candles for swing extremum: %d of %d",
			len(candles), c.cfg.SwingLookback)
	}

	window := candles[len(candles)-c.cfg.SwingLookback:]
	extremum := window[0].Low
	if direction == shared.Short {
		extremum = window[0].High
	}

	for idx := range window {
		switch direction {
		case shared.Long:
			if window[idx].Low < extremum {
				extremum = window[idx].Low
			}
		case shared.Short:
			if window[idx].High > extremum {
				extremum = window[idx].High
			}
		}
	}

	return extremum, nil
}

// Levels derives the stop loss and take profit for the provided entry. It
// errors when the stop distance is non-positive or the resulting levels do
// not bracket the entry for the given direction, such signals must be
// recorded as rejected rather than stored with an inconsistent risk envelope.
func (c *Calculator) Levels(snapshot *shared.MarketSnapshot, direction shared.Direction, entryPrice float64) (float64, float64, error) {
	if snapshot == nil {
		return 0, 0, fmt.Errorf("no snapshot provided for risk levels")
	}
	if entryPrice <= 0 {
		return 0, 0, fmt.Errorf("entry price must be positive, got %f", entryPrice)
	}

	var stopLoss float64
	switch c.cfg.Policy {
	case VolatilityStop:
		stopDistance := snapshot.ATR * c.cfg.StopMultiplier
		if stopDistance <= 0 {
			return 0, 0, fmt.Errorf("non-positive stop distance from atr %f", snapshot.ATR)
		}

		switch direction {
		case shared.Long:
			stopLoss = entryPrice - stopDistance
		case shared.Short:
			stopLoss = entryPrice + stopDistance
		}
	case SwingStop:
		extremum, err := c.swingExtremum(snapshot.Candles, direction)
		if err != nil {
			return 0, 0, err
		}

		stopLoss = extremum
	default:
		return 0, 0, fmt.Errorf("unknown stop policy: %d", c.cfg.Policy)
	}

	var takeProfit float64
	switch direction {
	case shared.Long:
		stopDistance := entryPrice - stopLoss
		if stopDistance <= 0 {
			return 0, 0, fmt.Errorf("non-positive stop distance %f for long entry %f",
				stopDistance, entryPrice)
		}
		takeProfit = entryPrice + c.cfg.RewardRatio*stopDistance
	case shared.Short:
		stopDistance := stopLoss - entryPrice
		if stopDistance <= 0 {
			return 0, 0, fmt.Errorf("non-positive stop distance %f for short entry %f",
				stopDistance, entryPrice)
		}
		takeProfit = entryPrice - c.cfg.RewardRatio*stopDistance
	default:
		return 0, 0, fmt.Errorf("unknown direction: %s", direction.String())
	}

	if err := ValidateLevels(direction, entryPrice, stopLoss, takeProfit); err != nil {
		return 0, 0, err
	}

	return stopLoss, takeProfit, nil
}

// ValidateLevels asserts the risk envelope ordering for the provided
// direction: long entries must satisfy stop < entry < target, short entries
// the reverse.
func ValidateLevels(direction shared.Direction, entryPrice float64, stopLoss float64, takeProfit float64) error {
	switch direction {
	case shared.Long:
		if !(stopLoss < entryPrice && entryPrice < takeProfit) {
			return fmt.Errorf("invalid long risk levels: stop %f, entry %f, target %f",
				stopLoss, entryPrice, takeProfit)
		}
	case shared.Short:
		if !(takeProfit < entryPrice && entryPrice < stopLoss) {
			return fmt.Errorf("invalid short risk levels: target %f, entry %f, stop %f",
				takeProfit, entryPrice, stopLoss)
		}
	default:
		return fmt.Errorf("unknown direction: %s", direction.String())
	}

	return nil
}
