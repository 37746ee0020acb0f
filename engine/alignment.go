package engine

import (
	"fmt"

	"github.com/dnldd/scout/shared"
)

const (
	// defaultStrengthThreshold is the minimum trend strength (adx) required
	// for aligned timeframes to be actionable.
	defaultStrengthThreshold = 25
	// overboughtRSI is the momentum level above which bullish signals are rejected.
	overboughtRSI = 70
	// oversoldRSI is the momentum level below which bearish signals are rejected.
	oversoldRSI = 30
)

// AlignmentConfig represents the alignment evaluator configuration.
type AlignmentConfig struct {
	// Timeframes is the ordered set of timeframes that must agree.
	Timeframes []shared.Timeframe
	// StrengthThreshold is the minimum trend strength for an aligned call.
	StrengthThreshold float64
}

// AlignmentEvaluator compares regimes across the required timeframe set and
// applies the trend strength filter.
type AlignmentEvaluator struct {
	cfg *AlignmentConfig
}

// NewAlignmentEvaluator initializes a new alignment evaluator.
func NewAlignmentEvaluator(cfg *AlignmentConfig) *AlignmentEvaluator {
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = shared.RequiredTimeframes()
	}
	if cfg.StrengthThreshold <= 0 {
		cfg.StrengthThreshold = defaultStrengthThreshold
	}

	return &AlignmentEvaluator{
		cfg: cfg,
	}
}

// Evaluate reports whether every required timeframe maps to the same
// non-unknown regime and the provided trend strength clears the threshold.
// When alignment fails the returned reason identifies the specific cause.
func (e *AlignmentEvaluator) Evaluate(regimes map[shared.Timeframe]shared.Regime, strength float64) (bool, string) {
	reference := shared.UnknownRegime
	referenceTimeframe := e.cfg.Timeframes[0]

	for _, timeframe := range e.cfg.Timeframes {
		regime, ok := regimes[timeframe]
		if !ok || regime == shared.UnknownRegime {
			return false, fmt.Sprintf("%s regime is unknown", timeframe.String())
		}

		if reference == shared.UnknownRegime {
			reference = regime
			referenceTimeframe = timeframe
			continue
		}

		if regime != reference {
			return false, fmt.Sprintf("timeframe disagreement: %s is %s but %s is %s",
				referenceTimeframe.String(), reference.String(), timeframe.String(), regime.String())
		}
	}

	if strength < e.cfg.StrengthThreshold {
		return false, fmt.Sprintf("insufficient trend strength: adx %.2f below threshold %.2f",
			strength, e.cfg.StrengthThreshold)
	}

	return true, fmt.Sprintf("%s regime aligned across all timeframes", reference.String())
}

// CheckMomentum applies the overbought/oversold side filters to an aligned
// directional call. It reports whether the call survives and a descriptive
// reason when it does not.
func (e *AlignmentEvaluator) CheckMomentum(direction shared.Direction, rsi float64) (bool, string) {
	switch direction {
	case shared.Long:
		if rsi >= overboughtRSI {
			return false, fmt.Sprintf("bullish call rejected: rsi %.2f already overbought", rsi)
		}
	case shared.Short:
		if rsi <= oversoldRSI {
			return false, fmt.Sprintf("bearish call rejected: rsi %.2f already oversold", rsi)
		}
	}

	return true, ""
}
