package shared

// Regime represents the categorical market state of one timeframe.
type Regime int

const (
	UnknownRegime Regime = iota
	BullishRegime
	BearishRegime
	RangingRegime
)

// String stringifies the provided regime.
func (r Regime) String() string {
	switch r {
	case BullishRegime:
		return "bullish"
	case BearishRegime:
		return "bearish"
	case RangingRegime:
		return "ranging"
	default:
		return "unknown"
	}
}

// ParseRegime parses a regime from its string form. Unrecognized input
// resolves to an unknown regime.
func ParseRegime(str string) Regime {
	switch str {
	case "bullish":
		return BullishRegime
	case "bearish":
		return BearishRegime
	case "ranging":
		return RangingRegime
	default:
		return UnknownRegime
	}
}

// Direction returns the trade direction implied by the regime and whether
// the regime carries a directional bias at all.
func (r Regime) Direction() (Direction, bool) {
	switch r {
	case BullishRegime:
		return Long, true
	case BearishRegime:
		return Short, true
	default:
		return None, false
	}
}
