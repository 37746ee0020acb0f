package shared

// Direction represents the side of a trade signal. The zero value is None,
// a signal rejected before a direction is resolved persists as directionless
// rather than defaulting to a side.
type Direction int

const (
	None Direction = iota
	Long
	Short
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "none"
	}
}

// ParseDirection parses a direction from its string form. Unrecognized
// input resolves to none.
func ParseDirection(str string) Direction {
	switch str {
	case "long":
		return Long
	case "short":
		return Short
	default:
		return None
	}
}
