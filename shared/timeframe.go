package shared

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format layout for parsing dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneHour Timeframe = iota
	FourHour
	OneDay
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneHour:
		return "1h"
	case FourHour:
		return "4h"
	case OneDay:
		return "1d"
	default:
		return "unknown"
	}
}

// Duration returns the period covered by one candle of the provided timeframe.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case OneHour:
		return time.Hour, nil
	case FourHour:
		return time.Hour * 4, nil
	case OneDay:
		return time.Hour * 24, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %d", t)
	}
}

// RequiredTimeframes returns the timeframe set evaluated for every market,
// ordered from the shortest to the longest period.
func RequiredTimeframes() []Timeframe {
	return []Timeframe{OneHour, FourHour, OneDay}
}

// UTCTime returns the current time in utc. Crypto markets trade around the
// clock, so all timestamps are kept in utc.
func UTCTime() time.Time {
	return time.Now().UTC()
}
