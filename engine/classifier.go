package engine

import (
	"math"

	"github.com/dnldd/scout/shared"
)

const (
	// minLookback is the minimum number of closing prices required to
	// classify a market regime.
	minLookback = 20
	// defaultBandPercent is the relative band around the trend reference
	// within which the market is considered ranging. The band suppresses
	// noise that a bare greater/less comparison would misread in flat markets.
	defaultBandPercent = 0.02
)

// ClassifierConfig represents the regime classifier configuration.
type ClassifierConfig struct {
	// Lookback is the number of closing prices used for the trend reference.
	Lookback int
	// BandPercent is the relative threshold band around the trend reference.
	BandPercent float64
}

// Classifier turns one timeframe's indicator snapshot into a categorical
// market state by comparing the latest close against a simple moving average
// of the lookback window.
type Classifier struct {
	cfg *ClassifierConfig
}

// NewClassifier initializes a new regime classifier.
func NewClassifier(cfg *ClassifierConfig) *Classifier {
	if cfg.Lookback <= 0 {
		cfg.Lookback = minLookback
	}
	if cfg.BandPercent <= 0 {
		cfg.BandPercent = defaultBandPercent
	}

	return &Classifier{
		cfg: cfg,
	}
}

// Classify returns the market regime of the provided snapshot. It never
// panics, any computation failure resolves to an unknown regime.
func (c *Classifier) Classify(snapshot *shared.MarketSnapshot) shared.Regime {
	if snapshot == nil {
		return shared.UnknownRegime
	}

	closes := snapshot.Closes()
	if len(closes) < c.cfg.Lookback {
		return shared.UnknownRegime
	}

	window := closes[len(closes)-c.cfg.Lookback:]
	var sum float64
	for idx := range window {
		if math.IsNaN(window[idx]) || math.IsInf(window[idx], 0) {
			return shared.UnknownRegime
		}
		sum += window[idx]
	}

	trendReference := sum / float64(c.cfg.Lookback)
	if trendReference <= 0 {
		return shared.UnknownRegime
	}

	lastClose := closes[len(closes)-1]
	diffPercent := (lastClose - trendReference) / trendReference

	switch {
	case diffPercent > c.cfg.BandPercent:
		return shared.BullishRegime
	case diffPercent < -c.cfg.BandPercent:
		return shared.BearishRegime
	default:
		return shared.RangingRegime
	}
}
