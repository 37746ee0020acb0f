package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dnldd/scout/shared"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// defaultRequestsPerSecond is the advisory cap on outbound market data calls.
const defaultRequestsPerSecond = 5

// SourceConfig represents the market data source configuration.
type SourceConfig struct {
	// Providers is the ordered provider fallback chain.
	Providers []shared.MarketSource
	// RequestsPerSecond caps outbound calls across all providers. The cap is
	// advisory, it respects collaborator throughput limits rather than
	// enforcing correctness.
	RequestsPerSecond int
	// Logger represents the source logger.
	Logger *zerolog.Logger
}

// Source fronts an ordered chain of market data providers. The first
// provider to succeed serves the request, callers stay agnostic to which
// provider was used.
type Source struct {
	cfg     *SourceConfig
	limiter *rate.Limiter
}

// Ensure the source implements the MarketSource interface.
var _ shared.MarketSource = (*Source)(nil)

// NewSource initializes a new market data source.
func NewSource(cfg *SourceConfig) (*Source, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no market data providers configured")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}

	return &Source{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
	}, nil
}

// FetchCandles fetches ordered candlestick data from the first provider able
// to serve the request.
func (s *Source) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, limit int) ([]shared.Candlestick, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var errs error
	for _, provider := range s.cfg.Providers {
		candles, err := provider.FetchCandles(ctx, market, timeframe, limit)
		if err != nil {
			s.cfg.Logger.Error().Msgf("fetching %s candles for %s: %v",
				timeframe.String(), market, err)
			errs = errors.Join(errs, err)
			continue
		}
		if len(candles) == 0 {
			errs = errors.Join(errs, fmt.Errorf("no candle data for %s (%s)",
				market, timeframe.String()))
			continue
		}

		return candles, nil
	}

	return nil, fmt.Errorf("all providers failed fetching candles for %s: %w", market, errs)
}

// FetchLastPrice fetches the most recent traded price from the first
// provider able to serve the request.
func (s *Source) FetchLastPrice(ctx context.Context, market string) (float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var errs error
	for _, provider := range s.cfg.Providers {
		price, err := provider.FetchLastPrice(ctx, market)
		if err != nil {
			s.cfg.Logger.Error().Msgf("fetching last price for %s: %v", market, err)
			errs = errors.Join(errs, err)
			continue
		}

		return price, nil
	}

	return 0, fmt.Errorf("all providers failed fetching last price for %s: %w", market, errs)
}
