package fetch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/dnldd/scout/shared"
)

// requestTimeout bounds every external market data call.
const requestTimeout = time.Second * 5

// BinanceConfig represents the configuration for the binance client.
type BinanceConfig struct {
	// APIKey is the binance API key. Public market data endpoints work
	// unauthenticated, the key is only needed for raised rate limits.
	APIKey string
	// SecretKey is the binance API secret.
	SecretKey string
	// BaseURL overrides the binance REST endpoint.
	BaseURL string
}

// BinanceClient represents the binance spot market data client.
type BinanceClient struct {
	cfg    *BinanceConfig
	client *binance.Client
}

// Ensure the binance client implements the MarketSource interface.
var _ shared.MarketSource = (*BinanceClient)(nil)

// NewBinanceClient instantiates a new binance client.
func NewBinanceClient(cfg *BinanceConfig) *BinanceClient {
	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	return &BinanceClient{
		cfg:    cfg,
		client: client,
	}
}

// parseFloat parses the provided decimal string, malformed values resolve to zero.
func parseFloat(str string) float64 {
	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0
	}

	return value
}

// FetchCandles fetches ordered candlestick data for the provided market and timeframe.
func (c *BinanceClient) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, limit int) ([]shared.Candlestick, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	klines, err := c.client.NewKlinesService().Symbol(market).
		Interval(timeframe.String()).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candles for %s: %w", timeframe.String(), market, err)
	}

	candles := make([]shared.Candlestick, 0, len(klines))
	for _, kline := range klines {
		if kline == nil {
			continue
		}

		candles = append(candles, shared.Candlestick{
			Open:      parseFloat(kline.Open),
			High:      parseFloat(kline.High),
			Low:       parseFloat(kline.Low),
			Close:     parseFloat(kline.Close),
			Volume:    parseFloat(kline.Volume),
			Date:      time.UnixMilli(kline.OpenTime).UTC(),
			Market:    market,
			Timeframe: timeframe,
		})
	}

	return candles, nil
}

// FetchLastPrice fetches the most recent traded price for the provided market.
func (c *BinanceClient) FetchLastPrice(ctx context.Context, market string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prices, err := c.client.NewListPricesService().Symbol(market).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching last price for %s: %w", market, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", market)
	}

	price := parseFloat(prices[0].Price)
	if price <= 0 {
		return 0, fmt.Errorf("unusable price %q returned for %s", prices[0].Price, market)
	}

	return price, nil
}
