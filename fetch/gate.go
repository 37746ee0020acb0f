package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/scout/shared"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the gate.io REST endpoint.
	BaseURL = "https://api.gateio.ws/api/v4"
)

// GateConfig represents the configuration for the gate client.
type GateConfig struct {
	// BaseURL is the gate service endpoint.
	BaseURL string
}

// GateClient represents the gate.io spot market data client, used as a
// fallback provider behind binance.
type GateClient struct {
	cfg   *GateConfig
	httpc http.Client
}

// Ensure the gate client implements the MarketSource interface.
var _ shared.MarketSource = (*GateClient)(nil)

// NewGateClient instantiates a new gate client.
func NewGateClient(cfg *GateConfig) *GateClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}

	return &GateClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: requestTimeout},
	}
}

// currencyPair converts a market symbol to gate's underscore separated form.
func currencyPair(market string) string {
	if strings.Contains(market, "_") {
		return market
	}

	for _, quote := range []string{"USDT", "USDC", "BTC", "ETH"} {
		if strings.HasSuffix(market, quote) && len(market) > len(quote) {
			return market[:len(market)-len(quote)] + "_" + quote
		}
	}

	return market
}

// fetch issues a request against the provided path and returns the parsed body.
func (c *GateClient) fetch(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	formedURL := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("unexpected status from gate: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading response body: %w", err)
	}

	return gjson.ParseBytes(body), nil
}

// ParseCandlesticks parses candlesticks from the provided json data. Gate
// encodes each candle as an array of [timestamp, volume, close, high, low, open, ...].
func (c *GateClient) ParseCandlesticks(data []gjson.Result, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	candles := make([]shared.Candlestick, 0, len(data))

	for idx := range data {
		entry := data[idx].Array()
		if len(entry) < 6 {
			return nil, fmt.Errorf("malformed candlestick entry for %s: %s", market, data[idx].Raw)
		}

		candles = append(candles, shared.Candlestick{
			Date:      time.Unix(entry[0].Int(), 0).UTC(),
			Volume:    entry[1].Float(),
			Close:     entry[2].Float(),
			High:      entry[3].Float(),
			Low:       entry[4].Float(),
			Open:      entry[5].Float(),
			Market:    market,
			Timeframe: timeframe,
		})
	}

	return candles, nil
}

// FetchCandles fetches ordered candlestick data for the provided market and timeframe.
func (c *GateClient) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, limit int) ([]shared.Candlestick, error) {
	const candlesticksPath = "/spot/candlesticks"

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Add("currency_pair", currencyPair(market))
	params.Add("interval", timeframe.String())
	params.Add("limit", strconv.Itoa(limit))

	data, err := c.fetch(ctx, candlesticksPath, params)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candles for %s: %w", timeframe.String(), market, err)
	}

	return c.ParseCandlesticks(data.Array(), market, timeframe)
}

// FetchLastPrice fetches the most recent traded price for the provided market.
func (c *GateClient) FetchLastPrice(ctx context.Context, market string) (float64, error) {
	const tickersPath = "/spot/tickers"

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Add("currency_pair", currencyPair(market))

	data, err := c.fetch(ctx, tickersPath, params)
	if err != nil {
		return 0, fmt.Errorf("fetching last price for %s: %w", market, err)
	}

	price := data.Get("0.last").Float()
	if price <= 0 {
		return 0, fmt.Errorf("no usable last price returned for %s", market)
	}

	return price, nil
}
