package sentiment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dnldd/scout/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// requestTimeout bounds every scoring call.
	requestTimeout = time.Second * 5
	// maxRetryElapsed bounds the retry window for a warming up scoring service.
	maxRetryElapsed = time.Second * 10
	// defaultRequestsPerSecond is the advisory cap on outbound scoring calls.
	defaultRequestsPerSecond = 2
)

// ClientConfig represents the configuration for the sentiment client.
type ClientConfig struct {
	// BaseURL is the sentiment scoring service endpoint.
	BaseURL string
	// APIKey authenticates against the scoring service.
	APIKey string
	// RequestsPerSecond caps outbound scoring calls.
	RequestsPerSecond int
}

// Client represents the sentiment scoring service client. Scoring services
// backed by hosted models respond with a transient warming up status while
// they load, those responses are retried with bounded exponential backoff.
type Client struct {
	cfg     *ClientConfig
	httpc   http.Client
	limiter *rate.Limiter
}

// Ensure the client implements the SentimentSource interface.
var _ shared.SentimentSource = (*Client)(nil)

// NewClient instantiates a new sentiment client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("sentiment service url cannot be an empty string")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}

	return &Client{
		cfg:     cfg,
		httpc:   http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
	}, nil
}

// clampScore clamps the provided score to the [-1, 1] range.
func clampScore(score float64) float64 {
	switch {
	case score > 1:
		return 1
	case score < -1:
		return -1
	default:
		return score
	}
}

// Score returns a sentiment score in the range [-1, 1] for the provided
// market. Callers treat a returned error as neutral sentiment.
func (c *Client) Score(ctx context.Context, market string) (float64, error) {
	const scorePath = "/score"

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Add("symbol", market)

	var score float64
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, scorePath, params.Encode()), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}

		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusServiceUnavailable:
			// The scoring model is still warming up.
			return fmt.Errorf("scoring service warming up")
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("unexpected status from scoring service: %s",
				resp.Status))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("reading response body: %w", err))
		}

		result := gjson.GetBytes(body, "score")
		if !result.Exists() {
			return backoff.Permanent(fmt.Errorf("no score in scoring service response"))
		}

		score = clampScore(result.Float())
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = maxRetryElapsed

	err := backoff.Retry(operation, backoff.WithContext(strategy, ctx))
	if err != nil {
		return 0, fmt.Errorf("scoring sentiment for %s: %w", market, err)
	}

	return score, nil
}
