// Package yahoo implements the market data provider backed by the
// public Yahoo Finance JSON endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"stockwatch/internal/errors"
	"stockwatch/internal/logging"
	"stockwatch/internal/marketdata"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) stockwatch/1.0"

	source = "yahoo"
)

// Options configures the client.
type Options struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Client talks to Yahoo Finance. One instance is safe for concurrent
// use; all requests share a single rate limiter.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	baseURL    string
	userAgent  string
}

var _ marketdata.Provider = (*Client)(nil)

// New creates a new Yahoo Finance client.
func New(opts Options, logger zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 4
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		logger:     logger.With().Str("source", source).Logger(),
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
	}
}

// apiError is the error object Yahoo embeds in every envelope.
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) toError(symbol, endpoint string) error {
	if e.Code == "Not Found" {
		return errors.Wrapf(errors.ErrSymbolNotFound, "%s", symbol)
	}
	return errors.NewFetchError(source, symbol, endpoint, 0,
		fmt.Errorf("api error: %s - %s", e.Code, e.Description))
}

// getJSON performs one rate-limited GET and decodes the body into out.
// Failures are not retried; the caller skips the symbol and moves on.
func (c *Client) getJSON(ctx context.Context, symbol, endpoint string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.NewFetchError(source, symbol, endpoint, 0, err)
	}

	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.NewFetchError(source, symbol, endpoint, 0, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	logging.LogAPICall(c.logger, http.MethodGet, endpoint, time.Since(start), err)
	if err != nil {
		return errors.NewFetchError(source, symbol, endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewFetchError(source, symbol, endpoint, resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewParseError(source, symbol, "decoding response", err)
	}
	return nil
}
