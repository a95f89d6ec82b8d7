// Package fred implements the economic data source backed by the
// St. Louis Fed FRED API.
package fred

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"stockwatch/internal/errors"
	"stockwatch/internal/logging"
	"stockwatch/internal/marketdata"
	"stockwatch/internal/models"
)

const (
	defaultBaseURL = "https://api.stlouisfed.org"

	source = "fred"
)

// SeriesNames maps the rate series the tracker watches by default to
// their display names.
var SeriesNames = map[string]string{
	"DGS2":         "2-Year Treasury Constant Maturity",
	"DGS10":        "10-Year Treasury Constant Maturity",
	"T10Y2Y":       "10-Year minus 2-Year Treasury Spread",
	"FEDFUNDS":     "Effective Federal Funds Rate",
	"MORTGAGE30US": "30-Year Fixed Rate Mortgage Average",
}

// DefaultSeries is the watch set used when no series are specified.
var DefaultSeries = []string{"DGS2", "DGS10", "T10Y2Y", "FEDFUNDS"}

// Options configures the client.
type Options struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Client talks to the FRED API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	baseURL    string
	apiKey     string
}

var _ marketdata.EconSource = (*Client)(nil)

// New creates a new FRED client.
func New(opts Options, logger zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
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
		apiKey:     opts.APIKey,
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Observations returns series points from start onward, oldest first.
// FRED marks missing observations with "."; those are dropped.
func (c *Client) Observations(ctx context.Context, seriesID string, start time.Time) ([]models.EconObservation, error) {
	seriesID = strings.ToUpper(strings.TrimSpace(seriesID))
	if c.apiKey == "" {
		return nil, errors.Wrapf(errors.ErrMissingCredentials, "FRED api key for %s", seriesID)
	}

	payload, err := c.fetchObservations(ctx, seriesID, start)
	if err != nil {
		return nil, err
	}

	observations := make([]models.EconObservation, 0, len(payload.Observations))
	for _, o := range payload.Observations {
		if o.Value == "." || o.Value == "" {
			continue
		}
		value, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		observations = append(observations, models.EconObservation{
			Date:  date.UTC(),
			Value: value,
		})
	}
	if len(observations) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "observations for %s", seriesID)
	}
	return observations, nil
}

// fetchObservations performs the request. Failures are not retried; the
// caller skips the series and moves on.
func (c *Client) fetchObservations(ctx context.Context, seriesID string, start time.Time) (observationsResponse, error) {
	var payload observationsResponse

	endpoint := "/fred/series/observations"
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", start.Format("2006-01-02"))
	params.Set("sort_order", "asc")

	if err := c.limiter.Wait(ctx); err != nil {
		return payload, errors.NewFetchError(source, seriesID, endpoint, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return payload, errors.NewFetchError(source, seriesID, endpoint, 0, err)
	}

	startedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	logging.LogAPICall(c.logger, http.MethodGet, endpoint, time.Since(startedAt), err)
	if err != nil {
		return payload, errors.NewFetchError(source, seriesID, endpoint, 0, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return payload, errors.NewFetchError(source, seriesID, endpoint, resp.StatusCode, nil)
		}
		return payload, errors.NewParseError(source, seriesID, "decoding response", err)
	}
	if payload.ErrorCode != 0 {
		if payload.ErrorCode == http.StatusBadRequest && strings.Contains(payload.ErrorMessage, "series does not exist") {
			return payload, errors.Wrapf(errors.ErrSeriesNotFound, "%s", seriesID)
		}
		return payload, errors.NewFetchError(source, seriesID, endpoint, payload.ErrorCode,
			errors.Wrap(errors.ErrNoData, payload.ErrorMessage))
	}
	if resp.StatusCode != http.StatusOK {
		return payload, errors.NewFetchError(source, seriesID, endpoint, resp.StatusCode, nil)
	}
	return payload, nil
}
