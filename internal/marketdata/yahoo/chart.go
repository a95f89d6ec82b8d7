package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"stockwatch/internal/errors"
	"stockwatch/internal/models"
)

// chartResponse is the envelope of the v8 chart endpoint. Indicator
// arrays use pointers because Yahoo emits null for halted sessions.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Events     *chartEvents `json:"events"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		Adjclose []struct {
			Adjclose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type chartEvents struct {
	Dividends map[string]chartDividend `json:"dividends"`
}

type chartDividend struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// PriceHistory returns daily bars for the trailing lookback window,
// oldest first. Null and non-positive closes are skipped.
func (c *Client) PriceHistory(ctx context.Context, symbol string, lookbackDays int) ([]models.Bar, error) {
	symbol = models.NormalizeSymbol(symbol)
	resp, err := c.fetchChart(ctx, symbol, lookbackDays, false)
	if err != nil {
		return nil, err
	}
	return parseChartBars(symbol, resp)
}

// Dividends returns per-share cash dividends for the trailing lookback
// window, oldest first. The chart endpoint carries them as events.
func (c *Client) Dividends(ctx context.Context, symbol string, lookbackDays int) ([]models.DividendEvent, error) {
	symbol = models.NormalizeSymbol(symbol)
	resp, err := c.fetchChart(ctx, symbol, lookbackDays, true)
	if err != nil {
		return nil, err
	}

	result, err := chartResultOf(symbol, resp)
	if err != nil {
		return nil, err
	}

	var events []models.DividendEvent
	if result.Events != nil {
		for _, d := range result.Events.Dividends {
			if d.Amount <= 0 {
				continue
			}
			events = append(events, models.DividendEvent{
				ExDate: time.Unix(d.Date, 0).UTC(),
				Amount: d.Amount,
			})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ExDate.Before(events[j].ExDate)
	})
	return events, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, lookbackDays int, withDividends bool) (*chartResponse, error) {
	now := time.Now()
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(now.AddDate(0, 0, -lookbackDays).Unix(), 10))
	params.Set("period2", strconv.FormatInt(now.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("includePrePost", "false")
	params.Set("includeAdjustedClose", "true")
	if withDividends {
		params.Set("events", "div")
	}

	endpoint := "/v8/finance/chart/" + symbol
	var resp chartResponse
	if err := c.getJSON(ctx, symbol, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error.toError(symbol, endpoint)
	}
	return &resp, nil
}

func chartResultOf(symbol string, resp *chartResponse) (*chartResult, error) {
	if len(resp.Chart.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "chart for %s", symbol)
	}
	return &resp.Chart.Result[0], nil
}

func parseChartBars(symbol string, resp *chartResponse) ([]models.Bar, error) {
	result, err := chartResultOf(symbol, resp)
	if err != nil {
		return nil, err
	}
	if len(result.Timestamp) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "no timestamps for %s", symbol)
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.NewParseError(source, symbol, "no quote indicators", nil)
	}

	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n ||
		len(quote.Close) != n || len(quote.Volume) != n {
		return nil, errors.NewParseError(source, symbol,
			fmt.Sprintf("indicator arrays misaligned with %d timestamps", n), nil)
	}

	var adjclose []*float64
	if len(result.Indicators.Adjclose) > 0 {
		adjclose = result.Indicators.Adjclose[0].Adjclose
	}

	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		closeVal := *quote.Close[i]
		if closeVal <= 0 {
			continue
		}

		bar := models.Bar{
			Date:     time.Unix(result.Timestamp[i], 0).UTC(),
			Open:     *quote.Open[i],
			High:     *quote.High[i],
			Low:      *quote.Low[i],
			Close:    closeVal,
			AdjClose: closeVal,
			Volume:   *quote.Volume[i],
		}
		if i < len(adjclose) && adjclose[i] != nil && *adjclose[i] > 0 {
			bar.AdjClose = *adjclose[i]
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "no valid bars for %s", symbol)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}
