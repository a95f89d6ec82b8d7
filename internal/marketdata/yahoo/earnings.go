package yahoo

import (
	"context"
	"net/url"
	"sort"
	"time"

	"stockwatch/internal/errors"
	"stockwatch/internal/models"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			EarningsHistory struct {
				History []earningsEntry `json:"history"`
			} `json:"earningsHistory"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type earningsEntry struct {
	Quarter         rawValue `json:"quarter"`
	EpsActual       rawValue `json:"epsActual"`
	EpsEstimate     rawValue `json:"epsEstimate"`
	SurprisePercent rawValue `json:"surprisePercent"`
	Period          string   `json:"period"`
}

// rawValue is Yahoo's {raw, fmt} number wrapper. Absent values decode
// to a zero Raw.
type rawValue struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

// Earnings returns recent reported quarters, newest first.
func (c *Client) Earnings(ctx context.Context, symbol string) ([]models.EarningsEvent, error) {
	symbol = models.NormalizeSymbol(symbol)
	endpoint := "/v10/finance/quoteSummary/" + symbol

	params := url.Values{}
	params.Set("modules", "earningsHistory")

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, symbol, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error.toError(symbol, endpoint)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "earnings for %s", symbol)
	}

	history := resp.QuoteSummary.Result[0].EarningsHistory.History
	events := make([]models.EarningsEvent, 0, len(history))
	for _, h := range history {
		if h.Quarter.Raw == 0 {
			continue
		}
		events = append(events, models.EarningsEvent{
			Quarter:     time.Unix(int64(h.Quarter.Raw), 0).UTC(),
			Period:      h.Period,
			EPSEstimate: h.EpsEstimate.Raw,
			EPSActual:   h.EpsActual.Raw,
			// Yahoo reports the surprise as a fraction.
			SurprisePercent: h.SurprisePercent.Raw * 100,
		})
	}
	if len(events) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "earnings for %s", symbol)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Quarter.After(events[j].Quarter)
	})
	return events, nil
}
