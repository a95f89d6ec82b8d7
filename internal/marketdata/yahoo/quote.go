package yahoo

import (
	"context"
	"net/url"
	"time"

	"stockwatch/internal/errors"
	"stockwatch/internal/models"
)

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                     string  `json:"symbol"`
	Currency                   string  `json:"currency"`
	MarketState                string  `json:"marketState"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

// Quote returns the latest delayed quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	endpoint := "/v7/finance/quote"

	params := url.Values{}
	params.Set("symbols", symbol)

	var resp quoteResponse
	if err := c.getJSON(ctx, symbol, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteResponse.Error != nil {
		return nil, resp.QuoteResponse.Error.toError(symbol, endpoint)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrSymbolNotFound, "%s", symbol)
	}

	r := resp.QuoteResponse.Result[0]
	return &models.Quote{
		Symbol:        r.Symbol,
		Price:         r.RegularMarketPrice,
		Open:          r.RegularMarketOpen,
		High:          r.RegularMarketDayHigh,
		Low:           r.RegularMarketDayLow,
		PrevClose:     r.RegularMarketPreviousClose,
		Volume:        r.RegularMarketVolume,
		Change:        r.RegularMarketChange,
		ChangePercent: r.RegularMarketChangePercent,
		Currency:      r.Currency,
		MarketState:   r.MarketState,
		Timestamp:     time.Unix(r.RegularMarketTime, 0).UTC(),
	}, nil
}
