package yahoo

import (
	"context"
	"net/url"
	"sort"
	"time"

	"stockwatch/internal/errors"
	"stockwatch/internal/models"
)

type optionsResponse struct {
	OptionChain struct {
		Result []optionsResult `json:"result"`
		Error  *apiError       `json:"error"`
	} `json:"optionChain"`
}

type optionsResult struct {
	UnderlyingSymbol string  `json:"underlyingSymbol"`
	ExpirationDates  []int64 `json:"expirationDates"`
	Quote            struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"quote"`
	Options []struct {
		ExpirationDate int64         `json:"expirationDate"`
		Calls          []optionQuote `json:"calls"`
		Puts           []optionQuote `json:"puts"`
	} `json:"options"`
}

type optionQuote struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	InTheMoney        bool    `json:"inTheMoney"`
	Expiration        int64   `json:"expiration"`
}

// OptionChain returns the chain for the nearest listed expiry.
func (c *Client) OptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	symbol = models.NormalizeSymbol(symbol)
	endpoint := "/v7/finance/options/" + symbol

	var resp optionsResponse
	if err := c.getJSON(ctx, symbol, endpoint, url.Values{}, &resp); err != nil {
		return nil, err
	}
	if resp.OptionChain.Error != nil {
		return nil, resp.OptionChain.Error.toError(symbol, endpoint)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrSymbolNotFound, "%s", symbol)
	}

	r := resp.OptionChain.Result[0]
	if len(r.Options) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "option chain for %s", symbol)
	}

	nearest := r.Options[0]
	chain := &models.OptionChain{
		Symbol:    symbol,
		SpotPrice: r.Quote.RegularMarketPrice,
		Expiry:    time.Unix(nearest.ExpirationDate, 0).UTC(),
		Calls:     convertContracts(nearest.Calls),
		Puts:      convertContracts(nearest.Puts),
	}
	if len(chain.Calls) == 0 && len(chain.Puts) == 0 {
		return nil, errors.Wrapf(errors.ErrNoData, "empty chain for %s", symbol)
	}
	return chain, nil
}

func convertContracts(quotes []optionQuote) []models.OptionContract {
	contracts := make([]models.OptionContract, 0, len(quotes))
	for _, q := range quotes {
		if q.Strike <= 0 {
			continue
		}
		contracts = append(contracts, models.OptionContract{
			ContractSymbol: q.ContractSymbol,
			Strike:         q.Strike,
			LastPrice:      q.LastPrice,
			Bid:            q.Bid,
			Ask:            q.Ask,
			Volume:         q.Volume,
			OpenInterest:   q.OpenInterest,
			IV:             q.ImpliedVolatility,
			InTheMoney:     q.InTheMoney,
			Expiry:         time.Unix(q.Expiration, 0).UTC(),
		})
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].Strike < contracts[j].Strike
	})
	return contracts
}
