// Package models provides domain models for the market monitoring application.
package models

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Bar represents daily OHLCV data for one trading day.
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Quote represents a delayed market quote.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Currency      string    `json:"currency"`
	MarketState   string    `json:"market_state"`
	Timestamp     time.Time `json:"timestamp"`
}

// DividendEvent represents a single per-share cash dividend.
type DividendEvent struct {
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"`
}

// EarningsEvent represents one reported quarter.
type EarningsEvent struct {
	Quarter         time.Time `json:"quarter"`
	Period          string    `json:"period"`
	EPSEstimate     float64   `json:"eps_estimate"`
	EPSActual       float64   `json:"eps_actual"`
	SurprisePercent float64   `json:"surprise_percent"`
}

// Beat reports whether actual EPS met or exceeded the estimate.
func (e EarningsEvent) Beat() bool {
	return e.EPSActual >= e.EPSEstimate
}

// InsiderTransaction represents one reported insider trade from an
// ownership filing.
type InsiderTransaction struct {
	Owner       string    `json:"owner"`
	Role        string    `json:"role"`
	Date        time.Time `json:"date"`
	Code        string    `json:"code"` // P = purchase, S = sale
	Shares      float64   `json:"shares"`
	Price       float64   `json:"price"`
	Value       float64   `json:"value"`
	FormType    string    `json:"form_type"`
	AccessionNo string    `json:"accession_no"`
}

// IsBuy reports whether the transaction is an open-market purchase.
func (t InsiderTransaction) IsBuy() bool {
	return t.Code == "P" || t.Code == "A"
}

// IsSell reports whether the transaction is an open-market sale.
func (t InsiderTransaction) IsSell() bool {
	return t.Code == "S" || t.Code == "D"
}

// EconObservation represents one point of an economic data series.
type EconObservation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// NormalizeSymbol canonicalizes a ticker symbol for lookups and cache keys.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Covers plain tickers plus the suffix, class-share, index and FX forms
// the sources serve (VOD.L, BRK-B, ^GSPC, EURUSD=X).
var symbolRe = regexp.MustCompile(`^[\^]?[A-Z0-9][A-Z0-9.=-]{0,19}$`)

// ValidSymbol reports whether a ticker, after normalization, looks like
// something a data source could serve.
func ValidSymbol(symbol string) bool {
	return symbolRe.MatchString(NormalizeSymbol(symbol))
}

// BasketKey builds the canonical cache/alert key for a symbol basket:
// normalized, sorted, pipe-joined. Order of the input never changes
// the key.
func BasketKey(symbols []string) string {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if n := NormalizeSymbol(s); n != "" {
			normalized = append(normalized, n)
		}
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "|")
}

// DailyReturns converts a chronological series of bars into day-over-day
// percentage returns. The result has len(bars)-1 entries; fewer than two
// bars yields an empty slice.
func DailyReturns(bars []Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (bars[i].Close-prev)/prev*100)
	}
	return returns
}
