package models

import "time"

// DividendSnapshot summarizes a ticker's dividend health at one point
// in time. Ratios are percentages; Sustainability is a 0-100 score.
type DividendSnapshot struct {
	Symbol           string    `json:"symbol"`
	Price            float64   `json:"price"`
	TrailingDividend float64   `json:"trailing_dividend"`
	Yield            float64   `json:"yield"`
	PayoutRatio      float64   `json:"payout_ratio"`
	GrowthRate       float64   `json:"growth_rate"`
	Sustainability   float64   `json:"sustainability"`
	LastAmount       float64   `json:"last_amount"`
	LastExDate       time.Time `json:"last_ex_date"`
	Events           int       `json:"events"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// EarningsSnapshot summarizes a ticker's recent earnings track record.
// Streak counts consecutive beats ending at the newest quarter.
type EarningsSnapshot struct {
	Symbol       string    `json:"symbol"`
	Quarters     int       `json:"quarters"`
	Beats        int       `json:"beats"`
	Misses       int       `json:"misses"`
	Streak       int       `json:"streak"`
	BeatRate     float64   `json:"beat_rate"`
	AvgSurprise  float64   `json:"avg_surprise"`
	LastSurprise float64   `json:"last_surprise"`
	Credibility  float64   `json:"credibility"`
	LastQuarter  time.Time `json:"last_quarter"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// OptionsSnapshot summarizes option-flow positioning for the nearest
// expiry. IVLow/IVHigh carry the running range across snapshots so the
// rank survives restarts.
type OptionsSnapshot struct {
	Symbol             string    `json:"symbol"`
	SpotPrice          float64   `json:"spot_price"`
	Expiry             time.Time `json:"expiry"`
	Contracts          int       `json:"contracts"`
	CallVolume         int64     `json:"call_volume"`
	PutVolume          int64     `json:"put_volume"`
	CallOI             int64     `json:"call_oi"`
	PutOI              int64     `json:"put_oi"`
	PutCallVolumeRatio float64   `json:"put_call_volume_ratio"`
	PutCallOIRatio     float64   `json:"put_call_oi_ratio"`
	MeanIV             float64   `json:"mean_iv"`
	IVLow              float64   `json:"iv_low"`
	IVHigh             float64   `json:"iv_high"`
	IVRank             float64   `json:"iv_rank"`
	UnusualVolume      float64   `json:"unusual_volume"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// CorrelationSnapshot summarizes pairwise return correlations for a
// basket of tickers. Matrix row/column order follows Symbols.
type CorrelationSnapshot struct {
	Symbols         []string    `json:"symbols"`
	Window          int         `json:"window"`
	Matrix          [][]float64 `json:"matrix"`
	AvgCorrelation  float64     `json:"avg_correlation"`
	MaxPairA        string      `json:"max_pair_a"`
	MaxPairB        string      `json:"max_pair_b"`
	MaxCorrelation  float64     `json:"max_correlation"`
	Diversification float64     `json:"diversification"`
	FetchedAt       time.Time   `json:"fetched_at"`
}

// InsiderSnapshot summarizes insider filing activity over a trailing
// window. Activity is a 0-100 score centered at 50.
type InsiderSnapshot struct {
	Symbol          string    `json:"symbol"`
	WindowDays      int       `json:"window_days"`
	Filings         int       `json:"filings"`
	Buys            int       `json:"buys"`
	Sells           int       `json:"sells"`
	DistinctBuyers  int       `json:"distinct_buyers"`
	DistinctSellers int       `json:"distinct_sellers"`
	NetShares       float64   `json:"net_shares"`
	NetValue        float64   `json:"net_value"`
	Activity        float64   `json:"activity"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// RatesSnapshot summarizes one economic data series. Deltas are in
// basis points.
type RatesSnapshot struct {
	Series       string    `json:"series"`
	Name         string    `json:"name"`
	Latest       float64   `json:"latest"`
	Date         time.Time `json:"date"`
	DeltaWeekBp  float64   `json:"delta_week_bp"`
	DeltaMonthBp float64   `json:"delta_month_bp"`
	Observations int       `json:"observations"`
	FetchedAt    time.Time `json:"fetched_at"`
}
