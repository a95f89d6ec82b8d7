package models

import "time"

// OptionChain represents one expiry of a listed option chain.
type OptionChain struct {
	Symbol    string           `json:"symbol"`
	SpotPrice float64          `json:"spot_price"`
	Expiry    time.Time        `json:"expiry"`
	Calls     []OptionContract `json:"calls"`
	Puts      []OptionContract `json:"puts"`
}

// OptionContract represents a single listed contract.
type OptionContract struct {
	ContractSymbol string    `json:"contract_symbol"`
	Strike         float64   `json:"strike"`
	LastPrice      float64   `json:"last_price"`
	Bid            float64   `json:"bid"`
	Ask            float64   `json:"ask"`
	Volume         int64     `json:"volume"`
	OpenInterest   int64     `json:"open_interest"`
	IV             float64   `json:"iv"`
	InTheMoney     bool      `json:"in_the_money"`
	Expiry         time.Time `json:"expiry"`
}

// TotalVolume sums contract volume across a side of the chain.
func TotalVolume(contracts []OptionContract) int64 {
	var total int64
	for _, c := range contracts {
		total += c.Volume
	}
	return total
}

// TotalOpenInterest sums open interest across a side of the chain.
func TotalOpenInterest(contracts []OptionContract) int64 {
	var total int64
	for _, c := range contracts {
		total += c.OpenInterest
	}
	return total
}
