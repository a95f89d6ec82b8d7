package snapshot

import (
	"time"

	"stockwatch/internal/models"
	"stockwatch/internal/stats"
)

// BuildInsider derives insider-activity metrics from ownership-filing
// transactions inside the trailing window. Filings counts in-window
// transactions; Activity scores net dollar flow on a 0-100 scale
// centered at 50 (all buying 100, all selling 0, quiet or balanced 50).
func BuildInsider(symbol string, txs []models.InsiderTransaction, windowDays int, at time.Time) models.InsiderSnapshot {
	snap := models.InsiderSnapshot{
		Symbol:     models.NormalizeSymbol(symbol),
		WindowDays: windowDays,
		Activity:   50,
		FetchedAt:  at,
	}

	cutoff := at.AddDate(0, 0, -windowDays)
	buyers := make(map[string]bool)
	sellers := make(map[string]bool)
	var buyValue, sellValue float64

	for _, tx := range txs {
		if tx.Date.Before(cutoff) || tx.Date.After(at) {
			continue
		}
		snap.Filings++
		switch {
		case tx.IsBuy():
			snap.Buys++
			buyers[tx.Owner] = true
			snap.NetShares += tx.Shares
			snap.NetValue += tx.Value
			buyValue += tx.Value
		case tx.IsSell():
			snap.Sells++
			sellers[tx.Owner] = true
			snap.NetShares -= tx.Shares
			snap.NetValue -= tx.Value
			sellValue += tx.Value
		}
	}
	snap.DistinctBuyers = len(buyers)
	snap.DistinctSellers = len(sellers)

	if total := buyValue + sellValue; total > 0 {
		snap.Activity = stats.Clamp(50+50*(buyValue-sellValue)/total, 0, 100)
	}
	return snap
}
