// Package snapshot turns raw market series into per-tracker metric
// snapshots. Builders are pure functions of their inputs plus an
// explicit evaluation time; on insufficient data they substitute the
// documented neutral default (score 50, ratio 0) instead of failing,
// and never produce NaN or Inf.
package snapshot

import (
	"sort"
	"time"

	"stockwatch/internal/models"
	"stockwatch/internal/stats"
)

// BuildDividend derives dividend-health metrics for one symbol from
// its dividend history, current quote and reported quarters. Yield and
// payout use the trailing twelve months; growth is the CAGR of annual
// totals over complete calendar years, at most a five year span.
func BuildDividend(quote models.Quote, dividends []models.DividendEvent, earnings []models.EarningsEvent, at time.Time) models.DividendSnapshot {
	snap := models.DividendSnapshot{
		Symbol:    models.NormalizeSymbol(quote.Symbol),
		Price:     quote.Price,
		Events:    len(dividends),
		FetchedAt: at,
	}
	if len(dividends) == 0 {
		// Non-payers score the neutral default.
		snap.Sustainability = 50
		return snap
	}

	sorted := make([]models.DividendEvent, len(dividends))
	copy(sorted, dividends)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExDate.Before(sorted[j].ExDate) })

	yearAgo := at.AddDate(-1, 0, 0)
	for _, ev := range sorted {
		if ev.ExDate.After(at) {
			continue
		}
		snap.LastAmount = ev.Amount
		snap.LastExDate = ev.ExDate
		if ev.ExDate.After(yearAgo) {
			snap.TrailingDividend += ev.Amount
		}
	}

	if quote.Price > 0 {
		snap.Yield = stats.Ratio(snap.TrailingDividend, quote.Price) * 100
	}

	epsTTM := trailingEPS(earnings)
	if epsTTM > 0 {
		snap.PayoutRatio = snap.TrailingDividend / epsTTM * 100
	}

	snap.GrowthRate = dividendGrowth(sorted, at)
	snap.Sustainability = sustainabilityScore(snap.Yield, snap.PayoutRatio, snap.GrowthRate)
	return snap
}

// trailingEPS sums actual EPS over the last four reported quarters.
func trailingEPS(earnings []models.EarningsEvent) float64 {
	sorted := make([]models.EarningsEvent, len(earnings))
	copy(sorted, earnings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Quarter.After(sorted[j].Quarter) })

	n := len(sorted)
	if n > 4 {
		n = 4
	}
	var sum float64
	for _, e := range sorted[:n] {
		sum += e.EPSActual
	}
	return sum
}

// dividendGrowth computes the CAGR of annual dividend totals. Only
// complete calendar years count; the current partial year would
// distort the rate.
func dividendGrowth(sorted []models.DividendEvent, at time.Time) float64 {
	totals := make(map[int]float64)
	for _, ev := range sorted {
		if year := ev.ExDate.Year(); year < at.Year() {
			totals[year] += ev.Amount
		}
	}
	if len(totals) < 2 {
		return 0
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) > 6 {
		years = years[len(years)-6:]
	}

	first, last := years[0], years[len(years)-1]
	return stats.CAGR(totals[first], totals[last], float64(last-first))
}

// sustainabilityScore rates dividend durability on a 0-100 scale.
// A payout ratio at or above 100% of earnings takes the largest
// penalty; an unknown payout (no positive trailing EPS) stays neutral.
func sustainabilityScore(yield, payout, growth float64) float64 {
	score := 50.0

	if payout > 0 {
		switch {
		case payout >= 100:
			score -= 25
		case payout <= 60:
			score += 20
		case payout <= 80:
			score += 10
		}
	}

	switch {
	case growth > 0:
		score += 15
	case growth < 0:
		score -= 15
	}

	switch {
	case yield > 8:
		// Outsized yields usually signal a price collapse, not health.
		score -= 10
	case yield > 0:
		score += 5
	}

	return stats.Clamp(score, 0, 100)
}
