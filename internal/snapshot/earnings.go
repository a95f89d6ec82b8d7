package snapshot

import (
	"sort"
	"time"

	"stockwatch/internal/models"
	"stockwatch/internal/stats"
)

// BuildEarnings derives the earnings track record for one symbol from
// its reported quarters. No reported quarters yields the neutral
// credibility of 50.
func BuildEarnings(symbol string, events []models.EarningsEvent, at time.Time) models.EarningsSnapshot {
	snap := models.EarningsSnapshot{
		Symbol:      models.NormalizeSymbol(symbol),
		Quarters:    len(events),
		Credibility: 50,
		FetchedAt:   at,
	}
	if len(events) == 0 {
		return snap
	}

	sorted := make([]models.EarningsEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Quarter.After(sorted[j].Quarter) })

	surprises := make([]float64, 0, len(sorted))
	for _, e := range sorted {
		if e.Beat() {
			snap.Beats++
		} else {
			snap.Misses++
		}
		surprises = append(surprises, e.SurprisePercent)
	}
	for _, e := range sorted {
		if !e.Beat() {
			break
		}
		snap.Streak++
	}

	snap.BeatRate = stats.Ratio(float64(snap.Beats), float64(snap.Quarters)) * 100
	snap.AvgSurprise = stats.Mean(surprises)
	snap.LastSurprise = sorted[0].SurprisePercent
	snap.LastQuarter = sorted[0].Quarter
	snap.Credibility = credibilityScore(snap.BeatRate, snap.AvgSurprise, surprises)
	return snap
}

// credibilityScore rates how much forward guidance can be trusted on a
// 0-100 scale: a high beat rate and modest positive surprises raise
// it, any wild swing lowers it.
func credibilityScore(beatRate, avgSurprise float64, surprises []float64) float64 {
	score := 50 + (beatRate-50)*0.6
	score += stats.Clamp(avgSurprise, -15, 15)

	for _, s := range surprises {
		if s > 25 || s < -25 {
			score -= 10
			break
		}
	}

	return stats.Clamp(score, 0, 100)
}
