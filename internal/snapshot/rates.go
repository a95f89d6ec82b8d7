package snapshot

import (
	"sort"
	"time"

	"stockwatch/internal/models"
)

// BuildRates derives the latest value and trailing deltas for one
// economic series. Deltas are in basis points against the newest
// observation at or before the cutoff; a series too short to reach a
// cutoff reads as a 0 delta.
func BuildRates(series, name string, obs []models.EconObservation, at time.Time) models.RatesSnapshot {
	snap := models.RatesSnapshot{
		Series:       series,
		Name:         name,
		Observations: len(obs),
		FetchedAt:    at,
	}
	if len(obs) == 0 {
		return snap
	}

	sorted := make([]models.EconObservation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	latest := sorted[len(sorted)-1]
	snap.Latest = latest.Value
	snap.Date = latest.Date

	if v, ok := valueOnOrBefore(sorted, latest.Date.AddDate(0, 0, -7)); ok {
		snap.DeltaWeekBp = (latest.Value - v) * 100
	}
	if v, ok := valueOnOrBefore(sorted, latest.Date.AddDate(0, 0, -28)); ok {
		snap.DeltaMonthBp = (latest.Value - v) * 100
	}
	return snap
}

// valueOnOrBefore returns the newest observation dated at or before
// cutoff in an ascending series.
func valueOnOrBefore(obs []models.EconObservation, cutoff time.Time) (float64, bool) {
	for i := len(obs) - 1; i >= 0; i-- {
		if !obs[i].Date.After(cutoff) {
			return obs[i].Value, true
		}
	}
	return 0, false
}
