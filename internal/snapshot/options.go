package snapshot

import (
	"math"
	"time"

	"stockwatch/internal/models"
	"stockwatch/internal/stats"
)

// BuildOptions derives positioning metrics for the nearest expiry of
// one symbol's chain. The prior snapshot carries the running IV range
// forward so the rank survives across runs; without a usable range the
// rank stays at the neutral 50.
func BuildOptions(chain models.OptionChain, prior *models.OptionsSnapshot, at time.Time) models.OptionsSnapshot {
	snap := models.OptionsSnapshot{
		Symbol:     models.NormalizeSymbol(chain.Symbol),
		SpotPrice:  chain.SpotPrice,
		Expiry:     chain.Expiry,
		Contracts:  len(chain.Calls) + len(chain.Puts),
		CallVolume: models.TotalVolume(chain.Calls),
		PutVolume:  models.TotalVolume(chain.Puts),
		CallOI:     models.TotalOpenInterest(chain.Calls),
		PutOI:      models.TotalOpenInterest(chain.Puts),
		FetchedAt:  at,
	}

	snap.PutCallVolumeRatio = stats.Ratio(float64(snap.PutVolume), float64(snap.CallVolume))
	snap.PutCallOIRatio = stats.Ratio(float64(snap.PutOI), float64(snap.CallOI))
	snap.MeanIV = meanIV(chain) * 100

	// A chain without usable IVs must not drag the running range to
	// zero; carry the prior range through untouched.
	if snap.MeanIV > 0 {
		snap.IVLow, snap.IVHigh = snap.MeanIV, snap.MeanIV
		if prior != nil && prior.IVHigh > 0 {
			snap.IVLow = math.Min(prior.IVLow, snap.MeanIV)
			snap.IVHigh = math.Max(prior.IVHigh, snap.MeanIV)
		}
	} else if prior != nil {
		snap.IVLow, snap.IVHigh = prior.IVLow, prior.IVHigh
	}

	snap.IVRank = 50
	if snap.MeanIV > 0 {
		if rank, ok := stats.SafeDiv(snap.MeanIV-snap.IVLow, snap.IVHigh-snap.IVLow); ok {
			snap.IVRank = stats.Clamp(rank*100, 0, 100)
		}
	}

	snap.UnusualVolume = unusualVolumeScore(snap.CallVolume+snap.PutVolume, snap.CallOI+snap.PutOI)
	return snap
}

// meanIV averages implied volatility across both sides of the chain,
// ignoring contracts the provider reported without an IV.
func meanIV(chain models.OptionChain) float64 {
	var ivs []float64
	for _, c := range chain.Calls {
		if c.IV > 0 {
			ivs = append(ivs, c.IV)
		}
	}
	for _, c := range chain.Puts {
		if c.IV > 0 {
			ivs = append(ivs, c.IV)
		}
	}
	return stats.Mean(ivs)
}

// unusualVolumeScore maps the day's volume-to-open-interest ratio onto
// 0-100: volume matching open interest scores 50, twice open interest
// saturates at 100. Without open interest the score stays neutral.
func unusualVolumeScore(volume, oi int64) float64 {
	r, ok := stats.SafeDiv(float64(volume), float64(oi))
	if !ok {
		return 50
	}
	return stats.Clamp(r*50, 0, 100)
}
