package snapshot

import (
	"time"

	"stockwatch/internal/models"
	"stockwatch/internal/stats"
)

// BuildCorrelation derives the pairwise return-correlation matrix for
// a basket. Each pair correlates over the overlapping tail of the two
// return series, capped at window points; pairs without overlap read
// as the neutral 0. Fewer than two symbols leaves no pairwise
// structure, so diversification stays at the neutral 50.
func BuildCorrelation(symbols []string, returns map[string][]float64, window int, at time.Time) models.CorrelationSnapshot {
	normalized := make([]string, len(symbols))
	for i, s := range symbols {
		normalized[i] = models.NormalizeSymbol(s)
	}

	n := len(normalized)
	snap := models.CorrelationSnapshot{
		Symbols:   normalized,
		Window:    window,
		Matrix:    make([][]float64, n),
		FetchedAt: at,
	}
	for i := range snap.Matrix {
		snap.Matrix[i] = make([]float64, n)
		snap.Matrix[i][i] = 1
	}
	if n < 2 {
		snap.Diversification = 50
		return snap
	}

	var sum float64
	var pairs int
	first := true
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := pairCorrelation(returns[normalized[i]], returns[normalized[j]], window)
			snap.Matrix[i][j], snap.Matrix[j][i] = r, r
			sum += r
			pairs++
			if first || r > snap.MaxCorrelation {
				snap.MaxCorrelation = r
				snap.MaxPairA, snap.MaxPairB = normalized[i], normalized[j]
				first = false
			}
		}
	}

	snap.AvgCorrelation = stats.Ratio(sum, float64(pairs))
	snap.Diversification = stats.Clamp((1-snap.AvgCorrelation)*100, 0, 100)
	return snap
}

// pairCorrelation aligns two return series on their common tail before
// correlating, so symbols with different history depths still compare.
func pairCorrelation(a, b []float64, window int) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if window > 0 && window < n {
		n = window
	}
	if n == 0 {
		return 0
	}
	return stats.Correlation(a[len(a)-n:], b[len(b)-n:])
}
