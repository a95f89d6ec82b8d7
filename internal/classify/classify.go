// Package classify compares fresh snapshots against cached baselines
// and fixed thresholds, emitting zero or more alerts per comparison.
// Rules are evaluated independently, so one symbol can trip several
// alerts in the same pass. Classification is stateless and
// deterministic given (current, baseline, thresholds); only the alert
// ID and timestamp vary between runs.
package classify

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"stockwatch/internal/config"
	"stockwatch/internal/models"
	"stockwatch/internal/stats"
)

func newAlert(symbol string, alertType models.AlertType, severity models.Severity, message string, data models.AlertData, at time.Time) models.Alert {
	return models.Alert{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		Timestamp: at,
		Data:      data,
	}
}

// Dividends classifies a dividend snapshot against its baseline. A
// relative yield move at or beyond the threshold is medium severity,
// doubling the threshold raises it to high; a payment cut is always
// high.
func Dividends(cur models.DividendSnapshot, prev *models.DividendSnapshot, th config.DividendThresholds, at time.Time) []models.Alert {
	var alerts []models.Alert

	if prev != nil && prev.Yield > 0 {
		changePct := math.Abs(cur.Yield-prev.Yield) / prev.Yield * 100
		if changePct >= th.YieldChangePct {
			severity := models.SeverityMedium
			if changePct >= 2*th.YieldChangePct {
				severity = models.SeverityHigh
			}
			alerts = append(alerts, newAlert(cur.Symbol, models.AlertYieldChange, severity,
				fmt.Sprintf("%s dividend yield moved %.1f%% (%.2f%% -> %.2f%%)", cur.Symbol, changePct, prev.Yield, cur.Yield),
				models.YieldChangeData{OldYield: prev.Yield, NewYield: cur.Yield, ChangePct: changePct}, at))
		}
	}

	if cur.PayoutRatio >= th.PayoutLimitPct {
		severity := models.SeverityMedium
		if cur.PayoutRatio >= 1.5*th.PayoutLimitPct {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, newAlert(cur.Symbol, models.AlertPayoutRisk, severity,
			fmt.Sprintf("%s payout ratio %.1f%% exceeds earnings coverage", cur.Symbol, cur.PayoutRatio),
			models.PayoutRiskData{PayoutRatio: cur.PayoutRatio, LimitPct: th.PayoutLimitPct}, at))
	}

	if prev != nil && prev.LastAmount > 0 && cur.LastAmount > 0 && cur.LastAmount < prev.LastAmount {
		cutPct := (1 - cur.LastAmount/prev.LastAmount) * 100
		alerts = append(alerts, newAlert(cur.Symbol, models.AlertDividendCut, models.SeverityHigh,
			fmt.Sprintf("%s cut its dividend %.1f%% (%.4f -> %.4f per share)", cur.Symbol, cutPct, prev.LastAmount, cur.LastAmount),
			models.DividendCutData{OldAmount: prev.LastAmount, NewAmount: cur.LastAmount, CutPct: cutPct}, at))
	}

	return alerts
}

// Earnings classifies an earnings snapshot. Credibility below the
// floor warns on guidance; a long beat run is surfaced as a low
// severity positive signal.
func Earnings(cur models.EarningsSnapshot, th config.EarningsThresholds, at time.Time) []models.Alert {
	var alerts []models.Alert

	if cur.Quarters > 0 && cur.Credibility < th.CredibilityFloor {
		severity := models.SeverityMedium
		if cur.Credibility < th.CredibilityFloor/2 {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, newAlert(cur.Symbol, models.AlertGuidanceRisk, severity,
			fmt.Sprintf("%s guidance credibility %.0f below floor %.0f (beat rate %.0f%%)", cur.Symbol, cur.Credibility, th.CredibilityFloor, cur.BeatRate),
			models.GuidanceRiskData{Credibility: cur.Credibility, BeatRate: cur.BeatRate}, at))
	}

	if th.BeatStreak > 0 && cur.Streak >= th.BeatStreak {
		alerts = append(alerts, newAlert(cur.Symbol, models.AlertBeatStreak, models.SeverityLow,
			fmt.Sprintf("%s beat estimates %d quarters running", cur.Symbol, cur.Streak),
			models.BeatStreakData{Streak: cur.Streak, BeatRate: cur.BeatRate}, at))
	}

	return alerts
}

// Options classifies option-flow positioning. Skew rules need volume
// on both sides of the chain; a guarded zero ratio from a dead side
// must not read as bullish.
func Options(cur models.OptionsSnapshot, th config.OptionsThresholds, at time.Time) []models.Alert {
	var alerts []models.Alert

	if cur.CallVolume > 0 && cur.PutVolume > 0 {
		if cur.PutCallVolumeRatio >= th.BearishPutCall {
			severity := models.SeverityMedium
			if cur.PutCallVolumeRatio >= 1.5*th.BearishPutCall {
				severity = models.SeverityHigh
			}
			alerts = append(alerts, newAlert(cur.Symbol, models.AlertBearishSkew, severity,
				fmt.Sprintf("%s put/call volume %.2f signals bearish positioning", cur.Symbol, cur.PutCallVolumeRatio),
				models.SkewData{PutCallVolumeRatio: cur.PutCallVolumeRatio, PutCallOIRatio: cur.PutCallOIRatio}, at))
		}
		if cur.PutCallVolumeRatio <= th.BullishPutCall {
			alerts = append(alerts, newAlert(cur.Symbol, models.AlertBullishSkew, models.SeverityLow,
				fmt.Sprintf("%s put/call volume %.2f signals bullish positioning", cur.Symbol, cur.PutCallVolumeRatio),
				models.SkewData{PutCallVolumeRatio: cur.PutCallVolumeRatio, PutCallOIRatio: cur.PutCallOIRatio}, at))
		}
	}

	if cur.Contracts > 0 && cur.UnusualVolume >= th.UnusualVolume {
		severity := models.SeverityMedium
		if cur.UnusualVolume >= 95 {
			severity = models.SeverityHigh
		}
		volOI := stats.Ratio(float64(cur.CallVolume+cur.PutVolume), float64(cur.CallOI+cur.PutOI))
		alerts = append(alerts, newAlert(cur.Symbol, models.AlertUnusualVolume, severity,
			fmt.Sprintf("%s option volume running %.1fx open interest", cur.Symbol, volOI),
			models.UnusualVolumeData{Score: cur.UnusualVolume, VolumeOIRatio: volOI}, at))
	}

	return alerts
}

// Correlation classifies a basket snapshot. An average pairwise
// correlation at or above the spike level means the basket has stopped
// diversifying.
func Correlation(cur models.CorrelationSnapshot, th config.CorrelationThresholds, at time.Time) []models.Alert {
	if len(cur.Symbols) < 2 || cur.AvgCorrelation < th.SpikeLevel {
		return nil
	}

	key := models.BasketKey(cur.Symbols)
	return []models.Alert{newAlert(key, models.AlertCorrelationSpike, models.SeverityHigh,
		fmt.Sprintf("basket correlation averaging %.2f; %s/%s tightest at %.2f", cur.AvgCorrelation, cur.MaxPairA, cur.MaxPairB, cur.MaxCorrelation),
		models.CorrelationSpikeData{
			AvgCorrelation: cur.AvgCorrelation,
			PairA:          cur.MaxPairA,
			PairB:          cur.MaxPairB,
			PairValue:      cur.MaxCorrelation,
			Window:         cur.Window,
		}, at)}
}

// Insider classifies filing activity. Multiple distinct insiders on
// the same side of the tape inside one window is the cluster signal;
// buying clusters outrank selling ones.
func Insider(cur models.InsiderSnapshot, th config.InsiderThresholds, at time.Time) []models.Alert {
	var alerts []models.Alert

	data := models.ClusterData{
		Buyers:     cur.DistinctBuyers,
		Sellers:    cur.DistinctSellers,
		Filings:    cur.Filings,
		WindowDays: cur.WindowDays,
	}

	if cur.DistinctBuyers >= th.ClusterFilers {
		alerts = append(alerts, newAlert(cur.Symbol, models.AlertClusterBuying, models.SeverityHigh,
			fmt.Sprintf("%s: %d distinct insiders bought within %d days", cur.Symbol, cur.DistinctBuyers, cur.WindowDays),
			data, at))
	}
	if cur.DistinctSellers >= th.ClusterFilers {
		alerts = append(alerts, newAlert(cur.Symbol, models.AlertClusterSelling, models.SeverityMedium,
			fmt.Sprintf("%s: %d distinct insiders sold within %d days", cur.Symbol, cur.DistinctSellers, cur.WindowDays),
			data, at))
	}

	return alerts
}

// Rates classifies one economic series. The four-week move is the
// signal; doubling the threshold raises severity to high.
func Rates(cur models.RatesSnapshot, th config.RatesThresholds, at time.Time) []models.Alert {
	if math.Abs(cur.DeltaMonthBp) < th.MoveBp {
		return nil
	}

	severity := models.SeverityMedium
	if math.Abs(cur.DeltaMonthBp) >= 2*th.MoveBp {
		severity = models.SeverityHigh
	}
	direction := "up"
	if cur.DeltaMonthBp < 0 {
		direction = "down"
	}
	return []models.Alert{newAlert(cur.Series, models.AlertRateMove, severity,
		fmt.Sprintf("%s moved %s %.0fbp over four weeks to %.2f", cur.Series, direction, math.Abs(cur.DeltaMonthBp), cur.Latest),
		models.RateMoveData{Series: cur.Series, DeltaBp: cur.DeltaMonthBp, Weeks: 4}, at)}
}
