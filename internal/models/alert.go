package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertYieldChange      AlertType = "YIELD_CHANGE"
	AlertPayoutRisk       AlertType = "PAYOUT_RISK"
	AlertDividendCut      AlertType = "DIVIDEND_CUT"
	AlertGuidanceRisk     AlertType = "GUIDANCE_RISK"
	AlertBeatStreak       AlertType = "BEAT_STREAK"
	AlertBearishSkew      AlertType = "BEARISH_SKEW"
	AlertBullishSkew      AlertType = "BULLISH_SKEW"
	AlertUnusualVolume    AlertType = "UNUSUAL_VOLUME"
	AlertCorrelationSpike AlertType = "CORRELATION_SPIKE"
	AlertClusterBuying    AlertType = "CLUSTER_BUYING"
	AlertClusterSelling   AlertType = "CLUSTER_SELLING"
	AlertRateMove         AlertType = "RATE_MOVE"
)

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank returns a sortable weight, highest severity first.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// AlertData is the rule-specific payload attached to an alert. The
// concrete type is determined by the alert's Type tag.
type AlertData interface {
	AlertKind() AlertType
}

// Alert represents one classifier finding, persisted to the alert log.
type Alert struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Data      AlertData `json:"data,omitempty"`
}

// YieldChangeData carries the before/after yields of a yield move.
type YieldChangeData struct {
	OldYield  float64 `json:"old_yield"`
	NewYield  float64 `json:"new_yield"`
	ChangePct float64 `json:"change_pct"`
}

func (YieldChangeData) AlertKind() AlertType { return AlertYieldChange }

// PayoutRiskData carries the payout ratio that breached the limit.
type PayoutRiskData struct {
	PayoutRatio float64 `json:"payout_ratio"`
	LimitPct    float64 `json:"limit_pct"`
}

func (PayoutRiskData) AlertKind() AlertType { return AlertPayoutRisk }

// DividendCutData carries the before/after per-share amounts.
type DividendCutData struct {
	OldAmount float64 `json:"old_amount"`
	NewAmount float64 `json:"new_amount"`
	CutPct    float64 `json:"cut_pct"`
}

func (DividendCutData) AlertKind() AlertType { return AlertDividendCut }

// GuidanceRiskData carries the credibility score that fell below the floor.
type GuidanceRiskData struct {
	Credibility float64 `json:"credibility"`
	BeatRate    float64 `json:"beat_rate"`
}

func (GuidanceRiskData) AlertKind() AlertType { return AlertGuidanceRisk }

// BeatStreakData carries the length of a consecutive beat run.
type BeatStreakData struct {
	Streak   int     `json:"streak"`
	BeatRate float64 `json:"beat_rate"`
}

func (BeatStreakData) AlertKind() AlertType { return AlertBeatStreak }

// SkewData carries the put/call ratios behind a skew alert.
type SkewData struct {
	PutCallVolumeRatio float64 `json:"put_call_volume_ratio"`
	PutCallOIRatio     float64 `json:"put_call_oi_ratio"`
}

func (SkewData) AlertKind() AlertType { return AlertBearishSkew }

// UnusualVolumeData carries the volume score behind an activity alert.
type UnusualVolumeData struct {
	Score         float64 `json:"score"`
	VolumeOIRatio float64 `json:"volume_oi_ratio"`
}

func (UnusualVolumeData) AlertKind() AlertType { return AlertUnusualVolume }

// CorrelationSpikeData carries the basket average and worst pair.
type CorrelationSpikeData struct {
	AvgCorrelation float64 `json:"avg_correlation"`
	PairA          string  `json:"pair_a"`
	PairB          string  `json:"pair_b"`
	PairValue      float64 `json:"pair_value"`
	Window         int     `json:"window"`
}

func (CorrelationSpikeData) AlertKind() AlertType { return AlertCorrelationSpike }

// ClusterData carries the filer counts behind a cluster alert.
type ClusterData struct {
	Buyers     int `json:"buyers"`
	Sellers    int `json:"sellers"`
	Filings    int `json:"filings"`
	WindowDays int `json:"window_days"`
}

func (ClusterData) AlertKind() AlertType { return AlertClusterBuying }

// RateMoveData carries the series delta behind a rate alert.
type RateMoveData struct {
	Series  string  `json:"series"`
	DeltaBp float64 `json:"delta_bp"`
	Weeks   int     `json:"weeks"`
}

func (RateMoveData) AlertKind() AlertType { return AlertRateMove }

// UnmarshalJSON decodes an alert, resolving Data to the concrete
// payload type named by the Type tag. Unknown types keep a nil Data.
func (a *Alert) UnmarshalJSON(b []byte) error {
	type shell struct {
		ID        string          `json:"id"`
		Symbol    string          `json:"symbol"`
		Type      AlertType       `json:"type"`
		Severity  Severity        `json:"severity"`
		Message   string          `json:"message"`
		Timestamp time.Time       `json:"timestamp"`
		Data      json.RawMessage `json:"data,omitempty"`
	}
	var s shell
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	a.ID = s.ID
	a.Symbol = s.Symbol
	a.Type = s.Type
	a.Severity = s.Severity
	a.Message = s.Message
	a.Timestamp = s.Timestamp
	a.Data = nil
	if len(s.Data) == 0 || string(s.Data) == "null" {
		return nil
	}
	data, err := decodeAlertData(s.Type, s.Data)
	if err != nil {
		return fmt.Errorf("alert %s: %w", s.ID, err)
	}
	a.Data = data
	return nil
}

func decodeAlertData(t AlertType, raw json.RawMessage) (AlertData, error) {
	var (
		data AlertData
		err  error
	)
	switch t {
	case AlertYieldChange:
		var d YieldChangeData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertPayoutRisk:
		var d PayoutRiskData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertDividendCut:
		var d DividendCutData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertGuidanceRisk:
		var d GuidanceRiskData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertBeatStreak:
		var d BeatStreakData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertBearishSkew, AlertBullishSkew:
		var d SkewData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertUnusualVolume:
		var d UnusualVolumeData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertCorrelationSpike:
		var d CorrelationSpikeData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertClusterBuying, AlertClusterSelling:
		var d ClusterData
		err = json.Unmarshal(raw, &d)
		data = d
	case AlertRateMove:
		var d RateMoveData
		err = json.Unmarshal(raw, &d)
		data = d
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
