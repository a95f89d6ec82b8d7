package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Thresholds holds the classifier trigger levels. Values load from
// thresholds.yaml and stay constant for the lifetime of a run.
type Thresholds struct {
	Dividends   DividendThresholds    `yaml:"dividends"`
	Earnings    EarningsThresholds    `yaml:"earnings"`
	Options     OptionsThresholds     `yaml:"options"`
	Correlation CorrelationThresholds `yaml:"correlation"`
	Insider     InsiderThresholds     `yaml:"insider"`
	Rates       RatesThresholds       `yaml:"rates"`
}

// DividendThresholds holds dividend classifier levels.
type DividendThresholds struct {
	YieldChangePct float64 `yaml:"yield_change_pct"`
	PayoutLimitPct float64 `yaml:"payout_limit_pct"`
}

// EarningsThresholds holds earnings classifier levels.
type EarningsThresholds struct {
	CredibilityFloor float64 `yaml:"credibility_floor"`
	BeatStreak       int     `yaml:"beat_streak"`
}

// OptionsThresholds holds option-flow classifier levels.
type OptionsThresholds struct {
	BearishPutCall float64 `yaml:"bearish_put_call"`
	BullishPutCall float64 `yaml:"bullish_put_call"`
	UnusualVolume  float64 `yaml:"unusual_volume"`
}

// CorrelationThresholds holds correlation classifier levels.
type CorrelationThresholds struct {
	SpikeLevel float64 `yaml:"spike_level"`
}

// InsiderThresholds holds insider classifier levels.
type InsiderThresholds struct {
	ClusterFilers int `yaml:"cluster_filers"`
}

// RatesThresholds holds rate classifier levels.
type RatesThresholds struct {
	MoveBp float64 `yaml:"move_bp"`
}

// DefaultThresholds returns the built-in trigger levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Dividends: DividendThresholds{
			YieldChangePct: 20,
			PayoutLimitPct: 100,
		},
		Earnings: EarningsThresholds{
			CredibilityFloor: 40,
			BeatStreak:       4,
		},
		Options: OptionsThresholds{
			BearishPutCall: 2.0,
			BullishPutCall: 0.5,
			UnusualVolume:  80,
		},
		Correlation: CorrelationThresholds{
			SpikeLevel: 0.8,
		},
		Insider: InsiderThresholds{
			ClusterFilers: 3,
		},
		Rates: RatesThresholds{
			MoveBp: 50,
		},
	}
}

func loadThresholds(configDir string, th *Thresholds) error {
	*th = DefaultThresholds()

	path := filepath.Join(configDir, "thresholds.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return createTemplateThresholds(configDir)
		}
		return err
	}

	return yaml.Unmarshal(data, th)
}

// Validate checks the threshold levels for sane ranges.
func (t Thresholds) Validate() error {
	if t.Dividends.YieldChangePct <= 0 {
		return fmt.Errorf("dividends.yield_change_pct must be positive")
	}
	if t.Dividends.PayoutLimitPct <= 0 {
		return fmt.Errorf("dividends.payout_limit_pct must be positive")
	}
	if t.Earnings.CredibilityFloor < 0 || t.Earnings.CredibilityFloor > 100 {
		return fmt.Errorf("earnings.credibility_floor must be between 0 and 100")
	}
	if t.Earnings.BeatStreak < 2 {
		return fmt.Errorf("earnings.beat_streak must be at least 2")
	}
	if t.Options.BullishPutCall <= 0 || t.Options.BearishPutCall <= t.Options.BullishPutCall {
		return fmt.Errorf("options.bearish_put_call must exceed options.bullish_put_call, both positive")
	}
	if t.Options.UnusualVolume < 0 || t.Options.UnusualVolume > 100 {
		return fmt.Errorf("options.unusual_volume must be between 0 and 100")
	}
	if t.Correlation.SpikeLevel <= 0 || t.Correlation.SpikeLevel > 1 {
		return fmt.Errorf("correlation.spike_level must be between 0 and 1")
	}
	if t.Insider.ClusterFilers < 2 {
		return fmt.Errorf("insider.cluster_filers must be at least 2")
	}
	if t.Rates.MoveBp <= 0 {
		return fmt.Errorf("rates.move_bp must be positive")
	}
	return nil
}
