package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
			Workers:        4,
			RatePerSecond:  2.0,
			Burst:          4,
			LookbackDays:   365,
		},
		Cache: CacheConfig{
			DividendsTTLHours:   24,
			EarningsTTLHours:    12,
			OptionsTTLHours:     1,
			CorrelationTTLHours: 24,
			InsiderTTLHours:     6,
			RatesTTLHours:       12,
		},
		Alerts:     AlertsConfig{MaxEntries: 500},
		Thresholds: DefaultThresholds(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero workers", func(c *Config) { c.Fetch.Workers = 0 }, "workers"},
		{"too many workers", func(c *Config) { c.Fetch.Workers = 100 }, "workers"},
		{"zero timeout", func(c *Config) { c.Fetch.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"negative rate", func(c *Config) { c.Fetch.RatePerSecond = -1 }, "rate_per_second"},
		{"ttl too small", func(c *Config) { c.Cache.OptionsTTLHours = 0 }, "ttl_hours"},
		{"ttl too large", func(c *Config) { c.Cache.DividendsTTLHours = 48 }, "ttl_hours"},
		{"zero alert cap", func(c *Config) { c.Alerts.MaxEntries = 0 }, "max_entries"},
		{"bad severity", func(c *Config) { c.Notifications.MinSeverity = "urgent" }, "min_severity"},
		{"bad yield threshold", func(c *Config) { c.Thresholds.Dividends.YieldChangePct = 0 }, "yield_change_pct"},
		{"inverted skew thresholds", func(c *Config) { c.Thresholds.Options.BearishPutCall = 0.3 }, "bearish_put_call"},
		{"bad spike level", func(c *Config) { c.Thresholds.Correlation.SpikeLevel = 1.5 }, "spike_level"},
		{"cluster too small", func(c *Config) { c.Thresholds.Insider.ClusterFilers = 1 }, "cluster_filers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCacheTTL(t *testing.T) {
	cfg := validConfig()

	tests := []struct {
		tracker   string
		wantHours int
	}{
		{"dividends", 24},
		{"earnings", 12},
		{"options", 1},
		{"correlation", 24},
		{"insider", 6},
		{"rates", 12},
		{"unknown", 24},
	}

	for _, tt := range tests {
		t.Run(tt.tracker, func(t *testing.T) {
			got := cfg.CacheTTL(tt.tracker)
			if got.Hours() != float64(tt.wantHours) {
				t.Errorf("CacheTTL(%q) = %v, want %dh", tt.tracker, got, tt.wantHours)
			}
		})
	}
}

func TestLoadCreatesTemplates(t *testing.T) {
	dir := t.TempDir()

	// First runs walk through template creation file by file.
	for _, want := range []string{"config.toml", "credentials.toml", "thresholds.yaml"} {
		_, err := Load(dir)
		if err == nil || !strings.Contains(err.Error(), "created template") {
			t.Fatalf("Load() = %v, want template creation error for %s", err, want)
		}
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Fatalf("template %s not written: %v", want, err)
		}
	}

	// With all templates in place the load succeeds on defaults.
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() after templates = %v", err)
	}
	if cfg.Fetch.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Fetch.Workers)
	}
	if cfg.Thresholds.Dividends.YieldChangePct != 20 {
		t.Errorf("YieldChangePct = %v, want default 20", cfg.Thresholds.Dividends.YieldChangePct)
	}
	if cfg.ConfigDir() != dir {
		t.Errorf("ConfigDir() = %q, want %q", cfg.ConfigDir(), dir)
	}
}

func TestLoadThresholdOverride(t *testing.T) {
	dir := t.TempDir()

	// Seed templates, then override one threshold.
	for i := 0; i < 3; i++ {
		_, _ = Load(dir)
	}
	custom := "dividends:\n  yield_change_pct: 35\n  payout_limit_pct: 90\n"
	if err := os.WriteFile(filepath.Join(dir, "thresholds.yaml"), []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Thresholds.Dividends.YieldChangePct != 35 {
		t.Errorf("YieldChangePct = %v, want override 35", cfg.Thresholds.Dividends.YieldChangePct)
	}
	if cfg.Thresholds.Dividends.PayoutLimitPct != 90 {
		t.Errorf("PayoutLimitPct = %v, want override 90", cfg.Thresholds.Dividends.PayoutLimitPct)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Thresholds.Rates.MoveBp != 50 {
		t.Errorf("MoveBp = %v, want default 50", cfg.Thresholds.Rates.MoveBp)
	}
}

func TestDataDirOverride(t *testing.T) {
	cfg := validConfig()
	cfg.configDir = "/tmp/confdir"

	if got := cfg.DataDir(); got != filepath.Join("/tmp/confdir", "data") {
		t.Errorf("DataDir() = %q", got)
	}

	cfg.Storage.DataDir = "/var/lib/stockwatch"
	if got := cfg.DataDir(); got != "/var/lib/stockwatch" {
		t.Errorf("DataDir() with override = %q", got)
	}
	if got := cfg.CacheDir(); got != filepath.Join("/var/lib/stockwatch", "cache") {
		t.Errorf("CacheDir() = %q", got)
	}
	if got := cfg.AlertLogPath(); got != filepath.Join("/var/lib/stockwatch", "alerts.json") {
		t.Errorf("AlertLogPath() = %q", got)
	}
}
