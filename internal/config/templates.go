package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Stockwatch Configuration

[fetch]
# Per-command fetch timeout in seconds
timeout_seconds = 30
# Concurrent fetch workers per batch
workers = 4
# Upstream request rate limit (requests per second) and burst
rate_per_second = 2.0
burst = 4
# User-Agent sent to upstream data sources (SEC requires a contact address)
user_agent = ""
# Price history lookback in calendar days
lookback_days = 365

[cache]
# Staleness windows per tracker, in hours (1-24)
dividends_ttl_hours = 24
earnings_ttl_hours = 12
options_ttl_hours = 1
correlation_ttl_hours = 24
insider_ttl_hours = 6
rates_ttl_hours = 12

[alerts]
# Rolling alert log keeps at most this many entries
max_entries = 500

[watchlist]
# Fallback tickers when no watchlist is given
default = ["AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"]

[storage]
# Where caches, watchlists and the alert log live (default: <config>/data)
data_dir = ""
# Where exports are written
export_dir = "."

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"

[notifications]
# Announce freshly emitted alerts after each scan
enabled = false
# Minimum severity to announce: low, medium, high
min_severity = "medium"

[notifications.webhook]
enabled = false
url = ""
`

const credentialsTemplate = `# Stockwatch Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[fred]
# API key for the FRED economic data service (https://fred.stlouisfed.org)
api_key = ""

[edgar]
# Contact User-Agent the SEC requires for automated EDGAR requests,
# e.g. "stockwatch admin@example.com"
user_agent = ""
`

const thresholdsTemplate = `# Stockwatch classifier thresholds.
# Values stay constant for the lifetime of a run.

dividends:
  # Relative trailing-yield move that raises an alert, in percent
  yield_change_pct: 20
  # Payout ratio treated as unsustainable, in percent of earnings
  payout_limit_pct: 100

earnings:
  # Credibility score below this raises a guidance risk alert
  credibility_floor: 40
  # Consecutive beats that raise a streak alert
  beat_streak: 4

options:
  # Put/call volume ratio at or above this reads as bearish positioning
  bearish_put_call: 2.0
  # Put/call volume ratio at or below this reads as bullish positioning
  bullish_put_call: 0.5
  # Unusual volume score (0-100) that raises an activity alert
  unusual_volume: 80

correlation:
  # Average pairwise correlation at or above this reads as a regime shift
  spike_level: 0.8

insider:
  # Distinct insiders buying within the window that read as a cluster
  cluster_filers: 3

rates:
  # Four-week move, in basis points, that raises a rate alert
  move_bp: 50
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return fmt.Errorf("credentials file not found, created template at %s", path)
}

func createTemplateThresholds(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "thresholds.yaml")
	if err := os.WriteFile(path, []byte(thresholdsTemplate), 0644); err != nil {
		return fmt.Errorf("writing thresholds template: %w", err)
	}

	return fmt.Errorf("thresholds file not found, created template at %s", path)
}
