// Package cli provides the command-line interface for the monitoring application.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockwatch/internal/alertlog"
	"stockwatch/internal/models"
)

// trackerTypes maps a tracker name to the alert types it can raise.
var trackerTypes = map[string][]models.AlertType{
	"dividends":   {models.AlertYieldChange, models.AlertPayoutRisk, models.AlertDividendCut},
	"earnings":    {models.AlertGuidanceRisk, models.AlertBeatStreak},
	"options":     {models.AlertBearishSkew, models.AlertBullishSkew, models.AlertUnusualVolume},
	"correlation": {models.AlertCorrelationSpike},
	"insider":     {models.AlertClusterBuying, models.AlertClusterSelling},
	"rates":       {models.AlertRateMove},
}

func newAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Query the alert log",
		Long: `Alerts lists past classifier findings, newest first. Filters
combine with AND; --since accepts a duration (72h) or a date (2026-01-02).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ticker, _ := cmd.Flags().GetString("ticker")
			alertType, _ := cmd.Flags().GetString("type")
			severity, _ := cmd.Flags().GetString("severity")
			sinceArg, _ := cmd.Flags().GetString("since")
			tracker, _ := cmd.Flags().GetString("tracker")
			limit, _ := cmd.Flags().GetInt("limit")

			since, err := parseSince(sinceArg, time.Now())
			if err != nil {
				return err
			}

			filter := alertlog.Filter{
				Symbol:   ticker,
				Type:     models.AlertType(alertType),
				Severity: models.Severity(severity),
				Since:    since,
			}
			// Tracker narrowing happens after the query, so the limit
			// only applies once both filters have run.
			if tracker == "" {
				filter.Limit = limit
			}

			alerts, err := app.Alerts.Query(filter)
			if err != nil {
				return err
			}

			if tracker != "" {
				types, ok := trackerTypes[tracker]
				if !ok {
					return fmt.Errorf("unknown tracker %q", tracker)
				}
				alerts = filterByTypes(alerts, types)
				if limit > 0 && len(alerts) > limit {
					alerts = alerts[:limit]
				}
			}

			if output.IsJSON() {
				return output.JSON(alerts)
			}

			if len(alerts) == 0 {
				output.Info("No alerts match")
				return nil
			}

			table := NewTable(output, "TIME", "SEVERITY", "TYPE", "SYMBOL", "MESSAGE")
			for _, a := range alerts {
				table.AddRow(
					FormatDateTime(a.Timestamp.Local()),
					output.SeverityTag(a.Severity),
					string(a.Type),
					a.Symbol,
					TruncateString(a.Message, 60),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d alert(s)", len(alerts))
			return nil
		},
	}

	cmd.Flags().String("ticker", "", "filter by ticker symbol")
	cmd.Flags().String("type", "", "filter by alert type (e.g. YIELD_CHANGE)")
	cmd.Flags().String("severity", "", "filter by severity (low, medium, high)")
	cmd.Flags().String("since", "", "only alerts after a duration ago (72h) or date (2026-01-02)")
	cmd.Flags().String("tracker", "", "filter by tracker (dividends, earnings, options, correlation, insider, rates)")
	cmd.Flags().Int("limit", 50, "maximum alerts to show (0 for all)")

	return cmd
}

func parseSince(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q (use a duration like 72h or a date like 2026-01-02)", s)
}

func filterByTypes(alerts []models.Alert, types []models.AlertType) []models.Alert {
	want := make(map[models.AlertType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var matched []models.Alert
	for _, a := range alerts {
		if want[a.Type] {
			matched = append(matched, a)
		}
	}
	return matched
}
