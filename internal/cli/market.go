// Package cli provides the command-line interface for the monitoring application.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"stockwatch/internal/marketcal"
)

func newMarketCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market [tickers...]",
		Short: "Show exchange session status for watched symbols",
		Long: `Market resolves each symbol's exchange from its ticker suffix and
reports whether the session is open right now, in exchange-local time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols, err := resolveSymbols(app, cmd, args)
			if err != nil {
				return err
			}

			now := time.Now()
			statuses := make([]marketcal.Status, 0, len(symbols))
			seen := make(map[string]bool, len(symbols))
			for _, sym := range symbols {
				status := marketcal.StatusFor(sym, now)
				if seen[status.Symbol] {
					continue
				}
				seen[status.Symbol] = true
				statuses = append(statuses, status)
			}

			if output.IsJSON() {
				return output.JSON(statuses)
			}

			table := NewTable(output, "SYMBOL", "EXCHANGE", "LOCAL TIME", "TRADING DAY", "SESSION")
			for _, s := range statuses {
				day := "no"
				if s.TradingDay {
					day = "yes"
				}
				table.AddRow(
					s.Symbol,
					s.MIC,
					s.LocalTime.Format("15:04 MST"),
					day,
					output.MarketStatus(s.Open),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("watchlist", "", "watchlist to check when no tickers are given")
	return cmd
}
