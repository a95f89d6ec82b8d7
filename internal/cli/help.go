package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common monitoring workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Daily Scan",
					commands: []string{
						"stockwatch scan                       # Run every tracker on the default watchlist",
						"stockwatch scan AAPL MSFT NVDA        # Scan specific symbols",
						"stockwatch scan --watchlist tech      # Scan a named watchlist",
						"stockwatch scan --refresh             # Bypass cached snapshots",
						"stockwatch scan --json > scan.json    # Machine-readable report",
					},
				},
				{
					title: "Single Trackers",
					commands: []string{
						"stockwatch dividends KO JNJ PG        # Yield, payout, sustainability",
						"stockwatch earnings AAPL              # Beat streaks and credibility",
						"stockwatch options SPY --refresh      # Put/call skew and IV rank",
						"stockwatch correlation XLK XLF XLE    # Pairwise return correlation",
						"stockwatch correlation --window 30    # Shorter return window",
						"stockwatch insider AAPL MSFT          # Form 4 cluster activity",
						"stockwatch rates                      # Treasury yields and spreads",
						"stockwatch rates --series DGS30       # A specific FRED series",
					},
				},
				{
					title: "Watchlists",
					commands: []string{
						"stockwatch watchlist add AAPL MSFT    # Add to the default list",
						"stockwatch watchlist add --name tech NVDA AMD",
						"stockwatch watchlist list             # Show all lists",
						"stockwatch watchlist remove AAPL      # Drop a symbol",
					},
				},
				{
					title: "Reviewing Alerts",
					commands: []string{
						"stockwatch alerts                     # Most recent alerts",
						"stockwatch alerts --severity high     # High severity only",
						"stockwatch alerts --ticker AAPL       # One symbol",
						"stockwatch alerts --tracker dividends # One tracker's alert types",
						"stockwatch alerts --since 72h         # Last three days",
					},
				},
				{
					title: "Exporting Data",
					commands: []string{
						"stockwatch export alerts --format csv",
						"stockwatch export snapshots --tracker options --format json",
						"stockwatch export bars AAPL --days 365 --output aapl.csv",
					},
				},
				{
					title: "Market Sessions",
					commands: []string{
						"stockwatch market AAPL VOD.L 7203.T   # Session status per exchange",
						"stockwatch market --watchlist global  # Sessions for a watchlist",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}
