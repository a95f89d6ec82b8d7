// Package cli provides the command-line interface for the monitoring application.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockwatch/internal/errors"
	"stockwatch/internal/marketdata/fred"
	"stockwatch/internal/models"
	"stockwatch/internal/monitor"
	"stockwatch/internal/watchlist"
)

// addScanFlags attaches the flags shared by every tracker command.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("watchlist", "", "watchlist to scan when no tickers are given")
	cmd.Flags().Bool("refresh", false, "bypass the cache staleness window")
	cmd.Flags().Int("workers", 0, "parallel fetch workers (default from config)")
}

// scanOptions reads the shared flags into monitor options.
func scanOptions(cmd *cobra.Command, app *App) monitor.Options {
	refresh, _ := cmd.Flags().GetBool("refresh")
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = app.Config.Fetch.Workers
	}
	return monitor.Options{Refresh: refresh, Workers: workers}
}

// resolveSymbols turns positional args or a watchlist into the scan set.
func resolveSymbols(app *App, cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		for _, sym := range args {
			if !models.ValidSymbol(sym) {
				return nil, errors.Wrapf(errors.ErrInputValidation, "invalid symbol %q", sym)
			}
		}
		return args, nil
	}
	name, _ := cmd.Flags().GetString("watchlist")
	if name == "" {
		name = watchlist.DefaultName
	}
	symbols, err := app.Watchlists.Symbols(name)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, errors.Wrapf(errors.ErrWatchlistEmpty, "%s", name)
	}
	return symbols, nil
}

// sectionResult is one tracker's contribution to a full scan.
type sectionResult struct {
	batch     interface{}
	alerts    []models.Alert
	skipped   []monitor.SymbolError
	fromCache bool
	fetchedAt time.Time
	render    func(*Output)
}

func runSection[S any](ctx context.Context, r *monitor.Runner[S], symbols []string, opts monitor.Options, render func(*Output, *monitor.Batch[S])) (sectionResult, error) {
	b, err := r.Run(ctx, symbols, opts)
	if err != nil {
		return sectionResult{}, err
	}
	return sectionResult{
		batch:     b,
		alerts:    b.Alerts,
		skipped:   b.Skipped,
		fromCache: b.FromCache,
		fetchedAt: b.FetchedAt,
		render:    func(o *Output) { render(o, b) },
	}, nil
}

func runBasketSection[S any](ctx context.Context, r *monitor.BasketRunner[S], symbols []string, opts monitor.Options, render func(*Output, *monitor.Batch[S])) (sectionResult, error) {
	b, err := r.Run(ctx, symbols, opts)
	if err != nil {
		return sectionResult{}, err
	}
	return sectionResult{
		batch:     b,
		alerts:    b.Alerts,
		skipped:   b.Skipped,
		fromCache: b.FromCache,
		fetchedAt: b.FetchedAt,
		render:    func(o *Output) { render(o, b) },
	}, nil
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [tickers...]",
		Short: "Run every tracker over the watchlist",
		Long: `Scan runs all trackers in sequence: dividends, earnings, options,
insider, correlation and rates. Each tracker serves from its cache when the
snapshot is inside the staleness window; --refresh forces a full refetch.

A failed ticker is skipped with a notice and the scan continues. The exit
code is zero unless every tracker fails outright.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols, err := resolveSymbols(app, cmd, args)
			if err != nil {
				return err
			}
			opts := scanOptions(cmd, app)
			window, _ := cmd.Flags().GetInt("window")
			ctx := cmd.Context()
			start := time.Now()

			var report map[string]interface{}
			if output.IsJSON() {
				report = make(map[string]interface{})
			}

			type section struct {
				name  string
				title string
				run   func(context.Context) (sectionResult, error)
			}

			sections := []section{
				{"dividends", "Dividends", func(ctx context.Context) (sectionResult, error) {
					return runSection(ctx, dividendsRunner(app), symbols, opts, renderDividends)
				}},
				{"earnings", "Earnings", func(ctx context.Context) (sectionResult, error) {
					return runSection(ctx, earningsRunner(app), symbols, opts, renderEarnings)
				}},
				{"options", "Options", func(ctx context.Context) (sectionResult, error) {
					return runSection(ctx, optionsRunner(app), symbols, opts, renderOptions)
				}},
				{"insider", "Insider", func(ctx context.Context) (sectionResult, error) {
					return runSection(ctx, insiderRunner(app), symbols, opts, renderInsider)
				}},
			}
			if len(symbols) >= 2 {
				sections = append(sections, section{"correlation", "Correlation", func(ctx context.Context) (sectionResult, error) {
					return runBasketSection(ctx, correlationRunner(app, window), symbols, opts, renderCorrelation)
				}})
			} else if report == nil {
				output.Dim("Correlation needs at least two tickers, skipping")
			}
			if app.Econ != nil {
				sections = append(sections, section{"rates", "Rates", func(ctx context.Context) (sectionResult, error) {
					return runSection(ctx, ratesRunner(app), fred.DefaultSeries, opts, renderRates)
				}})
			} else if report == nil {
				output.Dim("Rates tracker needs a FRED API key, skipping")
			}

			var totalAlerts, totalSkipped, failures int
			for _, sec := range sections {
				res, err := sec.run(ctx)
				if err != nil {
					failures++
					if report != nil {
						report[sec.name] = map[string]string{"error": err.Error()}
					} else {
						output.Error("%s tracker failed: %v", sec.title, err)
					}
					continue
				}
				totalAlerts += len(res.alerts)
				totalSkipped += len(res.skipped)
				if report != nil {
					report[sec.name] = res.batch
					continue
				}
				output.Bold(sec.title)
				renderBatchMeta(output, res.fromCache, res.fetchedAt)
				res.render(output)
				renderAlerts(output, res.alerts)
				renderSkips(output, res.skipped)
				output.Println()
			}

			if report != nil {
				if err := output.JSON(report); err != nil {
					return err
				}
			} else {
				output.Success("Scan complete in %s: %d alerts, %d symbols skipped",
					FormatDuration(time.Since(start)), totalAlerts, totalSkipped)
			}

			if failures > 0 && failures == len(sections) {
				return fmt.Errorf("all %d trackers failed", failures)
			}
			return nil
		},
	}
	addScanFlags(cmd)
	cmd.Flags().Int("window", defaultCorrelationWindow, "rolling window of daily returns for correlation")
	return cmd
}
