// Package cli provides the command-line interface for the monitoring application.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"stockwatch/internal/cache"
	"stockwatch/internal/classify"
	"stockwatch/internal/errors"
	"stockwatch/internal/marketcal"
	"stockwatch/internal/marketdata/fred"
	"stockwatch/internal/models"
	"stockwatch/internal/monitor"
	"stockwatch/internal/snapshot"
)

// Per-tracker lookback windows. The dividend CAGR needs five full
// years of events; everything else works from shorter windows.
const (
	dividendLookbackDays     = 5*365 + 30
	correlationLookbackDays  = 180
	defaultCorrelationWindow = 60
	insiderWindowDays        = 90
	ratesLookbackDays        = 120
)

// trackerCache builds the snapshot store for one tracker, using the
// staleness window configured for it.
func trackerCache[S any](a *App, tracker string) *cache.Store[S] {
	path := filepath.Join(a.Config.CacheDir(), tracker+".json")
	return cache.New[S](path, a.Config.CacheTTL(tracker), a.Logger)
}

// priceHistory serves daily bars from the local archive when it is
// current, falling back to the provider and archiving what it fetched.
func (a *App) priceHistory(ctx context.Context, symbol string, lookbackDays int, at time.Time) ([]models.Bar, error) {
	from := at.AddDate(0, 0, -lookbackDays)
	if a.History != nil {
		newest, err := a.History.Freshness(ctx, symbol)
		// Weekends and holidays leave the newest bar a few days old.
		if err == nil && !newest.IsZero() && at.Sub(newest) < 4*24*time.Hour {
			bars, err := a.History.Bars(ctx, symbol, from, at)
			if err == nil && len(bars) > 0 {
				return bars, nil
			}
		}
	}

	bars, err := a.Market.PriceHistory(ctx, symbol, lookbackDays)
	if err != nil {
		return nil, err
	}
	if a.History != nil {
		if err := a.History.SaveBars(ctx, symbol, bars); err != nil {
			a.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to archive bars")
		}
	}
	return bars, nil
}

func dividendsRunner(a *App) *monitor.Runner[models.DividendSnapshot] {
	collect := func(ctx context.Context, symbol string, prior *models.DividendSnapshot, at time.Time) (models.DividendSnapshot, error) {
		quote, err := a.Market.Quote(ctx, symbol)
		if err != nil {
			return models.DividendSnapshot{}, err
		}
		dividends, err := a.Market.Dividends(ctx, symbol, dividendLookbackDays)
		if err != nil {
			return models.DividendSnapshot{}, err
		}
		earnings, err := a.Market.Earnings(ctx, symbol)
		if err != nil {
			return models.DividendSnapshot{}, err
		}
		return snapshot.BuildDividend(*quote, dividends, earnings, at), nil
	}
	compare := func(cur models.DividendSnapshot, baseline *models.DividendSnapshot, at time.Time) []models.Alert {
		return classify.Dividends(cur, baseline, a.Config.Thresholds.Dividends, at)
	}
	return monitor.New("dividends", collect, compare,
		trackerCache[models.DividendSnapshot](a, "dividends"), a.Alerts, a.monitorNotifier(), a.Logger)
}

func earningsRunner(a *App) *monitor.Runner[models.EarningsSnapshot] {
	collect := func(ctx context.Context, symbol string, prior *models.EarningsSnapshot, at time.Time) (models.EarningsSnapshot, error) {
		events, err := a.Market.Earnings(ctx, symbol)
		if err != nil {
			return models.EarningsSnapshot{}, err
		}
		return snapshot.BuildEarnings(symbol, events, at), nil
	}
	compare := func(cur models.EarningsSnapshot, baseline *models.EarningsSnapshot, at time.Time) []models.Alert {
		return classify.Earnings(cur, a.Config.Thresholds.Earnings, at)
	}
	return monitor.New("earnings", collect, compare,
		trackerCache[models.EarningsSnapshot](a, "earnings"), a.Alerts, a.monitorNotifier(), a.Logger)
}

func optionsRunner(a *App) *monitor.Runner[models.OptionsSnapshot] {
	collect := func(ctx context.Context, symbol string, prior *models.OptionsSnapshot, at time.Time) (models.OptionsSnapshot, error) {
		chain, err := a.Market.OptionChain(ctx, symbol)
		if err != nil {
			return models.OptionsSnapshot{}, err
		}
		return snapshot.BuildOptions(*chain, prior, at), nil
	}
	compare := func(cur models.OptionsSnapshot, baseline *models.OptionsSnapshot, at time.Time) []models.Alert {
		return classify.Options(cur, a.Config.Thresholds.Options, at)
	}
	return monitor.New("options", collect, compare,
		trackerCache[models.OptionsSnapshot](a, "options"), a.Alerts, a.monitorNotifier(), a.Logger)
}

func insiderRunner(a *App) *monitor.Runner[models.InsiderSnapshot] {
	collect := func(ctx context.Context, symbol string, prior *models.InsiderSnapshot, at time.Time) (models.InsiderSnapshot, error) {
		txs, err := a.Insider.RecentTransactions(ctx, symbol, insiderWindowDays)
		if err != nil {
			return models.InsiderSnapshot{}, err
		}
		return snapshot.BuildInsider(symbol, txs, insiderWindowDays, at), nil
	}
	compare := func(cur models.InsiderSnapshot, baseline *models.InsiderSnapshot, at time.Time) []models.Alert {
		return classify.Insider(cur, a.Config.Thresholds.Insider, at)
	}
	return monitor.New("insider", collect, compare,
		trackerCache[models.InsiderSnapshot](a, "insider"), a.Alerts, a.monitorNotifier(), a.Logger)
}

func ratesRunner(a *App) *monitor.Runner[models.RatesSnapshot] {
	collect := func(ctx context.Context, series string, prior *models.RatesSnapshot, at time.Time) (models.RatesSnapshot, error) {
		start := at.AddDate(0, 0, -ratesLookbackDays)
		obs, err := a.Econ.Observations(ctx, series, start)
		if err != nil {
			return models.RatesSnapshot{}, err
		}
		name := fred.SeriesNames[series]
		if name == "" {
			name = series
		}
		return snapshot.BuildRates(series, name, obs, at), nil
	}
	compare := func(cur models.RatesSnapshot, baseline *models.RatesSnapshot, at time.Time) []models.Alert {
		return classify.Rates(cur, a.Config.Thresholds.Rates, at)
	}
	return monitor.New("rates", collect, compare,
		trackerCache[models.RatesSnapshot](a, "rates"), a.Alerts, a.monitorNotifier(), a.Logger)
}

func correlationRunner(a *App, window int) *monitor.BasketRunner[models.CorrelationSnapshot] {
	collect := func(ctx context.Context, symbols []string, prior *models.CorrelationSnapshot, at time.Time) (models.CorrelationSnapshot, []monitor.SymbolError, error) {
		returns := make(map[string][]float64, len(symbols))
		var kept []string
		var skipped []monitor.SymbolError
		for _, sym := range symbols {
			bars, err := a.priceHistory(ctx, sym, correlationLookbackDays, at)
			if err != nil {
				skipped = append(skipped, monitor.SymbolError{Symbol: sym, Err: err})
				continue
			}
			r := models.DailyReturns(bars)
			if len(r) == 0 {
				skipped = append(skipped, monitor.SymbolError{Symbol: sym, Err: errors.ErrNoData})
				continue
			}
			returns[sym] = r
			kept = append(kept, sym)
		}
		if len(kept) < 2 {
			return models.CorrelationSnapshot{}, skipped,
				errors.Wrap(errors.ErrNoData, "fewer than two symbols produced return series")
		}
		return snapshot.BuildCorrelation(kept, returns, window, at), skipped, nil
	}
	compare := func(cur models.CorrelationSnapshot, baseline *models.CorrelationSnapshot, at time.Time) []models.Alert {
		return classify.Correlation(cur, a.Config.Thresholds.Correlation, at)
	}
	return monitor.NewBasket("correlation", collect, compare,
		trackerCache[models.CorrelationSnapshot](a, "correlation"), a.Alerts, a.monitorNotifier(), a.Logger)
}

func newDividendsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dividends [tickers...]",
		Short: "Scan dividend health for yield moves, payout risk and cuts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols, err := resolveSymbols(app, cmd, args)
			if err != nil {
				return err
			}
			batch, err := dividendsRunner(app).Run(cmd.Context(), symbols, scanOptions(cmd, app))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(batch)
			}
			renderBatchMeta(output, batch.FromCache, batch.FetchedAt)
			renderDividends(output, batch)
			renderAlerts(output, batch.Alerts)
			renderSkips(output, batch.Skipped)
			return totalFailure(batch)
		},
	}
	addScanFlags(cmd)
	return cmd
}

func newEarningsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "earnings [tickers...]",
		Short: "Scan earnings track records for guidance risk and beat streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols, err := resolveSymbols(app, cmd, args)
			if err != nil {
				return err
			}
			batch, err := earningsRunner(app).Run(cmd.Context(), symbols, scanOptions(cmd, app))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(batch)
			}
			renderBatchMeta(output, batch.FromCache, batch.FetchedAt)
			renderEarnings(output, batch)
			renderAlerts(output, batch.Alerts)
			renderSkips(output, batch.Skipped)
			return totalFailure(batch)
		},
	}
	addScanFlags(cmd)
	return cmd
}

func newOptionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options [tickers...]",
		Short: "Scan option flow for skew and unusual volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols, err := resolveSymbols(app, cmd, args)
			if err != nil {
				return err
			}
			batch, err := optionsRunner(app).Run(cmd.Context(), symbols, scanOptions(cmd, app))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(batch)
			}
			renderBatchMeta(output, batch.FromCache, batch.FetchedAt)
			renderOptions(output, batch)
			renderAlerts(output, batch.Alerts)
			renderSkips(output, batch.Skipped)
			return totalFailure(batch)
		},
	}
	addScanFlags(cmd)
	return cmd
}

func newCorrelationCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlation [tickers...]",
		Short: "Scan basket return correlations for concentration risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols, err := resolveSymbols(app, cmd, args)
			if err != nil {
				return err
			}
			window, _ := cmd.Flags().GetInt("window")
			batch, err := correlationRunner(app, window).Run(cmd.Context(), symbols, scanOptions(cmd, app))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(batch)
			}
			renderBatchMeta(output, batch.FromCache, batch.FetchedAt)
			renderCorrelation(output, batch)
			renderAlerts(output, batch.Alerts)
			renderSkips(output, batch.Skipped)
			return nil
		},
	}
	addScanFlags(cmd)
	cmd.Flags().Int("window", defaultCorrelationWindow, "rolling window of daily returns")
	return cmd
}

func newInsiderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insider [tickers...]",
		Short: "Scan insider filings for buying or selling clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbols, err := resolveSymbols(app, cmd, args)
			if err != nil {
				return err
			}
			batch, err := insiderRunner(app).Run(cmd.Context(), symbols, scanOptions(cmd, app))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(batch)
			}
			renderBatchMeta(output, batch.FromCache, batch.FetchedAt)
			renderInsider(output, batch)
			renderAlerts(output, batch.Alerts)
			renderSkips(output, batch.Skipped)
			return totalFailure(batch)
		},
	}
	addScanFlags(cmd)
	return cmd
}

func newRatesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Scan economic rate series for large moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Econ == nil {
				return fmt.Errorf("rates tracker requires a FRED API key (set FRED_API_KEY or credentials.toml)")
			}
			series, _ := cmd.Flags().GetStringSlice("series")
			if len(series) == 0 {
				series = fred.DefaultSeries
			}
			batch, err := ratesRunner(app).Run(cmd.Context(), series, scanOptions(cmd, app))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(batch)
			}
			renderBatchMeta(output, batch.FromCache, batch.FetchedAt)
			renderRates(output, batch)
			renderAlerts(output, batch.Alerts)
			renderSkips(output, batch.Skipped)
			return totalFailure(batch)
		},
	}
	addScanFlags(cmd)
	cmd.Flags().StringSlice("series", nil, "FRED series IDs to watch (default DGS2,DGS10,T10Y2Y,FEDFUNDS)")
	return cmd
}

func renderDividends(o *Output, batch *monitor.Batch[models.DividendSnapshot]) {
	if len(batch.Snapshots) == 0 {
		return
	}
	table := NewTable(o, "SYMBOL", "PRICE", "YIELD", "PAYOUT", "5Y CAGR", "SCORE", "LAST EX-DATE")
	for _, sym := range sortedKeys(batch.Snapshots) {
		s := batch.Snapshots[sym]
		table.AddRow(
			s.Symbol,
			FormatCurrency(s.Price),
			fmt.Sprintf("%.2f%%", s.Yield),
			fmt.Sprintf("%.1f%%", s.PayoutRatio),
			o.SignedPercent(s.GrowthRate),
			FormatScore(s.Sustainability),
			FormatDate(s.LastExDate),
		)
	}
	table.Render()
}

func renderEarnings(o *Output, batch *monitor.Batch[models.EarningsSnapshot]) {
	if len(batch.Snapshots) == 0 {
		return
	}
	table := NewTable(o, "SYMBOL", "QTRS", "BEATS", "STREAK", "BEAT RATE", "AVG SURPRISE", "CREDIBILITY")
	for _, sym := range sortedKeys(batch.Snapshots) {
		s := batch.Snapshots[sym]
		table.AddRow(
			s.Symbol,
			fmt.Sprintf("%d", s.Quarters),
			fmt.Sprintf("%d", s.Beats),
			fmt.Sprintf("%d", s.Streak),
			fmt.Sprintf("%.0f%%", s.BeatRate),
			o.SignedPercent(s.AvgSurprise),
			FormatScore(s.Credibility),
		)
	}
	table.Render()
}

func renderOptions(o *Output, batch *monitor.Batch[models.OptionsSnapshot]) {
	if len(batch.Snapshots) == 0 {
		return
	}
	table := NewTable(o, "SYMBOL", "SPOT", "EXPIRY", "SESSIONS", "P/C VOL", "P/C OI", "IV RANK", "UNUSUAL")
	for _, sym := range sortedKeys(batch.Snapshots) {
		s := batch.Snapshots[sym]
		sessions := "-"
		if !s.Expiry.IsZero() {
			cal := marketcal.ForSymbol(s.Symbol)
			sessions = fmt.Sprintf("%d", cal.TradingDaysUntil(s.FetchedAt, s.Expiry))
		}
		table.AddRow(
			s.Symbol,
			FormatCurrency(s.SpotPrice),
			FormatDate(s.Expiry),
			sessions,
			FormatRatio(s.PutCallVolumeRatio),
			FormatRatio(s.PutCallOIRatio),
			FormatScore(s.IVRank),
			FormatScore(s.UnusualVolume),
		)
	}
	table.Render()
}

func renderCorrelation(o *Output, batch *monitor.Batch[models.CorrelationSnapshot]) {
	for _, key := range sortedKeys(batch.Snapshots) {
		s := batch.Snapshots[key]
		headers := append([]string{""}, s.Symbols...)
		table := NewTable(o, headers...)
		for i, sym := range s.Symbols {
			row := make([]string, 0, len(s.Symbols)+1)
			row = append(row, sym)
			for j := range s.Symbols {
				row = append(row, fmt.Sprintf("%.2f", s.Matrix[i][j]))
			}
			table.AddRow(row...)
		}
		table.Render()
		o.Println()
		o.Printf("Average correlation: %.2f  (window %d days)\n", s.AvgCorrelation, s.Window)
		if s.MaxPairA != "" {
			o.Printf("Tightest pair:       %s / %s at %.2f\n", s.MaxPairA, s.MaxPairB, s.MaxCorrelation)
		}
		o.Printf("Diversification:     %s\n", FormatScore(s.Diversification))
	}
}

func renderInsider(o *Output, batch *monitor.Batch[models.InsiderSnapshot]) {
	if len(batch.Snapshots) == 0 {
		return
	}
	table := NewTable(o, "SYMBOL", "WINDOW", "FILINGS", "BUYS", "SELLS", "NET VALUE", "ACTIVITY")
	for _, sym := range sortedKeys(batch.Snapshots) {
		s := batch.Snapshots[sym]
		table.AddRow(
			s.Symbol,
			fmt.Sprintf("%dd", s.WindowDays),
			fmt.Sprintf("%d", s.Filings),
			fmt.Sprintf("%d (%d buyers)", s.Buys, s.DistinctBuyers),
			fmt.Sprintf("%d (%d sellers)", s.Sells, s.DistinctSellers),
			FormatCurrency(s.NetValue),
			FormatScore(s.Activity),
		)
	}
	table.Render()
}

func renderRates(o *Output, batch *monitor.Batch[models.RatesSnapshot]) {
	if len(batch.Snapshots) == 0 {
		return
	}
	table := NewTable(o, "SERIES", "NAME", "LATEST", "1W", "4W", "AS OF")
	for _, key := range sortedKeys(batch.Snapshots) {
		s := batch.Snapshots[key]
		table.AddRow(
			s.Series,
			TruncateString(s.Name, 28),
			fmt.Sprintf("%.2f", s.Latest),
			o.SignedBp(s.DeltaWeekBp),
			o.SignedBp(s.DeltaMonthBp),
			FormatDate(s.Date),
		)
	}
	table.Render()
}

func renderBatchMeta(o *Output, fromCache bool, fetchedAt time.Time) {
	if fromCache {
		o.Dim("Served from cache (fetched %s)", FormatDateTime(fetchedAt.Local()))
	}
}

func renderAlerts(o *Output, alerts []models.Alert) {
	if len(alerts) == 0 {
		return
	}
	o.Println()
	for _, a := range alerts {
		o.Printf("%s %s %s: %s\n", o.SeverityTag(a.Severity), a.Type, a.Symbol, a.Message)
	}
}

func renderSkips(o *Output, skipped []monitor.SymbolError) {
	for _, s := range skipped {
		o.Warning("Skipped %s: %v", s.Symbol, s.Err)
	}
}

// totalFailure converts an all-skip batch into a command error so the
// process exits non-zero; partial failures stay exit 0.
func totalFailure[S any](batch *monitor.Batch[S]) error {
	if len(batch.Snapshots) == 0 && len(batch.Skipped) > 0 {
		return fmt.Errorf("all %d symbols failed", len(batch.Skipped))
	}
	return nil
}

func sortedKeys[S any](m map[string]S) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
