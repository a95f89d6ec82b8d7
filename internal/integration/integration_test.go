// Package integration provides end-to-end tests of the monitoring
// pipeline: fetch, snapshot, classify, cache, alert log and export
// working together the way the CLI wires them.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/alertlog"
	"stockwatch/internal/cache"
	"stockwatch/internal/classify"
	"stockwatch/internal/config"
	"stockwatch/internal/errors"
	"stockwatch/internal/export"
	"stockwatch/internal/models"
	"stockwatch/internal/monitor"
	"stockwatch/internal/snapshot"
	"stockwatch/internal/watchlist"
)

// stubDividendSource serves canned dividend data and counts fetches so
// tests can tell cache hits from refetches.
type stubDividendSource struct {
	mu        sync.Mutex
	quotes    map[string]models.Quote
	dividends map[string][]models.DividendEvent
	earnings  map[string][]models.EarningsEvent
	fail      map[string]bool
	calls     int
}

func (s *stubDividendSource) collect(_ context.Context, symbol string, _ *models.DividendSnapshot, at time.Time) (models.DividendSnapshot, error) {
	s.mu.Lock()
	s.calls++
	failed := s.fail[symbol]
	quote := s.quotes[symbol]
	divs := s.dividends[symbol]
	earns := s.earnings[symbol]
	s.mu.Unlock()

	if failed {
		return models.DividendSnapshot{}, errors.NewFetchError("stub", symbol, "/quote", 503, nil)
	}
	return snapshot.BuildDividend(quote, divs, earns, at), nil
}

func (s *stubDividendSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubDividendSource) setPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.quotes[symbol]
	q.Price = price
	s.quotes[symbol] = q
}

// dividendHistory builds quarterly ex-dividend events (Feb/May/Aug/Nov
// the 10th) with a fixed per-share amount per calendar year.
func dividendHistory(amounts map[int]float64) []models.DividendEvent {
	months := []time.Month{time.February, time.May, time.August, time.November}
	var events []models.DividendEvent
	for year, amount := range amounts {
		for _, m := range months {
			events = append(events, models.DividendEvent{
				ExDate: time.Date(year, m, 10, 0, 0, 0, 0, time.UTC),
				Amount: amount,
			})
		}
	}
	return events
}

func quarterlyEarnings(year int, eps float64) []models.EarningsEvent {
	var events []models.EarningsEvent
	for q := 0; q < 4; q++ {
		events = append(events, models.EarningsEvent{
			Quarter:     time.Date(year, time.Month(3*q+1), 15, 0, 0, 0, 0, time.UTC),
			Period:      "Q",
			EPSEstimate: eps * 0.95,
			EPSActual:   eps,
		})
	}
	return events
}

func newDividendStub() *stubDividendSource {
	return &stubDividendSource{
		quotes: map[string]models.Quote{
			"KO":  {Symbol: "KO", Price: 60},
			"JNJ": {Symbol: "JNJ", Price: 150},
		},
		dividends: map[string][]models.DividendEvent{
			"KO":  dividendHistory(map[int]float64{2023: 0.44, 2024: 0.455, 2025: 0.46, 2026: 0.47}),
			"JNJ": dividendHistory(map[int]float64{2023: 1.13, 2024: 1.16, 2025: 1.19, 2026: 1.24}),
		},
		earnings: map[string][]models.EarningsEvent{
			"KO":  quarterlyEarnings(2025, 0.70),
			"JNJ": quarterlyEarnings(2025, 2.60),
		},
		fail: map[string]bool{"FAIL": true},
	}
}

// TestEndToEndDividendPipeline drives the full tracker loop: cold
// fetch, cache hit, partial-cache refetch, baseline comparison and
// alert persistence.
func TestEndToEndDividendPipeline(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := zerolog.Nop()

	stub := newDividendStub()
	cacheStore := cache.New[models.DividendSnapshot](filepath.Join(dir, "dividends.json"), time.Hour, logger)
	alertLog := alertlog.New(filepath.Join(dir, "alerts.json"), 100, logger)
	th := config.DefaultThresholds().Dividends

	runner := monitor.New("dividends", stub.collect,
		func(cur models.DividendSnapshot, prev *models.DividendSnapshot, at time.Time) []models.Alert {
			return classify.Dividends(cur, prev, th, at)
		},
		cacheStore, alertLog, nil, logger)

	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	// Step 1: cold run fetches everything; the failing symbol is
	// skipped, not fatal.
	batch, err := runner.Run(ctx, []string{"KO", "JNJ", "FAIL"}, monitor.Options{Now: t0})
	if err != nil {
		t.Fatalf("cold run failed: %v", err)
	}
	if batch.FromCache {
		t.Error("cold run should not be served from cache")
	}
	if len(batch.Snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(batch.Snapshots))
	}
	if len(batch.Skipped) != 1 || batch.Skipped[0].Symbol != "FAIL" {
		t.Fatalf("skipped = %+v, want exactly FAIL", batch.Skipped)
	}
	if got := stub.callCount(); got != 3 {
		t.Errorf("fetch calls = %d, want 3", got)
	}

	// Step 2: snapshot numbers are sane for the seeded data.
	ko := batch.Snapshots["KO"]
	if ko.Yield < 2.5 || ko.Yield > 3.5 {
		t.Errorf("KO yield = %.2f, want around 3", ko.Yield)
	}
	if ko.LastAmount != 0.47 {
		t.Errorf("KO last amount = %.4f, want 0.47", ko.LastAmount)
	}
	if ko.GrowthRate <= 0 {
		t.Errorf("KO growth rate = %.2f, want positive", ko.GrowthRate)
	}
	if ko.Sustainability <= 50 {
		t.Errorf("KO sustainability = %.0f, want above neutral", ko.Sustainability)
	}

	// Step 3: healthy payers with no baseline produce no alerts.
	if len(batch.Alerts) != 0 {
		t.Errorf("cold run alerts = %d, want 0", len(batch.Alerts))
	}
	if logged, _ := alertLog.All(); len(logged) != 0 {
		t.Errorf("alert log entries = %d, want 0", len(logged))
	}

	// Step 4: a fresh cache serves the subset without refetching.
	batch, err = runner.Run(ctx, []string{"KO", "JNJ"}, monitor.Options{Now: t0.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("warm run failed: %v", err)
	}
	if !batch.FromCache {
		t.Error("warm run should be served from cache")
	}
	if !batch.FetchedAt.Equal(t0) {
		t.Errorf("cached FetchedAt = %v, want %v", batch.FetchedAt, t0)
	}
	if got := stub.callCount(); got != 3 {
		t.Errorf("fetch calls after cache hit = %d, want 3", got)
	}

	// Step 5: a symbol missing from the cache forces a refetch of the
	// whole batch.
	batch, err = runner.Run(ctx, []string{"KO", "JNJ", "FAIL"}, monitor.Options{Now: t0.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("partial-cache run failed: %v", err)
	}
	if batch.FromCache {
		t.Error("a batch with an uncached symbol must refetch")
	}
	if got := stub.callCount(); got != 6 {
		t.Errorf("fetch calls = %d, want 6", got)
	}

	// Step 6: a price collapse doubles the yield against the cached
	// baseline and raises a high severity alert.
	stub.setPrice("KO", 30)
	t1 := t0.Add(40 * time.Minute)
	batch, err = runner.Run(ctx, []string{"KO", "JNJ"}, monitor.Options{Now: t1, Refresh: true})
	if err != nil {
		t.Fatalf("refresh run failed: %v", err)
	}
	if len(batch.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(batch.Alerts))
	}
	alert := batch.Alerts[0]
	if alert.Type != models.AlertYieldChange {
		t.Errorf("alert type = %s, want %s", alert.Type, models.AlertYieldChange)
	}
	if alert.Severity != models.SeverityHigh {
		t.Errorf("alert severity = %s, want high", alert.Severity)
	}
	if alert.Symbol != "KO" {
		t.Errorf("alert symbol = %s, want KO", alert.Symbol)
	}

	// Step 7: the alert survived in the log and is queryable.
	logged, err := alertLog.Query(alertlog.Filter{Symbol: "KO", Type: models.AlertYieldChange})
	if err != nil {
		t.Fatalf("alert query failed: %v", err)
	}
	if len(logged) != 1 {
		t.Fatalf("logged alerts = %d, want 1", len(logged))
	}

	// Step 8: a new store over the same path sees the updated baseline.
	reopened := cache.New[models.DividendSnapshot](filepath.Join(dir, "dividends.json"), time.Hour, logger)
	state, err := reopened.Load()
	if err != nil {
		t.Fatalf("cache reload failed: %v", err)
	}
	if got := state.Entries["KO"].Yield; got < 5 {
		t.Errorf("persisted KO yield = %.2f, want collapsed-price yield above 5", got)
	}
	if !state.UpdatedAt.Equal(t1) {
		t.Errorf("cache UpdatedAt = %v, want %v", state.UpdatedAt, t1)
	}
}

// TestEndToEndCorrelationBasket drives the basket pipeline: one
// snapshot per basket, keyed independent of symbol order, with a spike
// alert when the basket stops diversifying.
func TestEndToEndCorrelationBasket(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := zerolog.Nop()

	up := []float64{1, -0.5, 2, -1, 0.8, 1.2, -0.3, 0.9}
	down := make([]float64, len(up))
	for i, r := range up {
		down[i] = -r
	}
	returns := map[string][]float64{
		"XLK": up,
		"XLF": up,
		"XLE": down,
	}

	collects := 0
	collect := func(_ context.Context, symbols []string, _ *models.CorrelationSnapshot, at time.Time) (models.CorrelationSnapshot, []monitor.SymbolError, error) {
		collects++
		return snapshot.BuildCorrelation(symbols, returns, 20, at), nil, nil
	}

	cacheStore := cache.New[models.CorrelationSnapshot](filepath.Join(dir, "correlation.json"), time.Hour, logger)
	alertLog := alertlog.New(filepath.Join(dir, "alerts.json"), 100, logger)
	th := config.DefaultThresholds().Correlation

	runner := monitor.NewBasket("correlation", collect,
		func(cur models.CorrelationSnapshot, _ *models.CorrelationSnapshot, at time.Time) []models.Alert {
			return classify.Correlation(cur, th, at)
		},
		cacheStore, alertLog, nil, logger)

	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	// Step 1: two identical return series correlate perfectly and trip
	// the spike alert, keyed by the basket.
	batch, err := runner.Run(ctx, []string{"XLK", "XLF"}, monitor.Options{Now: t0})
	if err != nil {
		t.Fatalf("basket run failed: %v", err)
	}
	key := models.BasketKey([]string{"XLK", "XLF"})
	snap, ok := batch.Snapshots[key]
	if !ok {
		t.Fatalf("no snapshot under basket key %q", key)
	}
	if snap.AvgCorrelation < 0.99 {
		t.Errorf("avg correlation = %.4f, want ~1", snap.AvgCorrelation)
	}
	if len(batch.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 spike", len(batch.Alerts))
	}
	if batch.Alerts[0].Type != models.AlertCorrelationSpike {
		t.Errorf("alert type = %s, want %s", batch.Alerts[0].Type, models.AlertCorrelationSpike)
	}
	if batch.Alerts[0].Symbol != key {
		t.Errorf("alert symbol = %s, want basket key %s", batch.Alerts[0].Symbol, key)
	}

	// Step 2: the same basket in a different order and case hits the
	// cache without collecting again.
	batch, err = runner.Run(ctx, []string{"xlf", "XLK"}, monitor.Options{Now: t0.Add(10 * time.Minute)})
	if err != nil {
		t.Fatalf("reordered basket run failed: %v", err)
	}
	if !batch.FromCache {
		t.Error("reordered basket should hit the cache")
	}
	if collects != 1 {
		t.Errorf("collects = %d, want 1", collects)
	}

	// Step 3: adding the inverse series drops the average below the
	// spike level; no alert, positive diversification.
	batch, err = runner.Run(ctx, []string{"XLK", "XLF", "XLE"}, monitor.Options{Now: t0.Add(10 * time.Minute)})
	if err != nil {
		t.Fatalf("three-symbol basket run failed: %v", err)
	}
	key3 := models.BasketKey([]string{"XLK", "XLF", "XLE"})
	snap3 := batch.Snapshots[key3]
	if snap3.AvgCorrelation > th.SpikeLevel {
		t.Errorf("avg correlation = %.4f, want below %.2f", snap3.AvgCorrelation, th.SpikeLevel)
	}
	if len(batch.Alerts) != 0 {
		t.Errorf("alerts = %d, want 0", len(batch.Alerts))
	}
	if snap3.Diversification <= 50 {
		t.Errorf("diversification = %.0f, want above neutral", snap3.Diversification)
	}
}

// TestWatchlistDrivenScanAndExport covers the outer workflow: resolve
// a named watchlist, run a tracker over it, export the results.
func TestWatchlistDrivenScanAndExport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := zerolog.Nop()

	// Step 1: build a named watchlist; symbols normalize on the way in.
	lists := watchlist.NewStore(filepath.Join(dir, "watchlists"), []string{"SPY"}, logger)
	if _, err := lists.Add("income", []string{"ko", " jnj "}); err != nil {
		t.Fatalf("watchlist add failed: %v", err)
	}
	symbols, err := lists.Symbols("income")
	if err != nil {
		t.Fatalf("watchlist symbols failed: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "KO" || symbols[1] != "JNJ" {
		t.Fatalf("symbols = %v, want [KO JNJ]", symbols)
	}

	// Step 2: garbage symbols are rejected before anything is written.
	if _, err := lists.Add("income", []string{"KO;DROP"}); !errors.Is(err, errors.ErrInputValidation) {
		t.Errorf("invalid symbol error = %v, want ErrInputValidation", err)
	}
	if after, _ := lists.Symbols("income"); len(after) != 2 {
		t.Errorf("symbols after rejected add = %v, want unchanged", after)
	}

	// Step 3: run the dividend tracker over the list.
	stub := newDividendStub()
	cacheStore := cache.New[models.DividendSnapshot](filepath.Join(dir, "dividends.json"), time.Hour, logger)
	alertLog := alertlog.New(filepath.Join(dir, "alerts.json"), 100, logger)
	th := config.DefaultThresholds().Dividends

	runner := monitor.New("dividends", stub.collect,
		func(cur models.DividendSnapshot, prev *models.DividendSnapshot, at time.Time) []models.Alert {
			return classify.Dividends(cur, prev, th, at)
		},
		cacheStore, alertLog, nil, logger)

	t0 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	batch, err := runner.Run(ctx, symbols, monitor.Options{Now: t0})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(batch.Snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(batch.Snapshots))
	}

	// Step 4: export the snapshots as CSV metric rows.
	writer := export.NewWriter(filepath.Join(dir, "exports"), logger)
	path, err := export.Snapshots(writer, "dividends", batch.Snapshots, export.FormatCSV, "")
	if err != nil {
		t.Fatalf("snapshot export failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("exported file is empty")
	}

	// Step 5: rows carry both symbols.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	for _, sym := range symbols {
		if !strings.Contains(string(data), sym) {
			t.Errorf("export missing rows for %s", sym)
		}
	}
}
