package history

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stockwatch/internal/models"
)

// Property: for any valid daily bars, saving to the archive and
// reading the covering date range back produces equivalent bars.
func TestProperty_BarRoundTripConsistency(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "JPM", "XOM", "KO"}

	countGen := gen.IntRange(1, 20)
	priceGen := gen.Float64Range(5.0, 500.0)
	volumeGen := gen.Int64Range(1000, 100000000)

	properties.Property("Bar round-trip: save then retrieve produces equivalent data", prop.ForAll(
		func(symbolIdx int, count int, basePrice float64, baseVolume int64) bool {
			ctx := context.Background()

			// Unique symbol per run so iterations never collide.
			symbol := fmt.Sprintf("%s%d", symbols[symbolIdx%len(symbols)], time.Now().UnixNano()%100000)

			bars := generateTestBars(count, basePrice, baseVolume)

			if err := store.SaveBars(ctx, symbol, bars); err != nil {
				t.Logf("Failed to save bars: %v", err)
				return false
			}

			from := bars[0].Date.AddDate(0, 0, -1)
			to := bars[len(bars)-1].Date.AddDate(0, 0, 1)
			retrieved, err := store.Bars(ctx, symbol, from, to)
			if err != nil {
				t.Logf("Failed to get bars: %v", err)
				return false
			}

			if len(retrieved) != len(bars) {
				t.Logf("Count mismatch: expected %d, got %d", len(bars), len(retrieved))
				return false
			}
			for i, orig := range bars {
				if !barsEqual(orig, retrieved[i]) {
					t.Logf("Bar mismatch at index %d: original=%+v, retrieved=%+v", i, orig, retrieved[i])
					return false
				}
			}

			return true
		},
		gen.IntRange(0, len(symbols)-1),
		countGen,
		priceGen,
		volumeGen,
	))

	properties.Property("Empty bars: saving empty slice should succeed", prop.ForAll(
		func(symbolIdx int) bool {
			symbol := fmt.Sprintf("%sE%d", symbols[symbolIdx%len(symbols)], time.Now().UnixNano()%100000)
			return store.SaveBars(context.Background(), symbol, nil) == nil
		},
		gen.IntRange(0, len(symbols)-1),
	))

	properties.TestingRun(t)
}

func TestSaveBarsReplacesSameDay(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	day := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)

	first := []models.Bar{{Date: day, Open: 100, High: 105, Low: 99, Close: 104, AdjClose: 104, Volume: 1000}}
	if err := store.SaveBars(ctx, "aapl", first); err != nil {
		t.Fatalf("SaveBars() error = %v", err)
	}

	// Same calendar day with a different intraday timestamp still
	// replaces the earlier row.
	second := []models.Bar{{Date: day.Add(15 * time.Hour), Open: 101, High: 106, Low: 100, Close: 105, AdjClose: 105, Volume: 2000}}
	if err := store.SaveBars(ctx, "AAPL", second); err != nil {
		t.Fatalf("SaveBars() error = %v", err)
	}

	bars, err := store.Bars(ctx, "AAPL", day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Bars() error = %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("Bars() len = %d, want 1", len(bars))
	}
	if bars[0].Close != 105 || bars[0].Volume != 2000 {
		t.Errorf("Bars()[0] = %+v, want replaced row", bars[0])
	}
}

func TestFreshness(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	got, err := store.Freshness(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Freshness() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Freshness() on empty archive = %v, want zero time", got)
	}

	bars := generateTestBars(5, 150, 10000)
	if err := store.SaveBars(ctx, "AAPL", bars); err != nil {
		t.Fatalf("SaveBars() error = %v", err)
	}

	got, err = store.Freshness(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Freshness() error = %v", err)
	}
	want := bars[len(bars)-1].Date
	if !got.Equal(want) {
		t.Errorf("Freshness() = %v, want %v", got, want)
	}
}

func TestSymbols(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, symbol := range []string{"msft", "AAPL"} {
		if err := store.SaveBars(ctx, symbol, generateTestBars(2, 100, 1000)); err != nil {
			t.Fatalf("SaveBars(%s) error = %v", symbol, err)
		}
	}

	symbols, err := store.Symbols(ctx)
	if err != nil {
		t.Fatalf("Symbols() error = %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("Symbols() = %v, want [AAPL MSFT]", symbols)
	}
}

// generateTestBars creates daily bars with valid OHLC relationships.
func generateTestBars(count int, basePrice float64, baseVolume int64) []models.Bar {
	bars := make([]models.Bar, count)
	baseDate := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		variation := float64(i%10) * 0.01 * basePrice
		open := basePrice + variation
		close := basePrice + variation*0.5
		high := math.Max(open, close) * 1.01
		low := math.Min(open, close) * 0.99

		bars[i] = models.Bar{
			Date:     baseDate.AddDate(0, 0, i),
			Open:     roundToDecimal(open, 2),
			High:     roundToDecimal(high, 2),
			Low:      roundToDecimal(low, 2),
			Close:    roundToDecimal(close, 2),
			AdjClose: roundToDecimal(close, 2),
			Volume:   baseVolume + int64(i*1000),
		}
	}

	return bars
}

func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// barsEqual compares two bars with floating point tolerance.
func barsEqual(a, b models.Bar) bool {
	const tolerance = 0.01

	if !a.Date.Equal(b.Date) {
		return false
	}
	for _, pair := range [][2]float64{{a.Open, b.Open}, {a.High, b.High}, {a.Low, b.Low}, {a.Close, b.Close}, {a.AdjClose, b.AdjClose}} {
		diff := pair[0] - pair[1]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return false
		}
	}
	return a.Volume == b.Volume
}
