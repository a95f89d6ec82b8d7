package alertlog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"stockwatch/internal/models"
)

func newTestLog(t *testing.T, maxEntries int) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "alerts.json"), maxEntries, zerolog.Nop())
}

func makeAlert(i int, symbol string, severity models.Severity, at time.Time) models.Alert {
	return models.Alert{
		ID:        fmt.Sprintf("alert-%d", i),
		Symbol:    symbol,
		Type:      models.AlertYieldChange,
		Severity:  severity,
		Message:   fmt.Sprintf("alert %d", i),
		Timestamp: at,
	}
}

func TestProperty_TruncationKeepsNewestWithinCap(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("log length never exceeds the cap and keeps the newest entries", prop.ForAll(
		func(batchSizes []int, maxEntries int) bool {
			log := New(filepath.Join(t.TempDir(), "alerts.json"), maxEntries, zerolog.Nop())
			base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

			total := 0
			for _, size := range batchSizes {
				batch := make([]models.Alert, 0, size)
				for j := 0; j < size; j++ {
					batch = append(batch, makeAlert(total, "AAPL", models.SeverityLow, base.Add(time.Duration(total)*time.Second)))
					total++
				}
				if err := log.Append(batch); err != nil {
					return false
				}
			}

			stored, err := log.All()
			if err != nil {
				return false
			}
			if len(stored) > maxEntries {
				return false
			}

			want := total - maxEntries
			if want < 0 {
				want = 0
			}
			// The survivors are exactly the newest entries, in order.
			for i, a := range stored {
				if a.ID != fmt.Sprintf("alert-%d", want+i) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 20)),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

func TestAppendAndQuery(t *testing.T) {
	log := newTestLog(t, 100)
	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

	alerts := []models.Alert{
		makeAlert(0, "AAPL", models.SeverityLow, base),
		makeAlert(1, "MSFT", models.SeverityHigh, base.Add(time.Hour)),
		makeAlert(2, "AAPL", models.SeverityHigh, base.Add(2*time.Hour)),
		makeAlert(3, "KO", models.SeverityMedium, base.Add(3*time.Hour)),
	}
	if err := log.Append(alerts); err != nil {
		t.Fatalf("Append() = %v", err)
	}

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"all newest first", Filter{}, []string{"alert-3", "alert-2", "alert-1", "alert-0"}},
		{"by symbol", Filter{Symbol: "aapl"}, []string{"alert-2", "alert-0"}},
		{"by severity", Filter{Severity: models.SeverityHigh}, []string{"alert-2", "alert-1"}},
		{"since cutoff", Filter{Since: base.Add(90 * time.Minute)}, []string{"alert-3", "alert-2"}},
		{"limited", Filter{Limit: 2}, []string{"alert-3", "alert-2"}},
		{"no match", Filter{Symbol: "TSLA"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query() = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d alerts, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("alert[%d].ID = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestAppendEmptyIsNoop(t *testing.T) {
	log := newTestLog(t, 10)
	if err := log.Append(nil); err != nil {
		t.Fatalf("Append(nil) = %v", err)
	}
	if _, err := os.Stat(log.Path()); !os.IsNotExist(err) {
		t.Error("empty append should not create the log file")
	}
}

func TestAppendRecoversFromCorruptLog(t *testing.T) {
	log := newTestLog(t, 10)
	if err := os.WriteFile(log.Path(), []byte("]oops["), 0644); err != nil {
		t.Fatal(err)
	}

	alert := makeAlert(0, "AAPL", models.SeverityLow, time.Now())
	if err := log.Append([]models.Alert{alert}); err != nil {
		t.Fatalf("Append() over corrupt log = %v", err)
	}

	stored, err := log.All()
	if err != nil {
		t.Fatalf("All() = %v", err)
	}
	if len(stored) != 1 || stored[0].ID != "alert-0" {
		t.Errorf("stored = %+v, want the fresh alert only", stored)
	}
}
