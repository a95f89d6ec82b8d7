// Package export writes alerts, snapshots, and price history to CSV or
// JSON files. Export files are write-once; nothing reads them back.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"stockwatch/internal/models"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported format %q (want csv or json)", s)
	}
}

// AlertRow is one alert flattened for CSV. The typed payload stays in
// the JSON export only.
type AlertRow struct {
	ID        string `csv:"id"`
	Timestamp string `csv:"timestamp"`
	Symbol    string `csv:"symbol"`
	Type      string `csv:"type"`
	Severity  string `csv:"severity"`
	Message   string `csv:"message"`
}

// BarRow is one daily bar flattened for CSV.
type BarRow struct {
	Symbol   string  `csv:"symbol"`
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	AdjClose float64 `csv:"adj_close"`
	Volume   int64   `csv:"volume"`
}

// MetricRow is one snapshot metric in long form. Trackers carry
// different metric sets, so the CSV flattens each snapshot into
// metric/value rows instead of forcing one wide header.
type MetricRow struct {
	Tracker   string `csv:"tracker"`
	Key       string `csv:"key"`
	FetchedAt string `csv:"fetched_at"`
	Metric    string `csv:"metric"`
	Value     string `csv:"value"`
}

// Writer writes export files, defaulting file names into its base
// directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, logger zerolog.Logger) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{
		dir:    dir,
		logger: logger.With().Str("component", "export").Logger(),
	}
}

// Alerts writes the alert set. An empty path defaults to alerts.<ext>
// under the export directory. Returns the path written.
func (w *Writer) Alerts(alerts []models.Alert, format Format, path string) (string, error) {
	path = w.resolve(path, "alerts", format)

	switch format {
	case FormatCSV:
		rows := make([]AlertRow, 0, len(alerts))
		for _, a := range alerts {
			rows = append(rows, AlertRow{
				ID:        a.ID,
				Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
				Symbol:    a.Symbol,
				Type:      string(a.Type),
				Severity:  string(a.Severity),
				Message:   a.Message,
			})
		}
		if err := w.writeCSV(path, &rows); err != nil {
			return "", err
		}
	case FormatJSON:
		if err := w.writeJSON(path, alerts); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}

	w.logger.Info().Str("path", path).Int("alerts", len(alerts)).Msg("Alerts exported")
	return path, nil
}

// Bars writes one symbol's daily history. An empty path defaults to
// <symbol>_bars.<ext> under the export directory.
func (w *Writer) Bars(symbol string, bars []models.Bar, format Format, path string) (string, error) {
	symbol = models.NormalizeSymbol(symbol)
	path = w.resolve(path, symbol+"_bars", format)

	switch format {
	case FormatCSV:
		rows := make([]BarRow, 0, len(bars))
		for _, b := range bars {
			rows = append(rows, BarRow{
				Symbol:   symbol,
				Date:     b.Date.UTC().Format("2006-01-02"),
				Open:     b.Open,
				High:     b.High,
				Low:      b.Low,
				Close:    b.Close,
				AdjClose: b.AdjClose,
				Volume:   b.Volume,
			})
		}
		if err := w.writeCSV(path, &rows); err != nil {
			return "", err
		}
	case FormatJSON:
		if err := w.writeJSON(path, bars); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}

	w.logger.Info().Str("path", path).Int("bars", len(bars)).Msg("Bars exported")
	return path, nil
}

// Snapshots writes one tracker's cached snapshot set. CSV uses the long
// metric form; JSON writes the snapshots verbatim. An empty path
// defaults to <tracker>_snapshots.<ext> under the export directory.
func Snapshots[S any](w *Writer, tracker string, entries map[string]S, format Format, path string) (string, error) {
	path = w.resolve(path, tracker+"_snapshots", format)

	switch format {
	case FormatCSV:
		rows, err := MetricRows(tracker, entries)
		if err != nil {
			return "", err
		}
		if err := w.writeCSV(path, &rows); err != nil {
			return "", err
		}
	case FormatJSON:
		if err := w.writeJSON(path, entries); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}

	w.logger.Info().Str("path", path).Str("tracker", tracker).Int("entries", len(entries)).Msg("Snapshots exported")
	return path, nil
}

// MetricRows flattens snapshots into long-form rows, keyed and sorted
// for stable output. Nested fields (matrices, symbol lists) are left to
// the JSON export.
func MetricRows[S any](tracker string, entries map[string]S) ([]MetricRow, error) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var rows []MetricRow
	for _, key := range keys {
		fetchedAt, metrics, err := flatten(entries[key])
		if err != nil {
			return nil, fmt.Errorf("flattening %s snapshot %s: %w", tracker, key, err)
		}

		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			rows = append(rows, MetricRow{
				Tracker:   tracker,
				Key:       key,
				FetchedAt: fetchedAt,
				Metric:    name,
				Value:     metrics[name],
			})
		}
	}
	return rows, nil
}

// flatten reduces a snapshot to scalar metric strings via its JSON
// form, so every snapshot kind exports without per-kind code.
func flatten(v any) (string, map[string]string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, err
	}

	var fetchedAt string
	metrics := make(map[string]string, len(raw))
	for name, val := range raw {
		s := string(val)
		switch {
		case name == "symbol" || name == "series":
			// The row key already identifies the snapshot.
		case name == "fetched_at":
			var stamp string
			if err := json.Unmarshal(val, &stamp); err == nil {
				fetchedAt = stamp
			}
		case len(s) > 0 && (s[0] == '[' || s[0] == '{'):
			// Nested values stay JSON-only.
		case len(s) > 0 && s[0] == '"':
			var str string
			if err := json.Unmarshal(val, &str); err == nil {
				metrics[name] = str
			}
		default:
			metrics[name] = s
		}
	}
	return fetchedAt, metrics, nil
}

// resolve fills in the default file name and ensures the target
// directory exists. Explicit paths are used as given.
func (w *Writer) resolve(path, stem string, format Format) string {
	if path != "" {
		return path
	}
	return filepath.Join(w.dir, fmt.Sprintf("%s.%s", stem, format))
}

func (w *Writer) writeCSV(path string, rows interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (w *Writer) writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
