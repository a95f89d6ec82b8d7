// Package alertlog persists the rolling alert history shared by all
// trackers. The log is a JSON array in append order, truncated from
// the front so it never exceeds its cap.
package alertlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/errors"
	"stockwatch/internal/models"
)

// Log is the rolling alert store.
type Log struct {
	path       string
	maxEntries int
	logger     zerolog.Logger
}

// New creates a log at path keeping at most maxEntries alerts.
func New(path string, maxEntries int, logger zerolog.Logger) *Log {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Log{
		path:       path,
		maxEntries: maxEntries,
		logger:     logger.With().Str("component", "alertlog").Logger(),
	}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// MaxEntries returns the truncation cap.
func (l *Log) MaxEntries() int {
	return l.maxEntries
}

// Append adds alerts to the log, dropping the oldest entries once the
// cap is exceeded. A corrupt log file starts over empty with a warning
// rather than failing the scan that produced the alerts.
func (l *Log) Append(alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	existing, err := l.load()
	if err != nil {
		if !errors.Is(err, errors.ErrCacheCorrupt) {
			return err
		}
		l.logger.Warn().Err(err).Msg("Alert log corrupt, starting over")
		existing = nil
	}

	merged := append(existing, alerts...)
	if len(merged) > l.maxEntries {
		merged = merged[len(merged)-l.maxEntries:]
	}

	if err := l.write(merged); err != nil {
		return err
	}

	for _, a := range alerts {
		l.logger.Info().
			Str("alert_id", a.ID).
			Str("symbol", a.Symbol).
			Str("type", string(a.Type)).
			Str("severity", string(a.Severity)).
			Msg("Alert logged")
	}
	return nil
}

// All returns every stored alert in append order, oldest first.
func (l *Log) All() ([]models.Alert, error) {
	return l.load()
}

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	Symbol   string
	Type     models.AlertType
	Severity models.Severity
	Since    time.Time
	Limit    int
}

// Query returns matching alerts, newest first. Limit caps the result
// after ordering; zero means no cap.
func (l *Log) Query(f Filter) ([]models.Alert, error) {
	all, err := l.load()
	if err != nil {
		return nil, err
	}

	symbol := models.NormalizeSymbol(f.Symbol)
	var matched []models.Alert
	for i := len(all) - 1; i >= 0; i-- {
		a := all[i]
		if symbol != "" && a.Symbol != symbol {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if !f.Since.IsZero() && a.Timestamp.Before(f.Since) {
			continue
		}
		matched = append(matched, a)
		if f.Limit > 0 && len(matched) >= f.Limit {
			break
		}
	}
	return matched, nil
}

func (l *Log) load() ([]models.Alert, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewCacheError(l.path, "read", err)
	}

	var alerts []models.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, errors.Wrapf(errors.ErrCacheCorrupt, "%s: %v", l.path, err)
	}
	return alerts, nil
}

func (l *Log) write(alerts []models.Alert) error {
	data, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return errors.NewCacheError(l.path, "marshal", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewCacheError(l.path, "mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return errors.NewCacheError(l.path, "create temp", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewCacheError(l.path, "write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewCacheError(l.path, "close", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return errors.NewCacheError(l.path, "rename", err)
	}
	return nil
}
