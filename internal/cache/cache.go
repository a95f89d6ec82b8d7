// Package cache persists per-tracker snapshot files as JSON. A cache
// file is the whole-state baseline one tracker run compares against
// and then replaces.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/errors"
)

// File is one tracker's cached state: snapshots keyed by ticker (or
// basket key) plus the stamp of the run that wrote them.
type File[S any] struct {
	Entries   map[string]S `json:"entries"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Store reads and writes one tracker's cache file.
type Store[S any] struct {
	path   string
	window time.Duration
	logger zerolog.Logger
}

// New creates a store for the given file path and staleness window.
func New[S any](path string, window time.Duration, logger zerolog.Logger) *Store[S] {
	return &Store[S]{
		path:   path,
		window: window,
		logger: logger.With().Str("cache", filepath.Base(path)).Logger(),
	}
}

// Path returns the cache file path.
func (s *Store[S]) Path() string {
	return s.path
}

// Window returns the staleness window.
func (s *Store[S]) Window() time.Duration {
	return s.window
}

// Load reads the cache file. A missing file is a cold start and yields
// an empty state with no error. A corrupt file also yields an empty
// state, with an error wrapping ErrCacheCorrupt so the caller can warn
// and continue.
func (s *Store[S]) Load() (File[S], error) {
	empty := File[S]{Entries: make(map[string]S)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return empty, errors.NewCacheError(s.path, "read", err)
	}

	var f File[S]
	if err := json.Unmarshal(data, &f); err != nil {
		return empty, errors.Wrapf(errors.ErrCacheCorrupt, "%s: %v", s.path, err)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]S)
	}
	return f, nil
}

// IsFresh reports whether the cached state is younger than the
// staleness window at the given instant.
func (s *Store[S]) IsFresh(f File[S], now time.Time) bool {
	if f.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(f.UpdatedAt) < s.window
}

// Save stamps the state with now and replaces the cache file. The
// write goes to a temp file first and lands with an atomic rename, so
// a crash mid-write never leaves a half-written cache.
func (s *Store[S]) Save(f File[S], now time.Time) error {
	f.UpdatedAt = now

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.NewCacheError(s.path, "marshal", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewCacheError(s.path, "mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.NewCacheError(s.path, "create temp", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewCacheError(s.path, "write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewCacheError(s.path, "close", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.NewCacheError(s.path, "rename", err)
	}

	s.logger.Debug().Int("entries", len(f.Entries)).Time("updated_at", now).Msg("Cache saved")
	return nil
}
