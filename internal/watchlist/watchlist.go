// Package watchlist manages named symbol lists stored as JSON files.
//
// Each list lives in its own file under the watchlist directory
// (~/.config/stockwatch/watchlists/<name>.json). The "default" list
// falls back to a built-in symbol set until it is written for the
// first time.
package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/errors"
	"stockwatch/internal/models"
)

// DefaultName is the list used when no name is given on the command line.
const DefaultName = "default"

// List is one named watchlist.
type List struct {
	Name      string    `json:"name"`
	Symbols   []string  `json:"symbols"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether the list holds the given symbol.
func (l List) Contains(symbol string) bool {
	symbol = models.NormalizeSymbol(symbol)
	for _, s := range l.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Store reads and writes watchlist files in a single directory.
type Store struct {
	dir      string
	fallback []string
	logger   zerolog.Logger
}

// NewStore creates a store rooted at dir. The fallback symbols serve
// the default list until one is saved.
func NewStore(dir string, fallback []string, logger zerolog.Logger) *Store {
	return &Store{
		dir:      dir,
		fallback: fallback,
		logger:   logger.With().Str("component", "watchlist").Logger(),
	}
}

// Load reads the named list. A missing default list yields the built-in
// fallback set; any other missing name is ErrWatchlistNotFound.
func (s *Store) Load(name string) (List, error) {
	name, err := cleanName(name)
	if err != nil {
		return List{}, err
	}

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		if name == DefaultName {
			return List{Name: DefaultName, Symbols: append([]string(nil), s.fallback...)}, nil
		}
		return List{}, errors.Wrapf(errors.ErrWatchlistNotFound, "no watchlist named %q", name)
	}
	if err != nil {
		return List{}, errors.Wrapf(err, "reading watchlist %q", name)
	}

	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		return List{}, errors.Wrapf(err, "parsing watchlist %q", name)
	}
	list.Name = name
	return list, nil
}

// Add appends symbols to the named list, creating it on first write.
// Symbols are uppercased and de-duplicated; existing entries keep
// their position. Symbols no data source could serve are rejected
// before anything is written.
func (s *Store) Add(name string, symbols []string) (List, error) {
	for _, sym := range symbols {
		if !models.ValidSymbol(sym) {
			return List{}, errors.Wrapf(errors.ErrInputValidation, "invalid symbol %q", sym)
		}
	}

	list, err := s.Load(name)
	if err != nil {
		if !errors.Is(err, errors.ErrWatchlistNotFound) {
			return List{}, err
		}
		name, _ = cleanName(name)
		list = List{Name: name}
	}

	seen := make(map[string]bool, len(list.Symbols))
	for _, sym := range list.Symbols {
		seen[sym] = true
	}
	for _, sym := range symbols {
		sym = models.NormalizeSymbol(sym)
		if sym == "" || seen[sym] {
			continue
		}
		list.Symbols = append(list.Symbols, sym)
		seen[sym] = true
	}

	if err := s.save(&list); err != nil {
		return List{}, err
	}
	return list, nil
}

// Remove drops symbols from the named list. Symbols not on the list
// are ignored. Removing from a list that was never written is an error.
func (s *Store) Remove(name string, symbols []string) (List, error) {
	name, err := cleanName(name)
	if err != nil {
		return List{}, err
	}
	if _, statErr := os.Stat(s.path(name)); os.IsNotExist(statErr) {
		return List{}, errors.Wrapf(errors.ErrWatchlistNotFound, "no watchlist named %q", name)
	}

	list, err := s.Load(name)
	if err != nil {
		return List{}, err
	}

	drop := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		drop[models.NormalizeSymbol(sym)] = true
	}
	kept := list.Symbols[:0]
	for _, sym := range list.Symbols {
		if !drop[sym] {
			kept = append(kept, sym)
		}
	}
	list.Symbols = kept

	if err := s.save(&list); err != nil {
		return List{}, err
	}
	return list, nil
}

// All returns every saved list sorted by name. The default list is
// included with its fallback symbols even when no file exists yet.
func (s *Store) All() ([]List, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "reading watchlist directory")
	}

	lists := make([]List, 0, len(entries)+1)
	haveDefault := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		list, err := s.Load(name)
		if err != nil {
			s.logger.Warn().Err(err).Str("watchlist", name).Msg("Skipping unreadable watchlist")
			continue
		}
		if name == DefaultName {
			haveDefault = true
		}
		lists = append(lists, list)
	}
	if !haveDefault {
		lists = append(lists, List{Name: DefaultName, Symbols: append([]string(nil), s.fallback...)})
	}

	sort.Slice(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	return lists, nil
}

// Symbols resolves the named list to its symbol slice, failing on an
// empty list so scans never run against nothing.
func (s *Store) Symbols(name string) ([]string, error) {
	list, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	if len(list.Symbols) == 0 {
		return nil, errors.Wrapf(errors.ErrWatchlistEmpty, "watchlist %q has no symbols", list.Name)
	}
	return list.Symbols, nil
}

func (s *Store) save(list *List) error {
	list.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding watchlist %q", list.Name)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrap(err, "creating watchlist directory")
	}
	if err := os.WriteFile(s.path(list.Name), data, 0644); err != nil {
		return errors.Wrapf(err, "writing watchlist %q", list.Name)
	}

	s.logger.Debug().
		Str("watchlist", list.Name).
		Int("symbols", len(list.Symbols)).
		Msg("Watchlist saved")
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// cleanName lowercases the list name and rejects anything that could
// escape the watchlist directory.
func cleanName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", errors.Wrapf(errors.ErrInputValidation, "invalid watchlist name %q", name)
	}
	return name, nil
}
