// Package history archives daily price bars in SQLite so multi-month
// lookbacks survive across runs instead of being refetched on every
// invocation.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockwatch/internal/models"
)

// Bars are keyed by calendar day; dates are stored as YYYY-MM-DD text
// so the unique constraint is unambiguous regardless of the bar's
// intraday timestamp.
const dateLayout = "2006-01-02"

// Store is the SQLite-backed bar archive.
type Store struct {
	db *sql.DB
}

// New opens the archive at dbPath, creating the file and schema on
// first use.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		adj_close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, date)
	);

	CREATE INDEX IF NOT EXISTS idx_bars_symbol ON bars(symbol);
	CREATE INDEX IF NOT EXISTS idx_bars_date ON bars(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBars upserts bars for one symbol in a single transaction.
// Re-saving a day replaces the earlier row.
func (s *Store) SaveBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	symbol = models.NormalizeSymbol(symbol)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, date, open, high, low, close, adj_close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, symbol, b.Date.UTC().Format(dateLayout), b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Bars retrieves archived bars for symbol between from and to
// inclusive, oldest first.
func (s *Store) Bars(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, adj_close, volume
		FROM bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, models.NormalizeSymbol(symbol), from.UTC().Format(dateLayout), to.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		var date string
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		b.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bar date %q: %w", date, err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	return bars, nil
}

// Freshness returns the date of the newest archived bar for symbol.
// Zero time when nothing is archived.
func (s *Store) Freshness(ctx context.Context, symbol string) (time.Time, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM bars WHERE symbol = ?
	`, models.NormalizeSymbol(symbol)).Scan(&date)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to get bar freshness: %w", err)
	}
	if !date.Valid {
		return time.Time{}, nil
	}

	t, err := time.Parse(dateLayout, date.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse freshness date %q: %w", date.String, err)
	}
	return t, nil
}

// Symbols lists every symbol with archived bars, alphabetically.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT symbol FROM bars ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}
