// Package monitor runs the shared tracker pipeline: fan the requested
// symbols over a bounded worker pool, build one snapshot per symbol,
// classify each against the cached baseline, then persist alerts and
// the new cache state. Every tracker command drives one Runner.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/alertlog"
	"stockwatch/internal/cache"
	"stockwatch/internal/errors"
	"stockwatch/internal/logging"
	"stockwatch/internal/models"
)

// DefaultWorkers bounds the fetch pool when Options.Workers is unset.
const DefaultWorkers = 4

// CollectFunc fetches raw data for one symbol and builds its snapshot.
// prior is the cached baseline when one exists, for builders that carry
// state forward across runs. Implementations must honor ctx.
type CollectFunc[S any] func(ctx context.Context, symbol string, prior *S, at time.Time) (S, error)

// CompareFunc classifies a fresh snapshot against the cached baseline.
// baseline is nil on a cold start.
type CompareFunc[S any] func(current S, baseline *S, at time.Time) []models.Alert

// Notifier receives the alerts a run produced. Implementations live in
// the notify package; delivery failures are logged, never fatal.
type Notifier interface {
	Send(ctx context.Context, alerts []models.Alert) error
}

// SymbolError records one symbol that failed during a batch.
type SymbolError struct {
	Symbol string
	Err    error
}

// Batch is the outcome of one tracker run. Every requested symbol lands
// in exactly one of Snapshots or Skipped.
type Batch[S any] struct {
	Tracker   string
	Snapshots map[string]S
	Alerts    []models.Alert
	Skipped   []SymbolError
	FromCache bool
	FetchedAt time.Time
}

// Options tune a single run.
type Options struct {
	// Refresh forces a refetch even when the cache is fresh.
	Refresh bool
	// Workers bounds the fetch pool. Zero means DefaultWorkers.
	Workers int
	// Now pins the batch clock; zero means time.Now().UTC().
	Now time.Time
}

// pipeline holds the stages shared by both runner shapes.
type pipeline[S any] struct {
	tracker  string
	cache    *cache.Store[S]
	alerts   *alertlog.Log
	notifier Notifier
	logger   zerolog.Logger
}

// loadState reads the cached baseline. A missing or unreadable cache is
// a cold start, never a failed run.
func (p *pipeline[S]) loadState() cache.File[S] {
	state, err := p.cache.Load()
	if err != nil {
		p.logger.Warn().Err(err).Msg("Cache unreadable, starting cold")
	}
	return state
}

// persist appends alerts, folds the batch into the cached state, and
// notifies. Persistence failures degrade the run, they do not abort it:
// the batch already holds everything the caller needs to render.
func (p *pipeline[S]) persist(ctx context.Context, state cache.File[S], batch *Batch[S], at time.Time) {
	if len(batch.Alerts) > 0 {
		if err := p.alerts.Append(batch.Alerts); err != nil {
			p.logger.Error().Err(err).Msg("Alert log append failed")
		}
	}

	// Merge over the previous state so symbols outside this batch keep
	// their baseline.
	for key, snap := range batch.Snapshots {
		state.Entries[key] = snap
	}
	if err := p.cache.Save(state, at); err != nil {
		p.logger.Error().Err(err).Msg("Cache save failed")
	}

	if p.notifier != nil && len(batch.Alerts) > 0 {
		if err := p.notifier.Send(ctx, batch.Alerts); err != nil {
			p.logger.Warn().Err(err).Msg("Notification failed")
		}
	}
}

// Runner executes the per-symbol tracker pipeline.
type Runner[S any] struct {
	pipeline[S]
	collect CollectFunc[S]
	compare CompareFunc[S]
}

// New creates a runner for one tracker. notifier may be nil.
func New[S any](
	tracker string,
	collect CollectFunc[S],
	compare CompareFunc[S],
	cacheStore *cache.Store[S],
	alerts *alertlog.Log,
	notifier Notifier,
	logger zerolog.Logger,
) *Runner[S] {
	return &Runner[S]{
		pipeline: pipeline[S]{
			tracker:  tracker,
			cache:    cacheStore,
			alerts:   alerts,
			notifier: notifier,
			logger:   logging.WithTracker(logger, tracker),
		},
		collect: collect,
		compare: compare,
	}
}

// Run executes one batch. A failed symbol becomes a Skipped entry and
// the batch continues; Run itself errors only on empty input.
func (r *Runner[S]) Run(ctx context.Context, symbols []string, opts Options) (*Batch[S], error) {
	start := time.Now()
	at := opts.Now
	if at.IsZero() {
		at = time.Now().UTC()
	}

	symbols = normalize(symbols)
	if len(symbols) == 0 {
		return nil, errors.Wrap(errors.ErrInputValidation, "no symbols to scan")
	}

	state := r.loadState()

	if !opts.Refresh && r.cache.IsFresh(state, at) {
		if cached, ok := subset(state.Entries, symbols); ok {
			r.logger.Debug().
				Int("symbols", len(symbols)).
				Time("updated_at", state.UpdatedAt).
				Msg("Serving fresh cache")
			return &Batch[S]{
				Tracker:   r.tracker,
				Snapshots: cached,
				FromCache: true,
				FetchedAt: state.UpdatedAt,
			}, nil
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	type result struct {
		symbol string
		snap   S
		err    error
	}

	jobs := make(chan string, len(symbols))
	results := make(chan result, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{symbol: sym, err: err}
					continue
				}
				var prior *S
				if base, ok := state.Entries[sym]; ok {
					prior = &base
				}
				snap, err := r.collect(ctx, sym, prior, at)
				results <- result{symbol: sym, snap: snap, err: err}
			}
		}()
	}

	for _, sym := range symbols {
		jobs <- sym
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	batch := &Batch[S]{
		Tracker:   r.tracker,
		Snapshots: make(map[string]S, len(symbols)),
		FetchedAt: at,
	}

	for res := range results {
		if res.err != nil {
			r.logger.Warn().Err(res.err).Str("symbol", res.symbol).Msg("Symbol skipped")
			batch.Skipped = append(batch.Skipped, SymbolError{Symbol: res.symbol, Err: res.err})
			continue
		}
		batch.Snapshots[res.symbol] = res.snap
	}

	sort.Slice(batch.Skipped, func(i, j int) bool {
		return batch.Skipped[i].Symbol < batch.Skipped[j].Symbol
	})

	// Classify in input order so repeated runs emit alerts identically.
	for _, sym := range symbols {
		cur, ok := batch.Snapshots[sym]
		if !ok {
			continue
		}
		var baseline *S
		if base, ok := state.Entries[sym]; ok {
			baseline = &base
		}
		batch.Alerts = append(batch.Alerts, r.compare(cur, baseline, at)...)
	}

	r.persist(ctx, state, batch, at)

	logging.LogScan(r.logger, r.tracker, len(symbols), len(batch.Snapshots), len(batch.Skipped), len(batch.Alerts), time.Since(start))
	return batch, nil
}

// BasketCollectFunc builds one snapshot covering a whole symbol basket.
// Symbols that failed to fetch come back as skips; err is reserved for
// failures that leave nothing to compute.
type BasketCollectFunc[S any] func(ctx context.Context, symbols []string, prior *S, at time.Time) (S, []SymbolError, error)

// BasketRunner executes the pipeline for trackers whose unit of work is
// a symbol basket rather than a single symbol. The cache entry and any
// alerts are keyed by the normalized basket key.
type BasketRunner[S any] struct {
	pipeline[S]
	collect BasketCollectFunc[S]
	compare CompareFunc[S]
}

// NewBasket creates a basket runner for one tracker. notifier may be nil.
func NewBasket[S any](
	tracker string,
	collect BasketCollectFunc[S],
	compare CompareFunc[S],
	cacheStore *cache.Store[S],
	alerts *alertlog.Log,
	notifier Notifier,
	logger zerolog.Logger,
) *BasketRunner[S] {
	return &BasketRunner[S]{
		pipeline: pipeline[S]{
			tracker:  tracker,
			cache:    cacheStore,
			alerts:   alerts,
			notifier: notifier,
			logger:   logging.WithTracker(logger, tracker),
		},
		collect: collect,
		compare: compare,
	}
}

// Run executes one basket batch.
func (r *BasketRunner[S]) Run(ctx context.Context, symbols []string, opts Options) (*Batch[S], error) {
	start := time.Now()
	at := opts.Now
	if at.IsZero() {
		at = time.Now().UTC()
	}

	symbols = normalize(symbols)
	if len(symbols) < 2 {
		return nil, errors.Wrap(errors.ErrInputValidation, "basket needs at least two symbols")
	}
	key := models.BasketKey(symbols)

	state := r.loadState()

	if !opts.Refresh && r.cache.IsFresh(state, at) {
		if snap, ok := state.Entries[key]; ok {
			r.logger.Debug().
				Str("basket", key).
				Time("updated_at", state.UpdatedAt).
				Msg("Serving fresh cache")
			return &Batch[S]{
				Tracker:   r.tracker,
				Snapshots: map[string]S{key: snap},
				FromCache: true,
				FetchedAt: state.UpdatedAt,
			}, nil
		}
	}

	var prior *S
	if base, ok := state.Entries[key]; ok {
		prior = &base
	}

	cur, skipped, err := r.collect(ctx, symbols, prior, at)
	if err != nil {
		return nil, err
	}
	for _, skip := range skipped {
		r.logger.Warn().Err(skip.Err).Str("symbol", skip.Symbol).Msg("Symbol skipped")
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Symbol < skipped[j].Symbol })

	batch := &Batch[S]{
		Tracker:   r.tracker,
		Snapshots: map[string]S{key: cur},
		Skipped:   skipped,
		FetchedAt: at,
	}

	var baseline *S
	if base, ok := state.Entries[key]; ok {
		baseline = &base
	}
	batch.Alerts = r.compare(cur, baseline, at)

	r.persist(ctx, state, batch, at)

	logging.LogScan(r.logger, r.tracker, len(symbols), 1, len(batch.Skipped), len(batch.Alerts), time.Since(start))
	return batch, nil
}

// normalize uppercases, trims, and dedupes symbols preserving order.
func normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := models.NormalizeSymbol(s)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// subset extracts the requested symbols from a cached state. ok is
// false when any symbol is missing, which forces a refetch.
func subset[S any](entries map[string]S, symbols []string) (map[string]S, bool) {
	out := make(map[string]S, len(symbols))
	for _, sym := range symbols {
		snap, ok := entries[sym]
		if !ok {
			return nil, false
		}
		out[sym] = snap
	}
	return out, true
}
