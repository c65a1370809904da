// Package state owns the process-wide caches: watchlist, positions, latest
// prices, indicator snapshots and everything derived from them. Each field has
// a single writer role (synchronizer or price collector); readers get copies.
// All mutation happens under the store's lock, which stands in for the
// single-event-loop discipline the design assumes.
package state

import (
	"sync"
	"time"

	"PaperDeck/internal/domain/models"
	"PaperDeck/internal/valuation"
)

// Source names for staleness tracking.
const (
	SourceWatchlist  = "watchlist"
	SourcePositions  = "positions"
	SourceIndicators = "indicators"
	SourceStream     = "stream"
	SourceSettings   = "settings"
)

// SourceStatus is the per-source freshness flag exposed to the view. A failed
// refresh leaves data cached but flips Stale so the presentation layer can
// distinguish a stale view from a fresh one.
type SourceStatus struct {
	Stale     bool      `json:"stale"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TickerView is the derived per-ticker state exposed upward.
type TickerView struct {
	Ticker     string              `json:"ticker"`
	Stats      models.TickerStats  `json:"stats"`
	Signals    models.SignalState  `json:"signals"`
	Inferences models.InferenceSet `json:"inferences"`
	NetScore   float64             `json:"net_score"`
}

// Store is the owned shared state object passed by reference into each
// component's update path.
type Store struct {
	mu sync.RWMutex

	watchlist models.Watchlist
	positions []models.Position
	enriched  []models.EnrichedPosition
	account   models.Account
	settings  models.Settings

	prices     map[string]float64
	priceEpoch uint64

	stats    map[string]models.TickerStats
	statsSeq map[string]uint64
	signals  map[string]models.SignalState
	infers   map[string]models.InferenceSet

	sources map[string]SourceStatus
}

func NewStore() *Store {
	return &Store{
		prices:   make(map[string]float64),
		stats:    make(map[string]models.TickerStats),
		statsSeq: make(map[string]uint64),
		signals:  make(map[string]models.SignalState),
		infers:   make(map[string]models.InferenceSet),
		sources:  make(map[string]SourceStatus),
	}
}

// SetWatchlist replaces the cached watchlist. Writer: synchronizer.
// Returns true when the symbol set actually changed.
func (s *Store) SetWatchlist(w models.Watchlist) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchlist.Equal(w) {
		return false
	}
	s.watchlist = append(models.Watchlist(nil), w...)
	return true
}

// Watchlist returns a copy of the cached watchlist.
func (s *Store) Watchlist() models.Watchlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(models.Watchlist(nil), s.watchlist...)
}

// SetPositions replaces the cached positions and recomputes the full enriched
// set against the latest prices. Writer: synchronizer.
func (s *Store) SetPositions(positions []models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = append([]models.Position(nil), positions...)
	s.enriched = valuation.EnrichAll(s.positions, s.prices, s.enriched)
}

// Positions returns a copy of the cached raw positions.
func (s *Store) Positions() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Position(nil), s.positions...)
}

// Enriched returns the current enriched position set.
func (s *Store) Enriched() []models.EnrichedPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.EnrichedPosition(nil), s.enriched...)
}

// SetAccount replaces the cached account stats. Writer: synchronizer.
func (s *Store) SetAccount(a models.Account) {
	s.mu.Lock()
	s.account = a
	s.mu.Unlock()
}

// Account returns the cached account stats.
func (s *Store) Account() models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// SetSettings replaces the pushed operator settings. Writer: monitor loop.
func (s *Store) SetSettings(settings models.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Settings returns the last pushed settings document.
func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// NewPriceEpoch invalidates all pending stream writes and returns the new
// epoch. Called when a streaming connection is (re)built or torn down.
func (s *Store) NewPriceEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priceEpoch++
	return s.priceEpoch
}

// ApplyTick folds one trade tick into the latest-price map and recomputes the
// enriched positions. Writer: price collector. Ticks carrying a stale epoch
// (connection already closed or replaced) are dropped, never applied.
func (s *Store) ApplyTick(epoch uint64, tick models.PriceTick) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.priceEpoch {
		return false
	}
	s.prices[tick.Symbol] = tick.Price
	s.enriched = valuation.EnrichAll(s.positions, s.prices, s.enriched)
	return true
}

// Price returns the latest price for symbol, if any tick arrived.
func (s *Store) Price(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

// Prices returns a copy of the latest-price map.
func (s *Store) Prices() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}

// MergeStats applies one ticker's indicator snapshots if seq is newer than the
// last applied refresh for that ticker. Late results from superseded requests
// return false and change nothing. Writer: synchronizer.
func (s *Store) MergeStats(ticker string, stats models.TickerStats, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.statsSeq[ticker] {
		return false
	}
	s.statsSeq[ticker] = seq
	s.stats[ticker] = stats
	return true
}

// Stats returns the cached snapshots for ticker.
func (s *Store) Stats(ticker string) (models.TickerStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[ticker]
	return st, ok
}

// SetDerived stores the detector and ensemble outcome for one ticker.
// Writer: synchronizer (after each merge).
func (s *Store) SetDerived(ticker string, sig models.SignalState, inf models.InferenceSet) {
	s.mu.Lock()
	s.signals[ticker] = sig
	s.infers[ticker] = inf
	s.mu.Unlock()
}

// TickerView assembles the derived per-ticker view.
func (s *Store) TickerView(ticker string) (TickerView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[ticker]
	if !ok {
		return TickerView{}, false
	}
	inf := s.infers[ticker]
	return TickerView{
		Ticker:     ticker,
		Stats:      stats,
		Signals:    s.signals[ticker],
		Inferences: inf,
		NetScore:   inf.NetScore(),
	}, true
}

// MarkStale flags a data source after a failed refresh; cached data stays.
func (s *Store) MarkStale(source string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sources[source]
	st.Stale = true
	if err != nil {
		st.LastError = err.Error()
	}
	s.sources[source] = st
}

// MarkFresh flags a data source after a successful refresh.
func (s *Store) MarkFresh(source string, at time.Time) {
	s.mu.Lock()
	s.sources[source] = SourceStatus{UpdatedAt: at}
	s.mu.Unlock()
}

// Sources returns a copy of the per-source freshness flags.
func (s *Store) Sources() map[string]SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]SourceStatus, len(s.sources))
	for k, v := range s.sources {
		out[k] = v
	}
	return out
}

// DropUnwatched clears per-ticker derived state for tickers that left the
// watchlist, so a removed symbol cannot linger in the view.
func (s *Store) DropUnwatched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make(map[string]struct{}, len(s.watchlist))
	for _, t := range s.watchlist {
		keep[t] = struct{}{}
	}
	for ticker := range s.stats {
		if _, ok := keep[ticker]; !ok {
			delete(s.stats, ticker)
			delete(s.statsSeq, ticker)
			delete(s.signals, ticker)
			delete(s.infers, ticker)
		}
	}
}
