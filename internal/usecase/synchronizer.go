package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"PaperDeck/internal/domain/models"
	drepo "PaperDeck/internal/domain/repository"
	"PaperDeck/internal/ensemble"
	"PaperDeck/internal/service/cache"
	"PaperDeck/internal/signal"
	"PaperDeck/internal/state"
	"PaperDeck/pkg/logger"
)

// Synchronizer owns the polled read path: watchlist, positions, account stats
// and indicator snapshots. One refresh cycle runs per scheduler request;
// duplicate indicator requests for the same symbol batch are suppressed while
// one is in flight.
type Synchronizer struct {
	brokerage  drepo.Brokerage
	indicators drepo.IndicatorSource
	store      *state.Store
	scorer     *ensemble.Scorer
	clock      drepo.Clock
	metrics    drepo.Metrics
	logger     *logger.Logger

	cache    cache.BytesCache
	cacheTTL time.Duration

	mu       sync.Mutex
	inflight map[string]bool // comma-joined equity batch -> request running
	seq      uint64
}

// SynchronizerOption configures Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithStatsCache reuses indicator responses within ttl across refresh cycles.
func WithStatsCache(c cache.BytesCache, ttl time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func NewSynchronizer(
	brokerage drepo.Brokerage,
	indicators drepo.IndicatorSource,
	store *state.Store,
	scorer *ensemble.Scorer,
	clock drepo.Clock,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	opts ...SynchronizerOption,
) *Synchronizer {
	s := &Synchronizer{
		brokerage:  brokerage,
		indicators: indicators,
		store:      store,
		scorer:     scorer,
		clock:      clock,
		metrics:    metrics,
		logger:     lgr,
		inflight:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh runs one full cycle: watchlist, positions, account, indicators,
// derived state. Read failures mark the source stale and leave cached data
// untouched; the cycle keeps going. Returns whether the watchlist changed.
func (s *Synchronizer) Refresh(ctx context.Context, reason string) bool {
	start := time.Now()
	changed := s.RefreshWatchlist(ctx)
	s.RefreshPositions(ctx)
	s.RefreshIndicators(ctx)
	if changed {
		s.store.DropUnwatched()
		keep := make(map[string]struct{})
		for _, t := range s.store.Watchlist() {
			keep[t] = struct{}{}
		}
		s.scorer.Reset(keep)
	}
	if s.metrics != nil {
		s.metrics.RecordRefresh(reason)
		s.metrics.RecordLatency("refresh_cycle", time.Since(start).Seconds())
	}
	return changed
}

// RefreshWatchlist reloads the watchlist and reports whether it changed.
func (s *Synchronizer) RefreshWatchlist(ctx context.Context) bool {
	w, err := s.brokerage.Watchlist(ctx)
	if err != nil {
		s.fail(state.SourceWatchlist, err)
		return false
	}
	changed := s.store.SetWatchlist(w)
	s.store.MarkFresh(state.SourceWatchlist, s.clock.Now())
	if changed && s.logger != nil {
		s.logger.Info("watchlist changed", logger.Strings("symbols", w))
	}
	return changed
}

// RefreshPositions reloads positions and account aggregates.
func (s *Synchronizer) RefreshPositions(ctx context.Context) {
	positions, err := s.brokerage.Positions(ctx)
	if err != nil {
		s.fail(state.SourcePositions, err)
		return
	}
	s.store.SetPositions(positions)

	account, err := s.brokerage.Stats(ctx)
	if err != nil {
		s.fail(state.SourcePositions, err)
		return
	}
	s.store.SetAccount(account)
	s.store.MarkFresh(state.SourcePositions, s.clock.Now())
}

// RefreshIndicators polls batched indicator snapshots for the equity subset of
// the watchlist, then re-derives signals and ensemble inferences per ticker.
// Crypto symbols have no indicator backend and are skipped whole.
func (s *Synchronizer) RefreshIndicators(ctx context.Context) {
	equities := s.store.Watchlist().Equities()
	if len(equities) == 0 {
		return
	}

	batchKey := strings.Join(equities, ",")
	s.mu.Lock()
	if s.inflight[batchKey] {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("indicator refresh already in flight", logger.String("batch", batchKey))
		}
		return
	}
	s.inflight[batchKey] = true
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, batchKey)
		s.mu.Unlock()
	}()

	stats, err := s.fetchStats(ctx, batchKey, equities)
	if err != nil {
		s.fail(state.SourceIndicators, err)
		return
	}

	for ticker, tstats := range stats {
		if !s.store.MergeStats(ticker, tstats, seq) {
			// a newer refresh already landed for this ticker
			continue
		}
		s.derive(ticker, tstats)
	}
	s.store.MarkFresh(state.SourceIndicators, s.clock.Now())
}

// derive recomputes the detector and ensemble outcome for one ticker.
func (s *Synchronizer) derive(ticker string, tstats models.TickerStats) {
	sig := signal.Evaluate(ticker, tstats)
	inf := s.scorer.Evaluate(ticker, tstats)
	s.store.SetDerived(ticker, sig, inf)
	if s.metrics != nil {
		s.metrics.RecordSignal(ticker, sig.HasSignal)
	}
}

func (s *Synchronizer) fetchStats(ctx context.Context, batchKey string, equities []string) (map[string]models.TickerStats, error) {
	cacheKey := "stats:" + batchKey
	if s.cache != nil && s.cacheTTL > 0 {
		if b, ok, err := s.cache.GetBytes(cacheKey); err == nil && ok {
			var cached map[string]models.TickerStats
			if err := json.Unmarshal(b, &cached); err == nil {
				return cached, nil
			}
		}
	}

	stats, err := s.indicators.BatchStats(ctx, equities)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if b, err := json.Marshal(stats); err == nil {
			_ = s.cache.SetBytes(cacheKey, b, s.cacheTTL)
		}
	}
	return stats, nil
}

func (s *Synchronizer) fail(source string, err error) {
	s.store.MarkStale(source, err)
	if s.metrics != nil {
		s.metrics.RecordError(source)
	}
	if s.logger != nil {
		s.logger.Error("refresh failed", logger.String("source", source), logger.Error(err))
	}
}
