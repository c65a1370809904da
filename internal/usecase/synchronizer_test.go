package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"PaperDeck/internal/domain/models"
	domrepo "PaperDeck/internal/domain/repository"
	"PaperDeck/internal/domain/service"
	"PaperDeck/internal/ensemble"
	"PaperDeck/internal/state"
)

type fakeBrokerage struct {
	watchlist models.Watchlist
	positions []models.Position
	account   models.Account
	err       error
}

func (f *fakeBrokerage) Watchlist(ctx context.Context) (models.Watchlist, error) {
	return f.watchlist, f.err
}
func (f *fakeBrokerage) Positions(ctx context.Context) ([]models.Position, error) {
	return f.positions, f.err
}
func (f *fakeBrokerage) Stats(ctx context.Context) (models.Account, error) {
	return f.account, f.err
}
func (f *fakeBrokerage) Buy(ctx context.Context, o models.Order) (models.OrderResult, error) {
	return models.OrderResult{Ticker: o.Ticker, Qty: o.Qty, Price: o.Price, Status: "filled"}, f.err
}
func (f *fakeBrokerage) Sell(ctx context.Context, o models.Order) (models.OrderResult, error) {
	return models.OrderResult{Ticker: o.Ticker, Qty: o.Qty, Price: o.Price, Status: "filled"}, f.err
}

type fakeIndicators struct {
	mu      sync.Mutex
	calls   int32
	block   chan struct{} // when set, BatchStats parks until closed
	results map[string]models.TickerStats
	err     error
}

func (f *fakeIndicators) BatchStats(ctx context.Context, symbols []string) (map[string]models.TickerStats, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results, f.err
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type nopMetrics struct{}

func (nopMetrics) RecordRefresh(string)           {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordSignal(string, bool)      {}

func newTestSynchronizer(b *fakeBrokerage, ind *fakeIndicators) (*Synchronizer, *state.Store) {
	store := state.NewStore()
	scorer := ensemble.NewScorer(service.NewRegistry(), domrepo.AllTimeframes(), nil, nopMetrics{}, nil)
	s := NewSynchronizer(b, ind, store, scorer, fixedClock{now: time.Now()}, nopMetrics{}, nil)
	return s, store
}

func statsWith(v float64) models.TickerStats {
	return models.TickerStats{"1min": {Value: &v}}
}

func TestRefreshFullCycle(t *testing.T) {
	b := &fakeBrokerage{
		watchlist: models.Watchlist{"NVDA", "BTC-USD"},
		positions: []models.Position{{Ticker: "NVDA", Qty: 2, AvgCost: 100}},
		account:   models.Account{Balance: 5000},
	}
	ind := &fakeIndicators{results: map[string]models.TickerStats{"NVDA": statsWith(20)}}
	s, store := newTestSynchronizer(b, ind)

	changed := s.Refresh(context.Background(), "startup")
	if !changed {
		t.Fatalf("first refresh must report a watchlist change")
	}
	if got := store.Watchlist(); !got.Equal(b.watchlist) {
		t.Fatalf("watchlist = %v", got)
	}
	if store.Account().Balance != 5000 {
		t.Fatalf("account = %+v", store.Account())
	}
	if _, ok := store.Stats("NVDA"); !ok {
		t.Fatalf("stats for NVDA missing")
	}
}

func TestRefreshIndicatorsSkipsCryptoOnlyWatchlist(t *testing.T) {
	b := &fakeBrokerage{watchlist: models.Watchlist{"BTC-USD", "ETH-USD"}}
	ind := &fakeIndicators{}
	s, _ := newTestSynchronizer(b, ind)

	s.Refresh(context.Background(), "startup")
	if got := atomic.LoadInt32(&ind.calls); got != 0 {
		t.Fatalf("crypto-only watchlist must not hit the indicator source, calls = %d", got)
	}
}

func TestRefreshIndicatorsInFlightDedupe(t *testing.T) {
	b := &fakeBrokerage{watchlist: models.Watchlist{"NVDA"}}
	ind := &fakeIndicators{
		block:   make(chan struct{}),
		results: map[string]models.TickerStats{"NVDA": statsWith(20)},
	}
	s, store := newTestSynchronizer(b, ind)
	store.SetWatchlist(b.watchlist)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.RefreshIndicators(context.Background())
	}()

	// wait for the first request to park inside BatchStats
	for atomic.LoadInt32(&ind.calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	// same batch while in flight: suppressed, no second request
	s.RefreshIndicators(context.Background())
	if got := atomic.LoadInt32(&ind.calls); got != 1 {
		t.Fatalf("duplicate in-flight batch must be suppressed, calls = %d", got)
	}

	close(ind.block)
	wg.Wait()

	if _, ok := store.Stats("NVDA"); !ok {
		t.Fatalf("first request's result must land")
	}
}

func TestRefreshFailureKeepsCachedData(t *testing.T) {
	b := &fakeBrokerage{watchlist: models.Watchlist{"NVDA"}}
	ind := &fakeIndicators{results: map[string]models.TickerStats{"NVDA": statsWith(20)}}
	s, store := newTestSynchronizer(b, ind)

	s.Refresh(context.Background(), "startup")

	// backend starts failing: cached data stays, source flips stale
	b.err = models.NewFault(models.FaultNetwork, "watchlist", context.DeadlineExceeded)
	ind.err = b.err
	s.Refresh(context.Background(), "minute_tick")

	if got := store.Watchlist(); !got.Equal(models.Watchlist{"NVDA"}) {
		t.Fatalf("cached watchlist lost on failure: %v", got)
	}
	if _, ok := store.Stats("NVDA"); !ok {
		t.Fatalf("cached stats lost on failure")
	}
	src := store.Sources()
	if !src[state.SourceWatchlist].Stale || !src[state.SourceIndicators].Stale {
		t.Fatalf("failed sources must be stale: %+v", src)
	}
}
