package state

import (
	"encoding/json"
	"testing"
	"time"

	"PaperDeck/internal/domain/models"
)

func TestApplyTickUpdatesEnriched(t *testing.T) {
	s := NewStore()
	s.SetPositions([]models.Position{{Ticker: "NVDA", Qty: 2, AvgCost: 100}})
	epoch := s.NewPriceEpoch()

	if !s.ApplyTick(epoch, models.PriceTick{Symbol: "NVDA", Price: 110}) {
		t.Fatalf("tick with current epoch must apply")
	}
	enriched := s.Enriched()
	if len(enriched) != 1 || enriched[0].Profit != 20 {
		t.Fatalf("enriched = %+v", enriched)
	}
}

func TestApplyTickStaleEpochDropped(t *testing.T) {
	s := NewStore()
	s.SetPositions([]models.Position{{Ticker: "NVDA", Qty: 1, AvgCost: 100}})
	old := s.NewPriceEpoch()
	s.NewPriceEpoch() // connection torn down and rebuilt

	if s.ApplyTick(old, models.PriceTick{Symbol: "NVDA", Price: 999}) {
		t.Fatalf("tick from a closed connection must be dropped")
	}
	if _, ok := s.Price("NVDA"); ok {
		t.Fatalf("price map must be untouched by a dropped tick")
	}
}

func TestMergeStatsSequenceGuard(t *testing.T) {
	s := NewStore()
	v1, v2 := 10.0, 20.0

	if !s.MergeStats("NVDA", models.TickerStats{"1min": {Value: &v1}}, 2) {
		t.Fatalf("first merge must apply")
	}
	// request issued earlier but resolving later: superseded, must not win
	if s.MergeStats("NVDA", models.TickerStats{"1min": {Value: &v2}}, 1) {
		t.Fatalf("stale seq must be discarded")
	}
	stats, _ := s.Stats("NVDA")
	if *stats["1min"].Value != 10 {
		t.Fatalf("superseded response overwrote fresher state")
	}
}

func TestSetWatchlistChangeDetection(t *testing.T) {
	s := NewStore()
	if !s.SetWatchlist(models.Watchlist{"NVDA", "BTC-USD"}) {
		t.Fatalf("first set is a change")
	}
	if s.SetWatchlist(models.Watchlist{"NVDA", "BTC-USD"}) {
		t.Fatalf("identical watchlist is not a change")
	}
	if !s.SetWatchlist(models.Watchlist{"NVDA"}) {
		t.Fatalf("shrunk watchlist is a change")
	}
}

func TestDropUnwatched(t *testing.T) {
	s := NewStore()
	v := 15.0
	s.SetWatchlist(models.Watchlist{"NVDA", "AMD"})
	s.MergeStats("NVDA", models.TickerStats{"1min": {Value: &v}}, 1)
	s.MergeStats("AMD", models.TickerStats{"1min": {Value: &v}}, 1)

	s.SetWatchlist(models.Watchlist{"NVDA"})
	s.DropUnwatched()

	if _, ok := s.Stats("AMD"); ok {
		t.Fatalf("stats for removed ticker must be dropped")
	}
	if _, ok := s.Stats("NVDA"); !ok {
		t.Fatalf("stats for kept ticker must survive")
	}
}

func TestStalenessFlags(t *testing.T) {
	s := NewStore()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.MarkFresh(SourceWatchlist, now)
	s.MarkStale(SourcePositions, errFake("boom"))

	src := s.Sources()
	if src[SourceWatchlist].Stale {
		t.Fatalf("fresh source flagged stale")
	}
	if !src[SourcePositions].Stale || src[SourcePositions].LastError != "boom" {
		t.Fatalf("stale source = %+v", src[SourcePositions])
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }

func TestRoundTripDeterminism(t *testing.T) {
	run := func() []byte {
		s := NewStore()
		v, v1, v2, d1, d2 := 20.0, 15.0, 10.0, 1.0, 1.0
		s.SetWatchlist(models.Watchlist{"NVDA"})
		s.SetPositions([]models.Position{{Ticker: "NVDA", Qty: 2, AvgCost: 100}})
		epoch := s.NewPriceEpoch()
		s.ApplyTick(epoch, models.PriceTick{Symbol: "NVDA", Price: 110})
		s.MergeStats("NVDA", models.TickerStats{"1min": {Value: &v, Value1: &v1, Value2: &v2, Delta1: &d1, Delta2: &d2}}, 1)

		enriched, _ := json.Marshal(s.Enriched())
		stats, _ := s.Stats("NVDA")
		snaps, _ := json.Marshal(stats)
		return append(enriched, snaps...)
	}
	a, b := run(), run()
	if string(a) != string(b) {
		t.Fatalf("identical inputs must produce byte-identical derived state")
	}
}
