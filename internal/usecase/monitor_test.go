package usecase

import (
	"context"
	"testing"
	"time"

	"PaperDeck/internal/domain/models"
	"PaperDeck/internal/scheduler"
	"PaperDeck/internal/state"
)

func newTestMonitor(b *fakeBrokerage, store *state.Store) (*Monitor, *scheduler.Scheduler) {
	sched := scheduler.New(fixedClock{now: time.Now()}, scheduler.DefaultConfig())
	return NewMonitor(sched, nil, nil, nil, b, store, nil), sched
}

func TestBuyDefaultsToLatestPrice(t *testing.T) {
	b := &fakeBrokerage{}
	store := state.NewStore()
	epoch := store.NewPriceEpoch()
	store.ApplyTick(epoch, models.PriceTick{Symbol: "NVDA", Price: 117.5, Timestamp: 1})
	m, sched := newTestMonitor(b, store)

	result, err := m.Buy(context.Background(), models.Order{Ticker: "NVDA", Qty: 2})
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if result.Price != 117.5 {
		t.Fatalf("order price = %v, want latest streamed price", result.Price)
	}

	// a completed order requests a refresh
	select {
	case reason := <-sched.Requests():
		if reason != scheduler.ReasonOrder {
			t.Fatalf("reason = %v", reason)
		}
	default:
		t.Fatalf("completed order must trigger a refresh")
	}
}

func TestBuyWithoutPriceOrTickFails(t *testing.T) {
	b := &fakeBrokerage{}
	m, _ := newTestMonitor(b, state.NewStore())

	if _, err := m.Buy(context.Background(), models.Order{Ticker: "NVDA", Qty: 1}); err == nil {
		t.Fatalf("order with no price and no live tick must fail")
	}
}

func TestSellPropagatesServerRejection(t *testing.T) {
	b := &fakeBrokerage{err: models.NewFault(models.FaultServer, "sell", context.DeadlineExceeded)}
	store := state.NewStore()
	m, sched := newTestMonitor(b, store)

	_, err := m.Sell(context.Background(), models.Order{Ticker: "NVDA", Qty: 1, Price: 100})
	if models.FaultKindOf(err) != models.FaultServer {
		t.Fatalf("fault kind = %v", models.FaultKindOf(err))
	}

	// a rejected order must not trigger a refresh
	select {
	case r := <-sched.Requests():
		t.Fatalf("unexpected refresh request %v", r)
	default:
	}
}

func TestExplicitPriceWins(t *testing.T) {
	b := &fakeBrokerage{}
	store := state.NewStore()
	epoch := store.NewPriceEpoch()
	store.ApplyTick(epoch, models.PriceTick{Symbol: "NVDA", Price: 117.5, Timestamp: 1})
	m, _ := newTestMonitor(b, store)

	result, err := m.Buy(context.Background(), models.Order{Ticker: "NVDA", Qty: 1, Price: 110})
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if result.Price != 110 {
		t.Fatalf("explicit price must win, got %v", result.Price)
	}
}
