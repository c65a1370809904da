package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"PaperDeck/internal/domain/models"
	"PaperDeck/internal/state"
)

// fakeStream is a scriptable MarketStream.
type fakeStream struct {
	mu        sync.Mutex
	connected bool
	symbols   []string
	ticks     chan models.PriceTick
	errs      chan error
	connects  int
}

func newFakeStream() *fakeStream {
	return &fakeStream{}
}

func (f *fakeStream) Connect(ctx context.Context, symbols []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.symbols = symbols
	f.connects++
	f.ticks = make(chan models.PriceTick, 16)
	f.errs = make(chan error, 1)
	return nil
}

func (f *fakeStream) Read(ctx context.Context) (<-chan models.PriceTick, <-chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks, f.errs
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeStream) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeStream) push(t models.PriceTick) {
	f.mu.Lock()
	ch := f.ticks
	f.mu.Unlock()
	ch <- t
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition never became true")
}

func TestCollectorAppliesTicks(t *testing.T) {
	stream := newFakeStream()
	store := state.NewStore()
	c := NewPriceCollector(stream, store, nil, nil, nopMetrics{}, nil)

	if err := c.Start(context.Background(), []string{"NVDA"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	stream.push(models.PriceTick{Symbol: "NVDA", Price: 120, Timestamp: 1})

	waitFor(t, func() bool {
		p, ok := store.Price("NVDA")
		return ok && p == 120
	})
}

func TestCollectorDropsTicksAfterRebuild(t *testing.T) {
	stream := newFakeStream()
	store := state.NewStore()
	c := NewPriceCollector(stream, store, nil, nil, nopMetrics{}, nil)

	if err := c.Start(context.Background(), []string{"NVDA"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	oldTicks := stream.ticks

	if err := c.Rebuild(context.Background(), []string{"NVDA", "AMD"}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	// a tick queued on the old connection must never reach the store
	select {
	case oldTicks <- models.PriceTick{Symbol: "NVDA", Price: 999, Timestamp: 2}:
	default:
	}
	stream.push(models.PriceTick{Symbol: "AMD", Price: 98, Timestamp: 3})

	waitFor(t, func() bool {
		p, ok := store.Price("AMD")
		return ok && p == 98
	})
	if p, ok := store.Price("NVDA"); ok && p == 999 {
		t.Fatalf("tick from the closed connection was applied: %v", p)
	}
	if stream.connects != 2 {
		t.Fatalf("connects = %d", stream.connects)
	}
}

func TestCollectorEmptySymbolSetStaysDown(t *testing.T) {
	stream := newFakeStream()
	store := state.NewStore()
	c := NewPriceCollector(stream, store, nil, nil, nopMetrics{}, nil)

	if err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if stream.connects != 0 {
		t.Fatalf("empty symbol set must not dial, connects = %d", stream.connects)
	}
	if c.IsConnected() {
		t.Fatalf("collector must stay down with no symbols")
	}
}
