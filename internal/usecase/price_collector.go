package usecase

import (
	"context"
	"sync"

	"PaperDeck/internal/domain/models"
	drepo "PaperDeck/internal/domain/repository"
	mid "PaperDeck/internal/middleware"
	"PaperDeck/internal/state"
	"PaperDeck/pkg/logger"
)

// PriceCollector owns the streaming price path. One connection serves one
// fixed symbol set; a watchlist change means Rebuild, which closes the old
// connection and advances the price epoch so late ticks from it are dropped.
// A failed stream stays down until the next Rebuild. There is no automatic
// reconnect.
type PriceCollector struct {
	stream   drepo.MarketStream
	store    *state.Store
	recorder *TickRecorder
	pipe     *mid.RealtimePipeline
	metrics  drepo.Metrics
	logger   *logger.Logger

	mu      sync.Mutex
	epoch   uint64
	cancel  context.CancelFunc
	running bool
}

func NewPriceCollector(
	stream drepo.MarketStream,
	store *state.Store,
	recorder *TickRecorder,
	pipe *mid.RealtimePipeline,
	metrics drepo.Metrics,
	lgr *logger.Logger,
) *PriceCollector {
	return &PriceCollector{
		stream:   stream,
		store:    store,
		recorder: recorder,
		pipe:     pipe,
		metrics:  metrics,
		logger:   lgr,
	}
}

// IsConnected reports whether the stream is currently up.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start dials the stream for the given symbols and begins consuming.
// An empty symbol set leaves the stream down on purpose.
func (c *PriceCollector) Start(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		c.mu.Lock()
		c.epoch = c.store.NewPriceEpoch()
		c.mu.Unlock()
		return nil
	}
	if err := c.stream.Connect(ctx, symbols); err != nil {
		c.metrics.RecordError("stream_connect")
		return err
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.epoch = c.store.NewPriceEpoch()
	epoch := c.epoch
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	if c.pipe != nil {
		c.pipe.Start(consumeCtx)
	}
	ticks, errs := c.stream.Read(consumeCtx)
	go c.consume(consumeCtx, epoch, ticks, errs)

	if c.logger != nil {
		c.logger.Info("price stream started", logger.Int("symbols", len(symbols)))
	}
	return nil
}

// Rebuild tears the current connection down and dials a fresh one for the new
// symbol set. Ticks still queued from the old connection carry the old epoch
// and fall on the floor.
func (c *PriceCollector) Rebuild(ctx context.Context, symbols []string) error {
	c.teardown()
	return c.Start(ctx, symbols)
}

// Shutdown stops the pipeline and closes the stream.
func (c *PriceCollector) Shutdown() error {
	c.teardown()
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return nil
}

func (c *PriceCollector) teardown() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.running = false
	c.mu.Unlock()
	_ = c.stream.Close()
	// invalidate any tick still in flight from the closed connection
	c.store.NewPriceEpoch()
}

func (c *PriceCollector) consume(ctx context.Context, epoch uint64, ticks <-chan models.PriceTick, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				c.metrics.RecordError("stream")
				if c.logger != nil {
					c.logger.Error("price stream failed, staying down until next rebuild", logger.Error(err))
				}
				return
			}
		case t, ok := <-ticks:
			if !ok {
				return
			}
			c.apply(ctx, epoch, t)
		}
	}
}

func (c *PriceCollector) apply(ctx context.Context, epoch uint64, t models.PriceTick) {
	if !c.store.ApplyTick(epoch, t) {
		// connection already replaced; drop
		return
	}
	c.metrics.RecordLastPrice(t.Symbol, t.Price)
	if c.recorder != nil && c.recorder.Enabled() {
		if c.pipe != nil {
			_ = c.pipe.Process(ctx, t)
		} else {
			_ = c.recorder.Process(ctx, t)
		}
	}
}
