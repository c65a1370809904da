package usecase

import (
	"context"
	"fmt"
	"time"

	"PaperDeck/internal/domain/models"
	drepo "PaperDeck/internal/domain/repository"
)

// TickRecorder archives accepted price ticks on a side path, routed to the
// configured backend. The live dashboard never depends on it; a backend of
// "none" disables recording entirely.
type TickRecorder struct {
	pub     drepo.Publisher
	store   drepo.TickStore
	metrics drepo.Metrics
	backend string
}

// NewTickRecorder creates a recorder for the given backend.
func NewTickRecorder(pub drepo.Publisher, store drepo.TickStore, metrics drepo.Metrics, backend string) *TickRecorder {
	return &TickRecorder{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Enabled reports whether recording is configured.
func (r *TickRecorder) Enabled() bool {
	return r.backend == "kafka" || r.backend == "clickhouse"
}

// Process routes a single tick to the configured backend.
func (r *TickRecorder) Process(ctx context.Context, t models.PriceTick) error {
	if !r.Enabled() {
		return nil
	}

	start := time.Now()
	var err error
	switch r.backend {
	case "kafka":
		err = r.pub.Publish(ctx, t)
	case "clickhouse":
		err = r.store.Store(ctx, t)
	}

	if err != nil {
		r.metrics.RecordError("record")
		return fmt.Errorf("record tick: %w", err)
	}
	r.metrics.RecordLatency("record", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple ticks in one backend call.
func (r *TickRecorder) ProcessBatch(ctx context.Context, ticks []models.PriceTick) error {
	if !r.Enabled() || len(ticks) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch r.backend {
	case "kafka":
		err = r.pub.PublishBatch(ctx, ticks)
	case "clickhouse":
		err = r.store.StoreBatch(ctx, ticks)
	}

	if err != nil {
		r.metrics.RecordError("record_batch")
		return fmt.Errorf("record batch: %w", err)
	}
	r.metrics.RecordLatency("record_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (r *TickRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}
