package repository

import (
	"context"
	"time"

	"PaperDeck/internal/domain/models"
)

// Brokerage is the paper-trading REST backend, specified at its interface
// boundary only. All durable state lives on its side.
type Brokerage interface {
	Watchlist(ctx context.Context) (models.Watchlist, error)
	Positions(ctx context.Context) ([]models.Position, error)
	Stats(ctx context.Context) (models.Account, error)
	Buy(ctx context.Context, order models.Order) (models.OrderResult, error)
	Sell(ctx context.Context, order models.Order) (models.OrderResult, error)
}

// IndicatorSource serves batched indicator snapshots keyed by symbol.
type IndicatorSource interface {
	BatchStats(ctx context.Context, symbols []string) (map[string]models.TickerStats, error)
}

// MarketStream is one long-lived streaming connection for a fixed symbol set.
// The subscription set is sent at connection-open time only; changing it means
// closing the stream and opening a new one.
type MarketStream interface {
	Connect(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan models.PriceTick, <-chan error)
	Close() error
	IsConnected() bool
}

// SettingsFeed delivers the full operator settings document on every change.
// Subscribe returns a cancel func that tears the subscription down.
type SettingsFeed interface {
	Subscribe(ctx context.Context) (<-chan models.Settings, func(), error)
}

// Clock abstracts wall-clock time for the scheduler.
type Clock interface {
	Now() time.Time
}

// Publisher forwards accepted price ticks to a message broker.
type Publisher interface {
	Publish(ctx context.Context, t models.PriceTick) error
	PublishBatch(ctx context.Context, ticks []models.PriceTick) error
	Close() error
}

// TickStore archives accepted price ticks in columnar storage.
type TickStore interface {
	Store(ctx context.Context, t models.PriceTick) error
	StoreBatch(ctx context.Context, ticks []models.PriceTick) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceTick, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordRefresh(source string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSignal(symbol string, active bool)
}
