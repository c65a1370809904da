package usecase

import (
	"context"
	"fmt"

	"PaperDeck/internal/domain/models"
	drepo "PaperDeck/internal/domain/repository"
	"PaperDeck/internal/scheduler"
	"PaperDeck/internal/state"
	"PaperDeck/pkg/logger"
)

// Monitor is the single control loop tying the async sources together. All
// refreshes, stream rebuilds and settings updates pass through here, so the
// rest of the system never races on shared state transitions.
type Monitor struct {
	sched     *scheduler.Scheduler
	sync      *Synchronizer
	collector *PriceCollector
	settings  drepo.SettingsFeed
	brokerage drepo.Brokerage
	store     *state.Store
	logger    *logger.Logger
}

func NewMonitor(
	sched *scheduler.Scheduler,
	sync *Synchronizer,
	collector *PriceCollector,
	settings drepo.SettingsFeed,
	brokerage drepo.Brokerage,
	store *state.Store,
	lgr *logger.Logger,
) *Monitor {
	return &Monitor{
		sched:     sched,
		sync:      sync,
		collector: collector,
		settings:  settings,
		brokerage: brokerage,
		store:     store,
		logger:    lgr,
	}
}

// Run starts the control loop and blocks until ctx is cancelled. The first
// refresh fires immediately regardless of market hours.
func (m *Monitor) Run(ctx context.Context) error {
	var settingsCh <-chan models.Settings
	if m.settings != nil {
		ch, cancel, err := m.settings.Subscribe(ctx)
		if err != nil {
			// settings are an enhancement; the dashboard runs without them
			m.store.MarkStale(state.SourceSettings, err)
			if m.logger != nil {
				m.logger.Error("settings feed unavailable", logger.Error(err))
			}
		} else {
			defer cancel()
			settingsCh = ch
			m.store.MarkFresh(state.SourceSettings, m.sync.clock.Now())
		}
	}

	m.sched.Run(ctx)
	m.sched.Trigger(scheduler.ReasonStartup)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case reason := <-m.sched.Requests():
			changed := m.sync.Refresh(ctx, string(reason))
			if changed || reason == scheduler.ReasonStartup {
				equities := m.store.Watchlist().Equities()
				if err := m.collector.Rebuild(ctx, equities); err != nil {
					m.store.MarkStale(state.SourceStream, err)
				} else {
					m.store.MarkFresh(state.SourceStream, m.sync.clock.Now())
				}
			}

		case settings, ok := <-settingsCh:
			if !ok {
				settingsCh = nil
				m.store.MarkStale(state.SourceSettings, fmt.Errorf("settings feed closed"))
				continue
			}
			m.store.SetSettings(settings)
			m.store.MarkFresh(state.SourceSettings, m.sync.clock.Now())
			m.sched.Trigger(scheduler.ReasonSettings)
		}
	}
}

// Buy submits a paper buy order. A zero price falls back to the latest
// streamed price for the ticker.
func (m *Monitor) Buy(ctx context.Context, order models.Order) (models.OrderResult, error) {
	return m.submit(ctx, models.OrderBuy, order)
}

// Sell submits a paper sell order with the same price fallback.
func (m *Monitor) Sell(ctx context.Context, order models.Order) (models.OrderResult, error) {
	return m.submit(ctx, models.OrderSell, order)
}

func (m *Monitor) submit(ctx context.Context, side models.OrderSide, order models.Order) (models.OrderResult, error) {
	order.Side = side
	if order.Price == 0 {
		price, ok := m.store.Price(order.Ticker)
		if !ok {
			return models.OrderResult{}, fmt.Errorf("no live price for %s, price required", order.Ticker)
		}
		order.Price = price
	}

	var (
		result models.OrderResult
		err    error
	)
	switch side {
	case models.OrderSell:
		result, err = m.brokerage.Sell(ctx, order)
	default:
		result, err = m.brokerage.Buy(ctx, order)
	}
	if err != nil {
		// write-path faults propagate; cached positions stay as they were
		return models.OrderResult{}, err
	}

	if m.logger != nil {
		m.logger.Info("order filled",
			logger.String("side", string(side)),
			logger.String("ticker", order.Ticker),
			logger.Float64("qty", order.Qty),
			logger.Float64("price", order.Price))
	}
	m.sched.Trigger(scheduler.ReasonOrder)
	return result, nil
}
