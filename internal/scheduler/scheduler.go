// Package scheduler decides when the synchronizer refreshes. Three trigger
// sources funnel into one coalescing request channel: the wall-clock minute
// boundary, watchlist changes, and pushed settings changes.
package scheduler

import (
	"context"
	"time"

	domrepo "PaperDeck/internal/domain/repository"
)

// Reason says which source asked for a refresh.
type Reason string

const (
	ReasonMinuteTick Reason = "minute_tick"
	ReasonWatchlist  Reason = "watchlist_change"
	ReasonSettings   Reason = "settings_change"
	ReasonOrder      Reason = "order_completed"
	ReasonStartup    Reason = "startup"
)

// Config controls the timing behaviour.
type Config struct {
	OpenHour    int           // first hour (inclusive) refreshes are allowed
	CloseHour   int           // last hour (inclusive)
	SettleDelay time.Duration // wait after a minute boundary before emitting
	TickPoll    time.Duration // how often the minute is re-checked
}

// DefaultConfig matches the dashboard cadence: market window 9..20, 2 s settle.
func DefaultConfig() Config {
	return Config{OpenHour: 9, CloseHour: 20, SettleDelay: 2 * time.Second, TickPoll: time.Second}
}

// Scheduler emits refresh requests. The request channel is buffered with
// capacity one and written with a non-blocking send, so concurrent triggers
// inside one in-flight refresh collapse into a single request.
type Scheduler struct {
	clock    domrepo.Clock
	cfg      Config
	requests chan Reason
}

func New(clock domrepo.Clock, cfg Config) *Scheduler {
	if cfg.TickPoll <= 0 {
		cfg.TickPoll = time.Second
	}
	return &Scheduler{
		clock:    clock,
		cfg:      cfg,
		requests: make(chan Reason, 1),
	}
}

// Requests is the coalesced refresh request stream.
func (s *Scheduler) Requests() <-chan Reason { return s.requests }

// MarketOpen reports whether scheduled refreshes are allowed at t.
// The window is inclusive on both ends.
func (s *Scheduler) MarketOpen(t time.Time) bool {
	h := t.Hour()
	return h >= s.cfg.OpenHour && h <= s.cfg.CloseHour
}

// Trigger requests a refresh immediately, bypassing the market-hours gate.
// Used for reactive sources: watchlist and settings changes, completed orders.
func (s *Scheduler) Trigger(reason Reason) {
	s.request(reason)
}

// Run watches for minute boundaries until ctx is cancelled. The timer itself
// never errors; downstream failures are the consumer's problem.
func (s *Scheduler) Run(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickPoll)
	defer ticker.Stop()

	last := s.clock.Now().Minute()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.clock.Now()
			if now.Minute() == last {
				continue
			}
			last = now.Minute()
			if !s.MarketOpen(now) {
				continue
			}
			// Settle before emitting so clock skew right at the boundary
			// cannot double-fire.
			if s.cfg.SettleDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.cfg.SettleDelay):
				}
			}
			s.request(ReasonMinuteTick)
		}
	}
}

func (s *Scheduler) request(reason Reason) {
	select {
	case s.requests <- reason:
	default:
		// a refresh is already pending; collapsing is the contract
	}
}
