package models

import (
	"strings"
	"time"
)

// CryptoSeparator tags a watchlist symbol as crypto (e.g. "BTC-USD").
const CryptoSeparator = "-"

// IsCrypto reports whether a watchlist symbol names a crypto pair.
func IsCrypto(symbol string) bool {
	return strings.Contains(symbol, CryptoSeparator)
}

// Watchlist is an ordered set of tickers cached from the remote project store.
type Watchlist []string

// Equities returns the equity subset in watchlist order.
func (w Watchlist) Equities() []string {
	out := make([]string, 0, len(w))
	for _, s := range w {
		if !IsCrypto(s) {
			out = append(out, s)
		}
	}
	return out
}

// Crypto returns the crypto subset in watchlist order.
func (w Watchlist) Crypto() []string {
	out := make([]string, 0, len(w))
	for _, s := range w {
		if IsCrypto(s) {
			out = append(out, s)
		}
	}
	return out
}

// Equal reports whether two watchlists hold the same symbols in the same order.
func (w Watchlist) Equal(other Watchlist) bool {
	if len(w) != len(other) {
		return false
	}
	for i := range w {
		if w[i] != other[i] {
			return false
		}
	}
	return true
}

// PriceTick is a single trade event from the streaming feed.
type PriceTick struct {
	Symbol    string  `json:"sym"`
	Price     float64 `json:"p"`
	Timestamp int64   `json:"t"` // ms since epoch, event time
}

// IndicatorSnapshot holds the market-cycle readings for one ticker and timeframe.
// Missing fields stay nil; comparisons against nil must evaluate to false, never
// panic or count as a signal.
type IndicatorSnapshot struct {
	Close     float64   `json:"close"`
	Timestamp time.Time `json:"time"`
	Value     *float64  `json:"value"`  // current market cycle
	Value1    *float64  `json:"value1"` // one measurement back
	Value2    *float64  `json:"value2"` // two back
	Value3    *float64  `json:"value3"` // three back
	Delta0    *float64  `json:"delta0"` // value - value1
	Delta1    *float64  `json:"delta1"` // value1 - value2
	Delta2    *float64  `json:"delta2"` // value2 - value3
}

// TickerStats maps timeframe name to the latest snapshot for a ticker.
// Replaced wholesale per timeframe on every successful poll.
type TickerStats map[string]IndicatorSnapshot

// SignalState is the per-timeframe detector outcome for one ticker.
type SignalState struct {
	Ticker     string          `json:"ticker"`
	Timeframes map[string]bool `json:"timeframes"`
	HasSignal  bool            `json:"has_signal"`
}
