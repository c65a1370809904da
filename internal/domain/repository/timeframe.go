package repository

// Timeframe is an aggregation granularity for indicator snapshots.
type Timeframe string

const (
	TF1m  Timeframe = "1min"
	TF5m  Timeframe = "5min"
	TF30m Timeframe = "30min"
	TF1h  Timeframe = "1h"
	TF1d  Timeframe = "1d"
	TF5d  Timeframe = "5d"
)

// AllTimeframes returns the supported timeframes in fixed evaluation order.
// The ensemble vector layout depends on this order staying stable.
func AllTimeframes() []Timeframe {
	return []Timeframe{TF1m, TF5m, TF30m, TF1h, TF1d, TF5d}
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF30m, TF1h, TF1d, TF5d:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}
