// Package signal derives the per-timeframe momentum-reversal signal from
// indicator snapshots. Pure functions, no I/O.
package signal

import (
	"PaperDeck/internal/domain/models"
	domrepo "PaperDeck/internal/domain/repository"
)

// Threshold band for the rule: cycle value in the lower-middle band, was
// recently lower still, and is rising on two consecutive measurements.
const (
	bandLow  = 10.0
	bandHigh = 30.0
	lagCap   = 20.0
)

// TimeframeHasSignal reports whether one timeframe snapshot is active.
// A missing field makes the comparison false; absent data is never a signal.
func TimeframeHasSignal(s models.IndicatorSnapshot) bool {
	if s.Value == nil || s.Value1 == nil || s.Value2 == nil || s.Delta1 == nil || s.Delta2 == nil {
		return false
	}
	return *s.Value >= bandLow && *s.Value <= bandHigh &&
		*s.Value1 <= lagCap &&
		*s.Value2 <= lagCap &&
		*s.Delta1 > 0 &&
		*s.Delta2 > 0
}

// Evaluate runs the detector across all timeframes for one ticker.
// HasSignal is the logical OR; Timeframes records which individual ones fired.
func Evaluate(ticker string, stats models.TickerStats) models.SignalState {
	state := models.SignalState{
		Ticker:     ticker,
		Timeframes: make(map[string]bool, len(stats)),
	}
	for _, tf := range domrepo.AllTimeframes() {
		snap, ok := stats[string(tf)]
		if !ok {
			continue
		}
		active := TimeframeHasSignal(snap)
		state.Timeframes[string(tf)] = active
		if active {
			state.HasSignal = true
		}
	}
	return state
}
