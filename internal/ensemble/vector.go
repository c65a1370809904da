package ensemble

import (
	"PaperDeck/internal/domain/models"
	domrepo "PaperDeck/internal/domain/repository"
)

// ColumnsPerTimeframe is the fixed vector layout per timeframe:
// value, value1, value2, value3, delta0, delta1, delta2.
const ColumnsPerTimeframe = 7

// Flatten builds the classifier input vector from a ticker's snapshots.
// Column order is fixed by the configured timeframe order; absent fields
// flatten to zero so every classifier sees the same vector width.
func Flatten(stats models.TickerStats, timeframes []domrepo.Timeframe) []float64 {
	vector := make([]float64, 0, len(timeframes)*ColumnsPerTimeframe)
	for _, tf := range timeframes {
		snap := stats[string(tf)]
		for _, field := range []*float64{
			snap.Value, snap.Value1, snap.Value2, snap.Value3,
			snap.Delta0, snap.Delta1, snap.Delta2,
		} {
			if field != nil {
				vector = append(vector, *field)
			} else {
				vector = append(vector, 0)
			}
		}
	}
	return vector
}
