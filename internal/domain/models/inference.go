package models

import "time"

// Side tags a classifier as scoring buy or sell opportunities.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Inference is the outcome of a single classifier for one evaluation.
type Inference struct {
	Name        string  `json:"name"`
	Side        Side    `json:"side"`
	Directional bool    `json:"directional"` // probability > 0.5
	Probability float64 `json:"probability"`
}

// InferenceSet is the ordered classifier outcomes for one ticker evaluation.
type InferenceSet []Inference

// NetScore is the sum of buy probabilities minus the sum of sell probabilities.
// Presentation-tier gradient input only.
func (s InferenceSet) NetScore() float64 {
	var score float64
	for _, inf := range s {
		switch inf.Side {
		case SideBuy:
			score += inf.Probability
		case SideSell:
			score -= inf.Probability
		}
	}
	return score
}

// Alert is a one-shot edge-trigger notification: a classifier crossed the
// 0.5 probability threshold from below since its previous evaluation.
type Alert struct {
	Ticker      string    `json:"ticker"`
	Classifier  string    `json:"classifier"`
	Side        Side      `json:"side"`
	Probability float64   `json:"probability"`
	At          time.Time `json:"at"`
}
