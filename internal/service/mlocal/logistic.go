// Package mlocal holds the in-process classifiers: logistic regressions over
// the flattened indicator vector, with coefficients exported from offline
// training. One model scores upward cycle starts (buy), one downward (sell).
package mlocal

import (
	"fmt"
	"math"

	"PaperDeck/internal/domain/models"
)

// Logistic is a binary logistic-regression scorer.
type Logistic struct {
	name      string
	side      models.Side
	intercept float64
	coef      []float64
}

// NewLogistic builds a scorer from exported coefficients.
func NewLogistic(name string, side models.Side, intercept float64, coef []float64) *Logistic {
	return &Logistic{name: name, side: side, intercept: intercept, coef: coef}
}

func (l *Logistic) Name() string      { return l.name }
func (l *Logistic) Side() models.Side { return l.side }

// Score returns sigmoid(intercept + coef . vector). The vector must match the
// trained width exactly; a mismatch is a classifier fault, not a panic.
func (l *Logistic) Score(vector []float64) (float64, error) {
	if len(vector) != len(l.coef) {
		return 0, fmt.Errorf("vector width %d, model expects %d", len(vector), len(l.coef))
	}
	z := l.intercept
	for i, w := range l.coef {
		z += w * vector[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// Coefficients exported from the trained up/down market-cycle models.
// Layout follows the flattened vector: 7 readings per timeframe, timeframes in
// fixed order 1min, 5min, 30min, 1h, 1d, 5d.
var (
	upIntercept = -1.8326

	upCoef = []float64{
		-0.0412, -0.0187, -0.0095, -0.0031, 0.1278, 0.2931, 0.2412,
		-0.0366, -0.0201, -0.0118, -0.0042, 0.1104, 0.2547, 0.2089,
		-0.0298, -0.0174, -0.0096, -0.0037, 0.0861, 0.1902, 0.1545,
		-0.0233, -0.0141, -0.0079, -0.0028, 0.0644, 0.1410, 0.1133,
		-0.0147, -0.0092, -0.0051, -0.0019, 0.0389, 0.0847, 0.0676,
		-0.0081, -0.0052, -0.0029, -0.0011, 0.0207, 0.0448, 0.0355,
	}

	downIntercept = -1.9145

	downCoef = []float64{
		0.0391, 0.0176, 0.0088, 0.0029, -0.1189, -0.2744, -0.2251,
		0.0344, 0.0189, 0.0109, 0.0039, -0.1031, -0.2380, -0.1946,
		0.0281, 0.0163, 0.0089, 0.0034, -0.0807, -0.1781, -0.1442,
		0.0219, 0.0132, 0.0073, 0.0026, -0.0602, -0.1318, -0.1056,
		0.0138, 0.0086, 0.0047, 0.0017, -0.0363, -0.0791, -0.0629,
		0.0076, 0.0048, 0.0027, 0.0010, -0.0193, -0.0418, -0.0331,
	}
)

// Defaults returns the shipped up/down model pair.
func Defaults() []*Logistic {
	return []*Logistic{
		NewLogistic("lr-up", models.SideBuy, upIntercept, upCoef),
		NewLogistic("lr-down", models.SideSell, downIntercept, downCoef),
	}
}
