// Package ensemble runs the registered binary classifiers over a flattened
// indicator vector and detects probability-threshold crossings between
// consecutive evaluations.
package ensemble

import (
	"fmt"
	"sync"
	"time"

	"PaperDeck/internal/domain/models"
	domrepo "PaperDeck/internal/domain/repository"
	domsvc "PaperDeck/internal/domain/service"
	emetrics "PaperDeck/internal/service/metrics"
	"PaperDeck/pkg/logger"
)

// directionalThreshold is the probability above which a classifier counts as
// directional and edge triggers may fire.
const directionalThreshold = 0.5

// Alerter receives one-shot edge-trigger alerts. Buy and sell classifiers
// report on distinct channels.
type Alerter interface {
	AlertBuy(a models.Alert)
	AlertSell(a models.Alert)
}

// Scorer evaluates the classifier registry per ticker and tracks the
// per-classifier threshold state machine used for edge-triggered alerting.
type Scorer struct {
	registry   *domsvc.Registry
	timeframes []domrepo.Timeframe
	alerter    Alerter
	metrics    domrepo.Metrics
	log        *logger.Logger

	mu sync.Mutex
	// ticker -> classifier -> above-threshold after the last evaluation
	prev map[string]map[string]bool
}

func NewScorer(registry *domsvc.Registry, timeframes []domrepo.Timeframe, alerter Alerter, metrics domrepo.Metrics, log *logger.Logger) *Scorer {
	return &Scorer{
		registry:   registry,
		timeframes: timeframes,
		alerter:    alerter,
		metrics:    metrics,
		log:        log,
		prev:       make(map[string]map[string]bool),
	}
}

// Evaluate scores every registered classifier on the ticker's vector.
// A failing classifier is omitted from the result; it never aborts the
// ensemble. Edge triggers compare against the snapshot of the previous
// evaluation, captured before any classifier runs.
func (s *Scorer) Evaluate(ticker string, stats models.TickerStats) models.InferenceSet {
	vector := Flatten(stats, s.timeframes)

	// Swap the previous state out first so overlapping evaluations never
	// compare a result against itself.
	s.mu.Lock()
	previous := s.prev[ticker]
	current := make(map[string]bool, len(previous))
	for name, above := range previous {
		current[name] = above
	}
	s.prev[ticker] = current
	s.mu.Unlock()

	results := make(models.InferenceSet, 0, len(s.registry.All()))
	now := time.Now()

	for _, c := range s.registry.All() {
		start := time.Now()
		prob, err := safeScore(c, vector)
		emetrics.ClassifierLatency.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			emetrics.ClassifierErrors.WithLabelValues(c.Name()).Inc()
			fault := models.NewFault(models.FaultClassifier, c.Name(), err)
			if s.log != nil {
				s.log.Warn("classifier failed", logger.String("ticker", ticker), logger.Error(fault))
			}
			if s.metrics != nil {
				s.metrics.RecordError("classifier_" + c.Name())
			}
			continue
		}

		directional := prob > directionalThreshold
		results = append(results, models.Inference{
			Name:        c.Name(),
			Side:        c.Side(),
			Directional: directional,
			Probability: prob,
		})

		wasAbove := previous[c.Name()]
		s.mu.Lock()
		current[c.Name()] = directional
		s.mu.Unlock()

		// Rising edge only: must not re-fire while probability stays above
		// the threshold across consecutive evaluations.
		if directional && !wasAbove && s.alerter != nil {
			alert := models.Alert{
				Ticker:      ticker,
				Classifier:  c.Name(),
				Side:        c.Side(),
				Probability: prob,
				At:          now,
			}
			emetrics.AlertsEmitted.WithLabelValues(string(c.Side())).Inc()
			switch c.Side() {
			case models.SideSell:
				s.alerter.AlertSell(alert)
			default:
				s.alerter.AlertBuy(alert)
			}
		}
	}
	return results
}

// Reset drops the edge-trigger state for tickers no longer watched.
func (s *Scorer) Reset(keep map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ticker := range s.prev {
		if _, ok := keep[ticker]; !ok {
			delete(s.prev, ticker)
		}
	}
}

// safeScore contains panics from opaque classifier code.
func safeScore(c domsvc.Classifier, vector []float64) (prob float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	prob, err = c.Score(vector)
	if err != nil {
		return 0, err
	}
	if prob < 0 || prob > 1 {
		return 0, fmt.Errorf("probability %v out of range", prob)
	}
	return prob, nil
}
