package signal

import (
	"testing"

	"PaperDeck/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func activeSnapshot() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Value:  f(20),
		Value1: f(15),
		Value2: f(10),
		Delta1: f(1),
		Delta2: f(1),
	}
}

func TestTimeframeHasSignalActive(t *testing.T) {
	if !TimeframeHasSignal(activeSnapshot()) {
		t.Fatalf("expected signal for rising lower-band snapshot")
	}
}

func TestTimeframeHasSignalAboveBand(t *testing.T) {
	s := activeSnapshot()
	s.Value = f(35)
	if TimeframeHasSignal(s) {
		t.Fatalf("expected no signal when value above band")
	}
}

func TestTimeframeHasSignalBoundaries(t *testing.T) {
	s := activeSnapshot()
	s.Value = f(10)
	if !TimeframeHasSignal(s) {
		t.Fatalf("band is inclusive at 10")
	}
	s.Value = f(30)
	if !TimeframeHasSignal(s) {
		t.Fatalf("band is inclusive at 30")
	}
	s.Value1 = f(20.5)
	if TimeframeHasSignal(s) {
		t.Fatalf("lag1 above 20 must not fire")
	}
}

func TestTimeframeHasSignalFalling(t *testing.T) {
	s := activeSnapshot()
	s.Delta1 = f(-0.5)
	if TimeframeHasSignal(s) {
		t.Fatalf("falling cycle must not fire")
	}
	s = activeSnapshot()
	s.Delta2 = f(0)
	if TimeframeHasSignal(s) {
		t.Fatalf("flat second delta must not fire")
	}
}

func TestTimeframeHasSignalMissingFields(t *testing.T) {
	base := activeSnapshot()
	variants := []func(*models.IndicatorSnapshot){
		func(s *models.IndicatorSnapshot) { s.Value = nil },
		func(s *models.IndicatorSnapshot) { s.Value1 = nil },
		func(s *models.IndicatorSnapshot) { s.Value2 = nil },
		func(s *models.IndicatorSnapshot) { s.Delta1 = nil },
		func(s *models.IndicatorSnapshot) { s.Delta2 = nil },
	}
	for i, mutate := range variants {
		s := base
		mutate(&s)
		if TimeframeHasSignal(s) {
			t.Fatalf("variant %d: missing field must be false, not a signal", i)
		}
	}
	if TimeframeHasSignal(models.IndicatorSnapshot{}) {
		t.Fatalf("empty snapshot must be false")
	}
}

func TestEvaluateAggregates(t *testing.T) {
	stats := models.TickerStats{
		"1min": activeSnapshot(),
		"1h":   {Value: f(80)},
	}
	state := Evaluate("NVDA", stats)
	if !state.HasSignal {
		t.Fatalf("expected aggregated signal")
	}
	if !state.Timeframes["1min"] {
		t.Fatalf("expected 1min to fire")
	}
	if state.Timeframes["1h"] {
		t.Fatalf("expected 1h inactive")
	}
	if _, ok := state.Timeframes["5d"]; ok {
		t.Fatalf("timeframes with no snapshot must be absent, not false")
	}
}

func TestEvaluateNoData(t *testing.T) {
	state := Evaluate("AMD", models.TickerStats{})
	if state.HasSignal {
		t.Fatalf("no data must mean no signal")
	}
}
