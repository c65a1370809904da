package ensemble

import (
	"fmt"
	"math"
	"testing"

	"PaperDeck/internal/domain/models"
	domrepo "PaperDeck/internal/domain/repository"
	domsvc "PaperDeck/internal/domain/service"
)

type fakeClassifier struct {
	name  string
	side  models.Side
	probs []float64
	calls int
	fail  bool
	panic bool
}

func (f *fakeClassifier) Name() string      { return f.name }
func (f *fakeClassifier) Side() models.Side { return f.side }

func (f *fakeClassifier) Score(_ []float64) (float64, error) {
	if f.panic {
		panic("model blew up")
	}
	if f.fail {
		return 0, fmt.Errorf("scoring failed")
	}
	p := f.probs[f.calls%len(f.probs)]
	f.calls++
	return p, nil
}

type captureAlerter struct {
	buys  []models.Alert
	sells []models.Alert
}

func (c *captureAlerter) AlertBuy(a models.Alert)  { c.buys = append(c.buys, a) }
func (c *captureAlerter) AlertSell(a models.Alert) { c.sells = append(c.sells, a) }

func newScorer(t *testing.T, alerter Alerter, cs ...domsvc.Classifier) *Scorer {
	t.Helper()
	reg := domsvc.NewRegistry()
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return NewScorer(reg, domrepo.AllTimeframes(), alerter, nil, nil)
}

func TestEdgeTriggerRisingEdgeFiresOnce(t *testing.T) {
	alerter := &captureAlerter{}
	s := newScorer(t, alerter, &fakeClassifier{name: "buy-1%", side: models.SideBuy, probs: []float64{0.3, 0.6}})

	s.Evaluate("NVDA", models.TickerStats{})
	if len(alerter.buys) != 0 {
		t.Fatalf("no alert expected below threshold")
	}
	s.Evaluate("NVDA", models.TickerStats{})
	if len(alerter.buys) != 1 {
		t.Fatalf("expected exactly one alert on the crossing, got %d", len(alerter.buys))
	}
	if alerter.buys[0].Classifier != "buy-1%" || alerter.buys[0].Probability != 0.6 {
		t.Fatalf("unexpected alert payload: %+v", alerter.buys[0])
	}
}

func TestEdgeTriggerDoesNotRefire(t *testing.T) {
	alerter := &captureAlerter{}
	s := newScorer(t, alerter, &fakeClassifier{name: "buy-1%", side: models.SideBuy, probs: []float64{0.6, 0.7}})

	s.Evaluate("NVDA", models.TickerStats{})
	got := len(alerter.buys)
	s.Evaluate("NVDA", models.TickerStats{})
	if len(alerter.buys) != got {
		t.Fatalf("already above threshold: second evaluation must not re-fire")
	}
}

func TestEdgeTriggerPerTicker(t *testing.T) {
	alerter := &captureAlerter{}
	s := newScorer(t, alerter, &fakeClassifier{name: "buy-1%", side: models.SideBuy, probs: []float64{0.8}})

	s.Evaluate("NVDA", models.TickerStats{})
	s.Evaluate("AMD", models.TickerStats{})
	if len(alerter.buys) != 2 {
		t.Fatalf("edge state is per ticker, expected 2 alerts, got %d", len(alerter.buys))
	}
}

func TestSellAlertsUseSellChannel(t *testing.T) {
	alerter := &captureAlerter{}
	s := newScorer(t, alerter, &fakeClassifier{name: "sell-1%", side: models.SideSell, probs: []float64{0.9}})

	s.Evaluate("NVDA", models.TickerStats{})
	if len(alerter.sells) != 1 || len(alerter.buys) != 0 {
		t.Fatalf("sell classifier must alert on the sell channel")
	}
}

func TestFailingClassifierOmitted(t *testing.T) {
	s := newScorer(t, nil,
		&fakeClassifier{name: "broken", side: models.SideBuy, fail: true},
		&fakeClassifier{name: "ok", side: models.SideBuy, probs: []float64{0.7}},
	)
	res := s.Evaluate("NVDA", models.TickerStats{})
	if len(res) != 1 || res[0].Name != "ok" {
		t.Fatalf("failing classifier must be omitted, got %+v", res)
	}
}

func TestPanickingClassifierContained(t *testing.T) {
	s := newScorer(t, nil,
		&fakeClassifier{name: "bomb", side: models.SideSell, panic: true},
		&fakeClassifier{name: "ok", side: models.SideBuy, probs: []float64{0.2}},
	)
	res := s.Evaluate("NVDA", models.TickerStats{})
	if len(res) != 1 || res[0].Name != "ok" {
		t.Fatalf("panicking classifier must be contained, got %+v", res)
	}
}

func TestNetScore(t *testing.T) {
	s := newScorer(t, nil,
		&fakeClassifier{name: "buy-1%", side: models.SideBuy, probs: []float64{0.8}},
		&fakeClassifier{name: "buy-2%", side: models.SideBuy, probs: []float64{0.6}},
		&fakeClassifier{name: "sell-1%", side: models.SideSell, probs: []float64{0.3}},
	)
	res := s.Evaluate("NVDA", models.TickerStats{})
	if got := res.NetScore(); math.Abs(got-1.1) > 1e-9 {
		t.Fatalf("net score = %v, want 1.1", got)
	}
}

func TestFlattenLayout(t *testing.T) {
	v := 42.0
	stats := models.TickerStats{"1min": {Value: &v}}
	vec := Flatten(stats, domrepo.AllTimeframes())
	if len(vec) != len(domrepo.AllTimeframes())*ColumnsPerTimeframe {
		t.Fatalf("vector length = %d", len(vec))
	}
	if vec[0] != 42 {
		t.Fatalf("first column must be the 1min value, got %v", vec[0])
	}
	if vec[1] != 0 {
		t.Fatalf("absent fields must flatten to zero, got %v", vec[1])
	}
}

func TestResetDropsUnwatchedTickers(t *testing.T) {
	alerter := &captureAlerter{}
	s := newScorer(t, alerter, &fakeClassifier{name: "buy-1%", side: models.SideBuy, probs: []float64{0.8}})

	s.Evaluate("NVDA", models.TickerStats{})
	s.Reset(map[string]struct{}{})
	s.Evaluate("NVDA", models.TickerStats{})
	if len(alerter.buys) != 2 {
		t.Fatalf("reset must clear edge state, expected a fresh alert")
	}
}
