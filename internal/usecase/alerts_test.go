package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"PaperDeck/internal/domain/models"
)

type capturedMsg struct {
	msgType string
	payload interface{}
}

type fakeQueue struct {
	msgs []capturedMsg
}

func (q *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.msgs = append(q.msgs, capturedMsg{msgType, payload})
	return nil
}

func TestDispatcherRoutesBySide(t *testing.T) {
	q := &fakeQueue{}
	d := NewAlertDispatcher(q, 10, nil)

	d.AlertBuy(models.Alert{Ticker: "NVDA", Classifier: "lr-up", Side: models.SideBuy, At: time.Now()})
	d.AlertSell(models.Alert{Ticker: "NVDA", Classifier: "lr-down", Side: models.SideSell, At: time.Now()})

	if len(q.msgs) != 2 {
		t.Fatalf("msgs = %v", q.msgs)
	}
	if q.msgs[0].msgType != MsgAlertBuy || q.msgs[1].msgType != MsgAlertSell {
		t.Fatalf("types = %s, %s", q.msgs[0].msgType, q.msgs[1].msgType)
	}
}

func TestDispatcherRingBounded(t *testing.T) {
	d := NewAlertDispatcher(nil, 3, nil)
	for i := 0; i < 5; i++ {
		d.AlertBuy(models.Alert{Ticker: "NVDA", Classifier: "lr-up", Probability: float64(i)})
	}

	recent := d.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("recent = %v", recent)
	}
	if recent[2].Probability != 4 {
		t.Fatalf("newest alert must be last: %v", recent)
	}
}

func TestAlertNotifyJobParsesQueuedPayload(t *testing.T) {
	jobs := AlertJobs(nil)
	if len(jobs) != 2 || jobs[0].Type() != MsgAlertBuy || jobs[1].Type() != MsgAlertSell {
		t.Fatalf("jobs = %v", jobs)
	}

	raw := json.RawMessage(`{"ticker":"NVDA","classifier":"lr-up","side":"buy","probability":0.7}`)
	if err := jobs[0].Handle(context.Background(), raw); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := jobs[0].Handle(context.Background(), 42); err == nil {
		t.Fatal("numeric payload must be rejected")
	}
}
