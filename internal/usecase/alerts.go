package usecase

import (
	"context"
	"sync"

	"PaperDeck/internal/domain/models"
	"PaperDeck/pkg/logger"
	"PaperDeck/pkg/queue"
)

// Alert message types on the outbound queue.
const (
	MsgAlertBuy  = "alert.buy"
	MsgAlertSell = "alert.sell"
)

// AlertDispatcher fans edge-trigger alerts out: onto the queue for external
// consumers and into a bounded in-memory ring the API serves. Each alert is
// delivered once; the ensemble's edge detection guarantees no repeats while
// a probability stays above threshold.
type AlertDispatcher struct {
	queue  queue.QueueService
	logger *logger.Logger

	mu     sync.Mutex
	recent []models.Alert
	limit  int
}

func NewAlertDispatcher(q queue.QueueService, limit int, lgr *logger.Logger) *AlertDispatcher {
	if limit <= 0 {
		limit = 100
	}
	return &AlertDispatcher{queue: q, limit: limit, logger: lgr}
}

// AlertBuy handles a rising edge on a buy-side classifier.
func (d *AlertDispatcher) AlertBuy(a models.Alert) {
	d.dispatch(MsgAlertBuy, a)
}

// AlertSell handles a rising edge on a sell-side classifier.
func (d *AlertDispatcher) AlertSell(a models.Alert) {
	d.dispatch(MsgAlertSell, a)
}

func (d *AlertDispatcher) dispatch(msgType string, a models.Alert) {
	d.mu.Lock()
	d.recent = append(d.recent, a)
	if len(d.recent) > d.limit {
		d.recent = d.recent[len(d.recent)-d.limit:]
	}
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("alert",
			logger.String("type", msgType),
			logger.String("ticker", a.Ticker),
			logger.String("classifier", a.Classifier),
			logger.Float64("probability", a.Probability))
	}

	if d.queue != nil {
		if err := d.queue.PublishMessage(context.Background(), msgType, a); err != nil && d.logger != nil {
			d.logger.Error("alert publish failed", logger.Error(err))
		}
	}
}

// Recent returns up to limit most recent alerts, newest last.
func (d *AlertDispatcher) Recent(limit int) []models.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	if limit <= 0 || limit > len(d.recent) {
		limit = len(d.recent)
	}
	out := make([]models.Alert, limit)
	copy(out, d.recent[len(d.recent)-limit:])
	return out
}
