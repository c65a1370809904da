package usecase

import (
	"context"
	"fmt"
	"time"

	"PaperDeck/internal/domain/models"
	"PaperDeck/pkg/logger"
	"PaperDeck/pkg/queue"
)

// AlertNotifyJob consumes queued edge alerts and delivers them as structured
// log events. Delivery happens off the evaluation path so a slow sink never
// stalls a refresh cycle.
type AlertNotifyJob struct {
	msgType string
	logger  *logger.Logger
}

// AlertJobs returns the consumer jobs for both alert channels.
func AlertJobs(lgr *logger.Logger) []queue.Job {
	return []queue.Job{
		&AlertNotifyJob{msgType: MsgAlertBuy, logger: lgr},
		&AlertNotifyJob{msgType: MsgAlertSell, logger: lgr},
	}
}

func (j *AlertNotifyJob) Name() string { return "alert-notify-" + j.msgType }

func (j *AlertNotifyJob) Type() string { return j.msgType }

func (j *AlertNotifyJob) Handle(ctx context.Context, payload interface{}) error {
	alert, err := queue.ParsePayload[models.Alert](payload)
	if err != nil {
		return fmt.Errorf("parse alert payload: %w", err)
	}
	if j.logger != nil {
		j.logger.Info("alert delivered",
			logger.String("ticker", alert.Ticker),
			logger.String("classifier", alert.Classifier),
			logger.String("side", string(alert.Side)),
			logger.Float64("probability", alert.Probability),
			logger.String("at", alert.At.Format(time.RFC3339)))
	}
	return nil
}
