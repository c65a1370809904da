package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ClassifierLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paperdeck",
			Subsystem: "ensemble",
			Name:      "latency_seconds",
			Help:      "Latency of classifier scoring",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"classifier"},
	)

	ClassifierErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdeck",
			Subsystem: "ensemble",
			Name:      "errors_total",
			Help:      "Errors by classifier",
		},
		[]string{"classifier"},
	)

	AlertsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdeck",
			Subsystem: "ensemble",
			Name:      "alerts_total",
			Help:      "Edge-triggered alerts by side",
		},
		[]string{"side"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ClassifierLatency, ClassifierErrors, AlertsEmitted)
	})
}
