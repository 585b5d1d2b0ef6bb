package decision

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decision_messages_total",
			Help: "Messages handled by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)
	duplicatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "decision_duplicates_dropped_total",
			Help: "Redelivered messages dropped by the deduper.",
		},
	)
	persistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "decision_persist_failures_total",
			Help: "Watering records that failed to insert.",
		},
	)
)

func init() {
	prometheus.MustRegister(messagesTotal, duplicatesTotal, persistFailures)
}

const (
	outcomeOK      = "ok"
	outcomeDecode  = "decode_error"
	outcomePublish = "publish_error"
	outcomePersist = "persist_error"
	outcomeIgnored = "ignored"
)
