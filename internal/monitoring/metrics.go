// Package monitoring exposes the bot's Prometheus metrics.  Counters are
// registered on the default registry and served by the /metrics route.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery outcomes.
const (
	OutcomeSent        = "sent"
	OutcomeBlocked     = "blocked"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

var (
	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_deliveries_total",
			Help: "Notifications delivered to participants by outcome",
		},
		[]string{"outcome"},
	)

	deliveryRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_delivery_retries_total",
			Help: "Delivery attempts repeated after a rate limit signal",
		},
	)

	broadcastRecipients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_broadcast_recipients_total",
			Help: "Broadcast recipients by result",
		},
		[]string{"result"},
	)

	broadcastRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_broadcast_runs_total",
			Help: "Completed broadcast runs",
		},
	)

	moderationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_moderation_decisions_total",
			Help: "Operator decisions on reservations",
		},
		[]string{"decision", "result"},
	)

	reservationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_reservations_created_total",
			Help: "Reservations appended to the ledger",
		},
	)

	feedbackReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_feedback_received_total",
			Help: "Feedback messages appended to the ledger",
		},
	)

	eventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Inbound chat events by token kind and whether a handler matched",
		},
		[]string{"kind", "matched"},
	)
)

// TrackDelivery counts one notifier outcome.
func TrackDelivery(outcome string) { deliveries.WithLabelValues(outcome).Inc() }

// TrackDeliveryRetry counts one retry after a rate limit.
func TrackDeliveryRetry() { deliveryRetries.Inc() }

// TrackBroadcast counts a finished broadcast run.
func TrackBroadcast(succeeded, failed int) {
	broadcastRuns.Inc()
	broadcastRecipients.WithLabelValues("succeeded").Add(float64(succeeded))
	broadcastRecipients.WithLabelValues("failed").Add(float64(failed))
}

// TrackDecision counts an operator decision; result is "applied" or
// "already_resolved".
func TrackDecision(decision, result string) {
	moderationDecisions.WithLabelValues(decision, result).Inc()
}

// TrackReservation counts an appended reservation.
func TrackReservation() { reservationsCreated.Inc() }

// TrackFeedback counts an appended feedback message.
func TrackFeedback() { feedbackReceived.Inc() }

// TrackEvent counts an inbound event.
func TrackEvent(kind string, matched bool) {
	m := "false"
	if matched {
		m = "true"
	}
	eventsHandled.WithLabelValues(kind, m).Inc()
}
