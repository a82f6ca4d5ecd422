package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolebot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rolebot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 3, 5},
		},
		[]string{"method", "path"},
	)

	SignatureFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolebot_signature_failures_total",
			Help: "Interaction requests rejected by signature verification",
		},
		[]string{"reason"},
	)

	// Business metrics
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolebot_interactions_total",
			Help: "Dispatched interactions",
		},
		[]string{"type", "command", "outcome"},
	)

	ReactionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolebot_reaction_events_total",
			Help: "Reaction events processed by the role toggle",
		},
		[]string{"source", "action", "outcome"},
	)

	RelaySends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolebot_relay_sends_total",
			Help: "Outbound relay sends",
		},
		[]string{"channel", "outcome"}, // channel: "whatsapp" or "email"
	)

	FollowUpEdits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolebot_followup_edits_total",
			Help: "Deferred follow-up edits of original interaction responses",
		},
		[]string{"outcome"},
	)

	RelayStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolebot_relay_state_transitions_total",
			Help: "Relay channel state machine transitions",
		},
		[]string{"from", "to"},
	)
)
