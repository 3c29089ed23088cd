package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "brainvoice"

var (
	// InboundEventsTotal counts realtime events seen by session controllers.
	InboundEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbound_events_total",
		Help:      "Realtime events observed, by event type",
	}, []string{"type"})

	// RegistrationsTotal counts tool registration emissions.
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_registrations_total",
		Help:      "Tool registration events sent, by outcome",
	}, []string{"outcome"})

	// ToolInvocationsTotal counts tool calls by tool and outcome.
	ToolInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_invocations_total",
		Help:      "Tool invocations requested by the backend, by tool and outcome",
	}, []string{"tool", "outcome"})

	// ContinuationsTotal counts continuation emissions.
	ContinuationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "continuations_total",
		Help:      "Continuation events, by outcome (sent, failed, dropped)",
	}, []string{"outcome"})

	// ActiveSessions tracks sessions between created and ended.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Realtime sessions currently live",
	})

	// SummariesStoredTotal counts appended conversation summaries.
	SummariesStoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summaries_stored_total",
		Help:      "Conversation summaries appended, by source (client, summarizer)",
	}, []string{"source"})

	// HTTPRequestDuration observes request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by method, route and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// RelayConnections counts realtime relay connections by outcome.
	RelayConnections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_connections_total",
		Help:      "Realtime relay connections, by outcome (opened, dial_failed, upgrade_failed)",
	}, []string{"outcome"})
)
