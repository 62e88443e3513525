// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the node's prometheus collectors. It registers
// against an injected registry so several nodes can coexist in one test
// process. A nil *Collector is a valid no-op sink.
type Collector struct {
	registry *prometheus.Registry

	peersConnected   prometheus.Gauge
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	messagesDropped  prometheus.Counter

	broadcastsTotal   *prometheus.CounterVec
	broadcastFailures prometheus.Counter

	federationEvents    *prometheus.CounterVec
	workloadTransitions *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.peersConnected = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "peers_connected",
		Help:      "Number of peers currently marked connected",
	})

	c.messagesSent = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wire_messages_sent_total",
			Help:      "Total wire messages sent, by kind",
		},
		[]string{"kind"},
	)

	c.messagesReceived = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wire_messages_received_total",
			Help:      "Total wire messages received, by kind",
		},
		[]string{"kind"},
	)

	c.messagesDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wire_messages_dropped_total",
		Help:      "Total malformed or unknown wire messages dropped",
	})

	c.broadcastsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Total broadcast fan-outs, by scope",
		},
		[]string{"scope"}, // all, federation
	)

	c.broadcastFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_delivery_failures_total",
		Help:      "Total per-peer delivery failures during broadcast",
	})

	c.federationEvents = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "federation_events_total",
			Help:      "Total federation mutations applied, by event and origin",
		},
		[]string{"event", "origin"}, // origin: local, remote
	)

	c.workloadTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workload_transitions_total",
			Help:      "Total workload status transitions",
		},
		[]string{"from", "to"},
	)

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	logger.Debug("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// Registry exposes the underlying registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// SetPeersConnected records the current connected-peer count.
func (c *Collector) SetPeersConnected(n int) {
	if c == nil {
		return
	}
	c.peersConnected.Set(float64(n))
}

// RecordMessageSent counts an outbound wire message.
func (c *Collector) RecordMessageSent(kind string) {
	if c == nil {
		return
	}
	c.messagesSent.WithLabelValues(kind).Inc()
}

// RecordMessageReceived counts an inbound wire message.
func (c *Collector) RecordMessageReceived(kind string) {
	if c == nil {
		return
	}
	c.messagesReceived.WithLabelValues(kind).Inc()
}

// RecordMessageDropped counts a malformed or unknown inbound frame.
func (c *Collector) RecordMessageDropped() {
	if c == nil {
		return
	}
	c.messagesDropped.Inc()
}

// RecordBroadcast counts a fan-out by scope ("all" or "federation").
func (c *Collector) RecordBroadcast(scope string) {
	if c == nil {
		return
	}
	c.broadcastsTotal.WithLabelValues(scope).Inc()
}

// RecordBroadcastFailure counts a per-peer delivery failure.
func (c *Collector) RecordBroadcastFailure() {
	if c == nil {
		return
	}
	c.broadcastFailures.Inc()
}

// RecordFederationEvent counts an applied federation mutation.
func (c *Collector) RecordFederationEvent(event, origin string) {
	if c == nil {
		return
	}
	c.federationEvents.WithLabelValues(event, origin).Inc()
}

// RecordWorkloadTransition counts a workload status change.
func (c *Collector) RecordWorkloadTransition(from, to string) {
	if c == nil {
		return
	}
	c.workloadTransitions.WithLabelValues(from, to).Inc()
}

// RecordHTTPRequest records an API request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
