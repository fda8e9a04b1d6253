// Package observability exposes Prometheus counters for radio traffic.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RoleNode    = "node"
	RoleGateway = "gateway"
)

// Drop reasons.
const (
	DropMalformed  = "malformed"
	DropCrossTalk  = "cross_talk"
	DropReplay     = "replay"
	DropUnknown    = "unknown_client"
	DropUndeclared = "undeclared_channel"
)

var (
	registerOnce sync.Once

	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homelink",
			Name:      "frames_sent_total",
			Help:      "Frames acknowledged by the link layer.",
		},
		[]string{"role", "type"},
	)
	framesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homelink",
			Name:      "frames_failed_total",
			Help:      "Frames that exhausted every transmit attempt.",
		},
		[]string{"role", "type"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homelink",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames discarded before dispatch.",
		},
		[]string{"role", "reason"},
	)
	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "homelink",
			Name:      "registrations_total",
			Help:      "Registration handshakes by result.",
		},
		[]string{"result"},
	)
	sessionResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "homelink",
			Name:      "session_resets_total",
			Help:      "Sessions invalidated by a failed link ack check.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesSent, framesFailed, framesDropped, registrations, sessionResets)
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordSent(role, msgType string) {
	RegisterMetrics()
	framesSent.WithLabelValues(role, msgType).Inc()
}

func RecordFailed(role, msgType string) {
	RegisterMetrics()
	framesFailed.WithLabelValues(role, msgType).Inc()
}

func RecordDropped(role, reason string) {
	RegisterMetrics()
	framesDropped.WithLabelValues(role, reason).Inc()
}

func RecordRegistration(result string) {
	RegisterMetrics()
	registrations.WithLabelValues(result).Inc()
}

func RecordSessionReset() {
	RegisterMetrics()
	sessionResets.Inc()
}
