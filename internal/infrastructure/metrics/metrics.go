package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PublishedEnvelopes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusguard",
		Subsystem: "realtime",
		Name:      "published_envelopes_total",
		Help:      "Envelopes accepted by the dispatcher, by topic.",
	}, []string{"topic"})

	DroppedEnvelopes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusguard",
		Subsystem: "realtime",
		Name:      "dropped_envelopes_total",
		Help:      "Envelopes dropped before delivery, by reason.",
	}, []string{"reason"})

	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "campusguard",
		Subsystem: "realtime",
		Name:      "open_sessions",
		Help:      "Currently connected subscriber sessions.",
	})

	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "campusguard",
		Subsystem: "realtime",
		Name:      "active_streams",
		Help:      "Live stream sessions not yet stopped.",
	})
)

// Drop reasons.
const (
	ReasonOverflowFrame   = "overflow_frame"
	ReasonOverflowControl = "overflow_control"
	ReasonSessionClosed   = "session_closed"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
