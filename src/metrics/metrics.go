// Package metrics implements Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CallsActive tracks calls currently being relayed
	CallsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callbridge_calls_active",
			Help: "Number of calls currently being relayed",
		},
	)

	// CallsTotal counts finished calls by outcome
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_calls_total",
			Help: "Total number of calls handled",
		},
		[]string{"outcome"},
	)

	// CallDurationSeconds measures how long calls stay connected
	CallDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callbridge_call_duration_seconds",
			Help:    "Duration of relayed calls in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
	)

	// CallContextHits counts calls that found registered context
	CallContextHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_call_context_lookups_total",
			Help: "Call context lookups by result",
		},
		[]string{"result"},
	)

	// FramesRelayedTotal counts frames forwarded by direction and kind
	FramesRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_frames_relayed_total",
			Help: "Total number of frames forwarded between telephony and the AI session",
		},
		[]string{"direction", "kind"},
	)

	// FramesDroppedTotal counts frames intentionally not forwarded
	FramesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_frames_dropped_total",
			Help: "Total number of frames dropped by the relay",
		},
		[]string{"direction", "reason"},
	)

	// AudioSecondsTotal accumulates relayed audio playback time
	AudioSecondsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_audio_seconds_total",
			Help: "Seconds of audio forwarded by direction",
		},
		[]string{"direction"},
	)

	// InterruptionsTotal counts barge-in interruptions
	InterruptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callbridge_interruptions_total",
			Help: "Total number of caller barge-in interruptions",
		},
	)

	// RelayErrorsTotal counts relay failures by kind
	RelayErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callbridge_relay_errors_total",
			Help: "Total number of relay errors",
		},
		[]string{"kind"},
	)
)

// Error kinds for RelayErrorsTotal
const (
	ErrorKindMalformed        = "malformed"
	ErrorKindWrite            = "write"
	ErrorKindRead             = "read"
	ErrorKindStreamNotStarted = "stream_not_started"
	ErrorKindProvider         = "provider"
	ErrorKindDial             = "dial"
	ErrorKindBootstrap        = "bootstrap"
	ErrorKindContextStore     = "context_store"
)

// Call outcomes for CallsTotal
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
