package client

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// clientMetrics holds the Prometheus instruments for the client.
// Registration happens once against the default registerer; several
// Client instances in one process share the set.
type clientMetrics struct {
	callsTotal      *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	inflight        prometheus.Gauge
	connects        prometheus.Counter
	connectFailures prometheus.Counter
	disposals       prometheus.Counter
	events          prometheus.Counter
	readErrors      prometheus.Counter
	writeErrors     prometheus.Counter
	bytesSent       prometheus.Counter
	bytesReceived   prometheus.Counter
}

var (
	globalMetrics     *clientMetrics
	globalMetricsOnce sync.Once
)

// metrics returns the singleton instrument set, registering it on first
// use.
func metrics() *clientMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics(prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

func initMetrics(reg prometheus.Registerer) *clientMetrics {
	factory := promauto.With(reg)

	return &clientMetrics{
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "calls_total",
			Help:      "Total number of calls by transport, method and status",
		}, []string{"transport", "method", "status"}),

		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tensorgrid",
			Name:      "call_duration_seconds",
			Help:      "Call round-trip duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "method"}),

		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tensorgrid",
			Name:      "calls_inflight",
			Help:      "Number of correlated calls awaiting a response",
		}),

		connects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "connects_total",
			Help:      "Total number of persistent connections established",
		}),

		connectFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "connect_failures_total",
			Help:      "Total number of failed connection attempts",
		}),

		disposals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "disposals_total",
			Help:      "Total number of persistent connections disposed",
		}),

		events: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "events_total",
			Help:      "Total number of out-of-band events received",
		}),

		readErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "read_errors_total",
			Help:      "Total number of transport read or decode errors",
		}),

		writeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "write_errors_total",
			Help:      "Total number of transport write errors",
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "bytes_sent_total",
			Help:      "Total encoded frame bytes sent",
		}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tensorgrid",
			Name:      "bytes_received_total",
			Help:      "Total frame bytes received",
		}),
	}
}

// observeCall records the outcome of one call.
func observeCall(transport, method string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m := metrics()
	m.callsTotal.WithLabelValues(transport, method, status).Inc()
	m.callDuration.WithLabelValues(transport, method).Observe(d.Seconds())
}
