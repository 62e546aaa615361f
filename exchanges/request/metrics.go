package request

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsign",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP request attempts by requester and response code.",
	}, []string{"requester", "method", "code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hlsign",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP round trip latency by requester.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"requester"})

	retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsign",
		Subsystem: "http",
		Name:      "retries_total",
		Help:      "HTTP retries by requester.",
	}, []string{"requester"})
)

// RegisterMetrics registers the requester collectors with reg
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{requestsTotal, requestDuration, retriesTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func observeAttempt(name, method string, code int, started time.Time) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	requestsTotal.WithLabelValues(name, method, label).Inc()
	requestDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
}
