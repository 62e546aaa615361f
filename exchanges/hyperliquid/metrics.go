package hyperliquid

import "github.com/prometheus/client_golang/prometheus"

var (
	signaturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsign",
		Subsystem: "signing",
		Name:      "signatures_total",
		Help:      "Signatures produced by scheme and outcome.",
	}, []string{"scheme", "outcome"})

	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hlsign",
		Subsystem: "exchange",
		Name:      "submissions_total",
		Help:      "Signed actions submitted by transport and outcome.",
	}, []string{"transport", "outcome"})
)

// RegisterMetrics registers the signing and submission collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{signaturesTotal, submissionsTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
