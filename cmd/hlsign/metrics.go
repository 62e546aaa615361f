package main

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/request"
)

// newMetricsRegistry collects the signing, submission and HTTP counters.
func newMetricsRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := hyperliquid.RegisterMetrics(reg); err != nil {
		return nil, err
	}
	if err := request.RegisterMetrics(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// writeMetrics dumps every gathered family in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
