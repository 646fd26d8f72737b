package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Rejection reasons used as the "reason" label of rejected requests.
const (
	reasonMethod    = "http_method"
	reasonRateLimit = "rate_limit"
	reasonAuth      = "auth"
	reasonBody      = "body"
	reasonParse     = "parse"
	reasonForbidden = "forbidden_method"
)

// Metrics contains metrics exposed by the proxy.
type Metrics struct {
	// Forwarded requests by JSON-RPC method and upstream HTTP status
	Requests *prometheus.CounterVec

	// Upstream round trip time by JSON-RPC method
	Latency *prometheus.HistogramVec

	// Requests answered by the proxy itself, by reason
	Rejected *prometheus.CounterVec
}

// NewMetrics builds the proxy metrics and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcgw",
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "JSON-RPC requests forwarded upstream",
		}, []string{"method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "btcgw",
			Subsystem: "proxy",
			Name:      "upstream_seconds",
			Help:      "Upstream round trip time",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"method"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcgw",
			Subsystem: "proxy",
			Name:      "rejected_total",
			Help:      "Requests rejected before reaching bitcoind",
		}, []string{"reason"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Requests, m.Latency, m.Rejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
