// Package metrics owns the Prometheus collectors of the server. Collectors
// are registered on an explicit registry so tests can use a fresh one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "movierama"

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics bundles every collector the server exports.
type Metrics struct {
	Cache *CacheMetrics
	Vote  *VoteMetrics
	HTTP  *HTTPMetrics
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Cache: NewCacheMetrics(reg),
		Vote:  NewVoteMetrics(reg),
		HTTP:  NewHTTPMetrics(reg),
	}
}
