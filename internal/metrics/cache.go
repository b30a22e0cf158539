package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts page cache traffic by region kind. A nil *CacheMetrics
// is valid and records nothing.
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	DroppedPuts   *prometheus.CounterVec
	Errors        *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "hits_total",
			Help:      "Total number of page cache hits, by region kind.",
		}, []string{"region"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "misses_total",
			Help:      "Total number of page cache misses, by region kind.",
		}, []string{"region"}),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "invalidations_total",
			Help:      "Total number of region invalidations, by region kind.",
		}, []string{"region"}),
		DroppedPuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "dropped_puts_total",
			Help:      "Puts discarded because the region was invalidated after the read began.",
		}, []string{"region"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page_cache",
			Name:      "errors_total",
			Help:      "Backend errors, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Invalidations, m.DroppedPuts, m.Errors)
	return m
}

func (m *CacheMetrics) Hit(region string) {
	if m != nil {
		m.Hits.WithLabelValues(region).Inc()
	}
}

func (m *CacheMetrics) Miss(region string) {
	if m != nil {
		m.Misses.WithLabelValues(region).Inc()
	}
}

func (m *CacheMetrics) Invalidated(region string) {
	if m != nil {
		m.Invalidations.WithLabelValues(region).Inc()
	}
}

func (m *CacheMetrics) Dropped(region string) {
	if m != nil {
		m.DroppedPuts.WithLabelValues(region).Inc()
	}
}

func (m *CacheMetrics) Error(op string) {
	if m != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}
