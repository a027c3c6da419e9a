package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheSizeDesc = prometheus.NewDesc(
		"placeimages_fallback_cache_entries",
		"Number of generated image URLs held in the fallback cache",
		nil, nil,
	)
	inFlightDesc = prometheus.NewDesc(
		"placeimages_fallback_in_flight",
		"Number of entities whose fallback image is being generated",
		nil, nil,
	)
)

// CacheSource reports the current fallback cache occupancy.
type CacheSource interface {
	CacheStats() (size, inFlight int)
}

// CacheCollector is a custom Prometheus collector that reads the fallback
// cache occupancy on each scrape.
type CacheCollector struct {
	source CacheSource
}

// Describe sends the metric descriptors to the channel.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheSizeDesc
	ch <- inFlightDesc
}

// Collect emits the cache gauges.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	size, inFlight := c.source.CacheStats()
	ch <- prometheus.MustNewConstMetric(cacheSizeDesc, prometheus.GaugeValue, float64(size))
	ch <- prometheus.MustNewConstMetric(inFlightDesc, prometheus.GaugeValue, float64(inFlight))
}

type recorder struct {
	cache    *prometheus.CounterVec
	strategy *prometheus.CounterVec
	display  *prometheus.CounterVec
	preload  *prometheus.CounterVec
}

var (
	rec     *recorder
	recOnce sync.Once
)

// Init registers the collectors on reg. Must be called once at startup;
// the Record functions are no-ops before that.
func Init(reg prometheus.Registerer, source CacheSource) {
	recOnce.Do(func() {
		r := &recorder{
			cache: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "placeimages_fallback_cache_total",
				Help: "Fallback cache lookups by outcome",
			}, []string{"outcome"}),
			strategy: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "placeimages_strategy_attempts_total",
				Help: "Fallback strategy attempts by strategy and outcome",
			}, []string{"strategy", "outcome"}),
			display: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "placeimages_display_outcomes_total",
				Help: "Final display states by whether the image was generated",
			}, []string{"state", "generated"}),
			preload: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "placeimages_preload_total",
				Help: "Image preload checks by outcome",
			}, []string{"outcome"}),
		}
		reg.MustRegister(r.cache, r.strategy, r.display, r.preload)
		if source != nil {
			reg.MustRegister(&CacheCollector{source: source})
		}
		rec = r
	})
}

// RecordCacheLookup counts a fallback cache lookup (hit, miss, shared_hit or pending).
func RecordCacheLookup(outcome string) {
	if rec == nil {
		return
	}
	rec.cache.WithLabelValues(outcome).Inc()
}

// RecordStrategyAttempt counts one strategy attempt.
func RecordStrategyAttempt(strategy, outcome string) {
	if rec == nil {
		return
	}
	rec.strategy.WithLabelValues(strategy, outcome).Inc()
}

// RecordDisplayOutcome counts a settled display state.
func RecordDisplayOutcome(state string, generated bool) {
	if rec == nil {
		return
	}
	g := "false"
	if generated {
		g = "true"
	}
	rec.display.WithLabelValues(state, g).Inc()
}

// RecordPreload counts a preload check (ok, failed, blocked or open_circuit).
func RecordPreload(outcome string) {
	if rec == nil {
		return
	}
	rec.preload.WithLabelValues(outcome).Inc()
}
