package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct{ size, inFlight int }

func (f fakeSource) CacheStats() (int, int) { return f.size, f.inFlight }

func TestRecordBeforeInit(t *testing.T) {
	if rec != nil {
		t.Skip("recorder already initialised by another test")
	}
	// must not panic
	RecordCacheLookup("hit")
	RecordStrategyAttempt("type_keyed", "ok")
	RecordDisplayOutcome("loaded", true)
	RecordPreload("ok")
}

func TestCacheCollector(t *testing.T) {
	c := &CacheCollector{source: fakeSource{size: 3, inFlight: 1}}

	want := `
# HELP placeimages_fallback_cache_entries Number of generated image URLs held in the fallback cache
# TYPE placeimages_fallback_cache_entries gauge
placeimages_fallback_cache_entries 3
# HELP placeimages_fallback_in_flight Number of entities whose fallback image is being generated
# TYPE placeimages_fallback_in_flight gauge
placeimages_fallback_in_flight 1
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want)); err != nil {
		t.Errorf("CollectAndCompare() error = %v", err)
	}
}

func TestInitAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, fakeSource{})

	RecordCacheLookup("hit")
	RecordCacheLookup("hit")
	RecordStrategyAttempt("contextual", "failed")
	RecordDisplayOutcome("loaded", true)
	RecordPreload("blocked")

	if got := testutil.ToFloat64(rec.cache.WithLabelValues("hit")); got != 2 {
		t.Errorf("cache hit count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.strategy.WithLabelValues("contextual", "failed")); got != 1 {
		t.Errorf("strategy count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.display.WithLabelValues("loaded", "true")); got != 1 {
		t.Errorf("display count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.preload.WithLabelValues("blocked")); got != 1 {
		t.Errorf("preload count = %v, want 1", got)
	}
}
