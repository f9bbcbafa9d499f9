package excludes

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHitsDesc = prometheus.NewDesc(
		"resolveengine_exclude_cache_hits_total",
		"Number of exclude spec constructions served from the cache.",
		[]string{"cache"}, nil,
	)
	cacheMissesDesc = prometheus.NewDesc(
		"resolveengine_exclude_cache_misses_total",
		"Number of exclude spec constructions computed by the delegate factory.",
		[]string{"cache"}, nil,
	)
	cacheEntriesDesc = prometheus.NewDesc(
		"resolveengine_exclude_cache_entries",
		"Number of exclude specs currently memoized.",
		[]string{"cache"}, nil,
	)
)

// CacheCollector exports the counters of a Caching factory as prometheus
// metrics.
type CacheCollector struct {
	cache *Caching
}

var _ prometheus.Collector = (*CacheCollector)(nil)

// NewCacheCollector returns a collector reading the stats of c at scrape time.
func NewCacheCollector(c *Caching) *CacheCollector {
	return &CacheCollector{cache: c}
}

func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheHitsDesc
	ch <- cacheMissesDesc
	ch <- cacheEntriesDesc
}

func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.cache.Stats() {
		ch <- prometheus.MustNewConstMetric(cacheHitsDesc, prometheus.CounterValue, float64(s.Hits), s.Name)
		ch <- prometheus.MustNewConstMetric(cacheMissesDesc, prometheus.CounterValue, float64(s.Misses), s.Name)
		ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(s.Entries), s.Name)
	}
}
