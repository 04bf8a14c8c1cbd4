package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"vaultview/internal/catalog"
)

// Metrics holds the service counters. It satisfies player.Observer and
// subtitle.Observer.
type Metrics struct {
	PlaybackStarts   *prometheus.CounterVec
	PlaybackFailures *prometheus.CounterVec
	ItemsHidden      prometheus.Counter
	SubtitleFetches  *prometheus.CounterVec
	Requests         *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
}

// New creates and registers the metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PlaybackStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultview",
			Subsystem: "player",
			Name:      "starts_total",
			Help:      "Playback starts by media kind.",
		}, []string{"kind"}),
		PlaybackFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultview",
			Subsystem: "player",
			Name:      "failures_total",
			Help:      "Playback failures by reason.",
		}, []string{"reason"}),
		ItemsHidden: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultview",
			Subsystem: "player",
			Name:      "items_hidden_total",
			Help:      "Items added to a session broken set.",
		}),
		SubtitleFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultview",
			Subsystem: "subtitles",
			Name:      "fetches_total",
			Help:      "Subtitle loads by result and cache use.",
		}, []string{"result", "cached"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultview",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vaultview",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	reg.MustRegister(
		m.PlaybackStarts,
		m.PlaybackFailures,
		m.ItemsHidden,
		m.SubtitleFetches,
		m.Requests,
		m.RequestDuration,
	)

	return m
}

func (m *Metrics) PlaybackStarted(kind catalog.MediaType) {
	m.PlaybackStarts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) PlaybackFailed(reason string) {
	m.PlaybackFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ItemHidden(string) {
	m.ItemsHidden.Inc()
}

func (m *Metrics) SubtitleFetched(ok bool, cached bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.SubtitleFetches.WithLabelValues(result, strconv.FormatBool(cached)).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.Observe(d.Seconds())
}

// SubtitleCache is the part of the subtitle fetcher exposed as metrics.
type SubtitleCache interface {
	CacheStats() (count int, size int64)
	CacheHits() (hits, misses uint64)
}

// RegisterSubtitleCache exposes the fetcher's body cache, polled on each scrape.
func RegisterSubtitleCache(reg prometheus.Registerer, c SubtitleCache) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vaultview",
			Subsystem: "subtitles",
			Name:      "cache_entries",
			Help:      "Subtitle bodies held in the cache.",
		}, func() float64 {
			n, _ := c.CacheStats()
			return float64(n)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vaultview",
			Subsystem: "subtitles",
			Name:      "cache_bytes",
			Help:      "Total size of cached subtitle bodies.",
		}, func() float64 {
			_, size := c.CacheStats()
			return float64(size)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "vaultview",
			Subsystem: "subtitles",
			Name:      "cache_hits_total",
			Help:      "Subtitle cache lookups that found a body.",
		}, func() float64 {
			hits, _ := c.CacheHits()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "vaultview",
			Subsystem: "subtitles",
			Name:      "cache_misses_total",
			Help:      "Subtitle cache lookups that went to the network.",
		}, func() float64 {
			_, misses := c.CacheHits()
			return float64(misses)
		}),
	)
}

// RegisterGauges exposes values polled on each scrape.
func RegisterGauges(reg prometheus.Registerer, catalogSize func() int, sessions func() int) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vaultview",
			Subsystem: "catalog",
			Name:      "items",
			Help:      "Number of items in the catalog.",
		}, func() float64 { return float64(catalogSize()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vaultview",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of live player sessions.",
		}, func() float64 { return float64(sessions()) }),
	)
}
