package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	translationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wkt_translations_total",
			Help: "WKT translations by direction, flavor and outcome.",
		},
		[]string{"direction", "flavor", "outcome"},
	)

	translationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wkt_translation_duration_seconds",
			Help:    "Time spent translating, excluding cache hits.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		},
		[]string{"direction"},
	)

	flavorDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wkt_flavor_detections_total",
			Help: "Flavors chosen by the detector, or none.",
		},
		[]string{"flavor"},
	)

	flavorSubstitutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wkt_flavor_substitutions_total",
			Help: "Exports written in a substitute flavor, by requested flavor.",
		},
		[]string{"requested"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of Redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op"},
	)

	cacheGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_generation",
			Help: "Current translation cache generation.",
		},
	)

	invalidationEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidation_events_total",
			Help: "Dictionary change events by result.",
		},
		[]string{"result"},
	)

	nameMapEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wkt_namemap_entries",
			Help: "Entries in the loaded name map.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		translationsTotal, translationDurationSeconds,
		flavorDetections, flavorSubstitutions,
		cacheResults, cacheOpTotal, redisOpDurationSeconds, cacheGeneration,
		invalidationEvents, nameMapEntries,
	}
}

// Init registers the service collectors on reg in addition to the default
// registry. Registering twice on the same registry is harmless.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveTranslation records one engine run. outcome is "ok" or an error class.
func ObserveTranslation(direction, flavor, outcome string, durationSeconds float64) {
	if flavor == "" {
		flavor = "none"
	}
	translationsTotal.WithLabelValues(direction, flavor, outcome).Inc()
	if outcome == "ok" {
		translationDurationSeconds.WithLabelValues(direction).Observe(durationSeconds)
	}
}

func IncFlavorDetection(flavor string) {
	if flavor == "" {
		flavor = "none"
	}
	flavorDetections.WithLabelValues(flavor).Inc()
}

func IncFlavorSubstitution(requested string) {
	flavorSubstitutions.WithLabelValues(requested).Inc()
}

func IncCacheHit(tier string)  { cacheResults.WithLabelValues(tier, "hit").Inc() }
func IncCacheMiss(tier string) { cacheResults.WithLabelValues(tier, "miss").Inc() }

func AddCacheHits(tier string, n int) {
	if n > 0 {
		cacheResults.WithLabelValues(tier, "hit").Add(float64(n))
	}
}

func AddCacheMisses(tier string, n int) {
	if n > 0 {
		cacheResults.WithLabelValues(tier, "miss").Add(float64(n))
	}
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func SetCacheGeneration(gen uint64) { cacheGeneration.Set(float64(gen)) }

// IncInvalidation counts an event as "applied", "duplicate", "invalid" or "error".
func IncInvalidation(result string) { invalidationEvents.WithLabelValues(result).Inc() }

func SetNameMapEntries(n int) { nameMapEntries.Set(float64(n)) }

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
