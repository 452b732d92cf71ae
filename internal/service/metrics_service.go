package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a point-in-time summary of the process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	TimetablesGenerated      uint64    `json:"timetables_generated"`
	SeatsAllocated           uint64    `json:"seats_allocated"`
	MailsSent                uint64    `json:"mails_sent"`
	MailsFailed              uint64    `json:"mails_failed"`
	CodeRuns                 uint64    `json:"code_runs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService owns the Prometheus registry for HTTP, cache and domain counters.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	timetables    *prometheus.CounterVec
	allocations   *prometheus.CounterVec
	seats         prometheus.Counter
	mails         *prometheus.CounterVec
	codeRuns      *prometheus.CounterVec
	codeRunTime   prometheus.Observer
	authAttempts  *prometheus.CounterVec
	testsFinished *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	timetableCount       uint64
	seatCount            uint64
	mailSentCount        uint64
	mailFailedCount      uint64
	codeRunCount         uint64
}

// NewMetricsService registers all collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		timetables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetables_generated_total",
			Help: "Timetables generated, by fill mode",
		}, []string{"mode"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seat_allocations_total",
			Help: "Seat allocation runs, by outcome",
		}, []string{"outcome"}),
		seats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seats_allocated_total",
			Help: "Seats assigned across all successful allocations",
		}),
		mails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_deliveries_total",
			Help: "Outbound mail deliveries, by status",
		}, []string{"status"}),
		codeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "code_runs_total",
			Help: "Code executions proxied to the runner",
		}, []string{"language", "outcome"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Sign-in attempts, by method and outcome",
		}, []string{"method", "outcome"}),
		testsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coding_tests_finished_total",
			Help: "Coding test sessions that stopped accepting answers, by reason",
		}, []string{"reason"}),
	}

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})
	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})
	codeRunTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "code_run_duration_seconds",
		Help:    "Round trip time of code runner requests",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	})
	m.cacheLatency, m.cacheWrite, m.codeRunTime = cacheLatency, cacheWrite, codeRunTime

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, cacheLatency, cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.timetables, m.allocations, m.seats, m.mails, m.codeRuns, codeRunTime, m.authAttempts, m.testsFinished,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTimetable counts a generated timetable.
func (m *MetricsService) RecordTimetable(randomized bool) {
	if m == nil {
		return
	}
	mode := "deterministic"
	if randomized {
		mode = "randomized"
	}
	m.timetables.WithLabelValues(mode).Inc()
	atomic.AddUint64(&m.timetableCount, 1)
}

// RecordAllocation counts an allocation run; seats is only added on success.
func (m *MetricsService) RecordAllocation(outcome string, seats int) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(outcome).Inc()
	if outcome == "ok" && seats > 0 {
		m.seats.Add(float64(seats))
		atomic.AddUint64(&m.seatCount, uint64(seats))
	}
}

// RecordMail counts a delivery attempt result.
func (m *MetricsService) RecordMail(sent bool) {
	if m == nil {
		return
	}
	if sent {
		m.mails.WithLabelValues("sent").Inc()
		atomic.AddUint64(&m.mailSentCount, 1)
		return
	}
	m.mails.WithLabelValues("failed").Inc()
	atomic.AddUint64(&m.mailFailedCount, 1)
}

// RecordCodeRun counts a runner call and its latency.
func (m *MetricsService) RecordCodeRun(language string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.codeRuns.WithLabelValues(language, outcome).Inc()
	m.codeRunTime.Observe(duration.Seconds())
	atomic.AddUint64(&m.codeRunCount, 1)
}

// RecordAuth counts a sign-in attempt.
func (m *MetricsService) RecordAuth(method string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.authAttempts.WithLabelValues(method, outcome).Inc()
}

// RecordTestFinished counts a coding test that stopped accepting answers.
func (m *MetricsService) RecordTestFinished(reason string) {
	if m == nil {
		return
	}
	m.testsFinished.WithLabelValues(reason).Inc()
}

// Snapshot returns aggregated counters for the metrics API.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{GeneratedAt: time.Now().UTC()}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            ratio,
		TimetablesGenerated:      atomic.LoadUint64(&m.timetableCount),
		SeatsAllocated:           atomic.LoadUint64(&m.seatCount),
		MailsSent:                atomic.LoadUint64(&m.mailSentCount),
		MailsFailed:              atomic.LoadUint64(&m.mailFailedCount),
		CodeRuns:                 atomic.LoadUint64(&m.codeRunCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
