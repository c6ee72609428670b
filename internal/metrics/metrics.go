package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vehicleids/internal/attack"
	"vehicleids/pkg/models"
)

const namespace = "vehicleids"

// Registry holds every collector exported by the simulator.
type Registry struct {
	registry *prometheus.Registry

	TicksTotal       prometheus.Counter
	AlertsTotal      *prometheus.CounterVec
	RuleHitsTotal    *prometheus.CounterVec
	AnomalyScore     prometheus.Gauge
	AnomalousSignals prometheus.Gauge
	AttackActive     prometheus.Gauge
	AttackMode       *prometheus.GaugeVec
	ModeChangesTotal prometheus.Counter

	SinkDroppedTotal prometheus.Counter
	SinkErrorsTotal  *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with engine, sink, HTTP and Go runtime collectors.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.initEngineMetrics()
	r.initSinkMetrics()
	r.initHTTPMetrics()
	r.setMode(attack.None)
	return r
}

func (r *Registry) initEngineMetrics() {
	factory := promauto.With(r.registry)

	r.TicksTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Telemetry ticks generated",
	})
	r.AlertsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_total",
		Help:      "Security alerts emitted, by level and source",
	}, []string{"level", "source"})
	r.RuleHitsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_hits_total",
		Help:      "Detection rule firings, by rule id",
	}, []string{"rule"})
	r.AnomalyScore = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "can_anomaly_score",
		Help:      "Anomaly score of the latest tick",
	})
	r.AnomalousSignals = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "anomalous_signals",
		Help:      "Decoded signals outside their normal range in the latest tick",
	})
	r.AttackActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "attack_active",
		Help:      "1 when the latest tick reported an active attack",
	})
	r.AttackMode = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "attack_mode",
		Help:      "Active operator attack mode (one-hot)",
	}, []string{"mode"})
	r.ModeChangesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attack_mode_commands_total",
		Help:      "Accepted attack mode commands",
	})
}

func (r *Registry) initSinkMetrics() {
	factory := promauto.With(r.registry)

	r.SinkDroppedTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_dropped_total",
		Help:      "Snapshots dropped because the sink queue was full",
	})
	r.SinkErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_errors_total",
		Help:      "Failed sink batch deliveries, by writer",
	}, []string{"writer"})
}

func (r *Registry) initHTTPMetrics() {
	factory := promauto.With(r.registry)

	r.HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served",
	}, []string{"method", "path", "status"})
	r.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
}

// ObserveTick records the outcome of one tick.
func (r *Registry) ObserveTick(snap *models.Snapshot, fired []string) {
	if snap == nil {
		return
	}
	r.TicksTotal.Inc()
	for _, alert := range snap.SecurityAlerts {
		r.AlertsTotal.WithLabelValues(string(alert.Level), alert.Source).Inc()
	}
	for _, rule := range fired {
		r.RuleHitsTotal.WithLabelValues(rule).Inc()
	}
	r.AnomalyScore.Set(snap.CANAnomalyScore)
	r.AnomalousSignals.Set(float64(snap.AnomalyCount()))
	if snap.AttackActive {
		r.AttackActive.Set(1)
	} else {
		r.AttackActive.Set(0)
	}
}

// ObserveMode records an accepted attack mode command.
func (r *Registry) ObserveMode(mode attack.Mode) {
	r.ModeChangesTotal.Inc()
	r.setMode(mode)
}

func (r *Registry) setMode(active attack.Mode) {
	r.AttackMode.WithLabelValues(attack.None.String()).Set(boolGauge(active == attack.None))
	for _, m := range attack.Modes() {
		r.AttackMode.WithLabelValues(string(m)).Set(boolGauge(m == active))
	}
}

// SnapshotDropped counts a snapshot the dispatcher could not enqueue.
func (r *Registry) SnapshotDropped() {
	r.SinkDroppedTotal.Inc()
}

// SinkWriteFailed counts a failed batch delivery to writer.
func (r *Registry) SinkWriteFailed(writer string) {
	r.SinkErrorsTotal.WithLabelValues(writer).Inc()
}

// RecordHTTPRequest records one served request.
func (r *Registry) RecordHTTPRequest(method, path, status string, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Middleware records every request handled by a gin engine. Unmatched
// routes are labelled by a fixed placeholder to bound label cardinality.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		r.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer returns the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
