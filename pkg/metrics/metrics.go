package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 流水线Prometheus指标. 所有方法允许nil接收者, 未启用指标时直接忽略
type Collector struct {
	registry *prometheus.Registry

	batchesPlanned      *prometheus.CounterVec
	batchesLaunched     *prometheus.CounterVec
	batchLaunchFailures *prometheus.CounterVec
	batchesCompleted    *prometheus.CounterVec
	callbacks           *prometheus.CounterVec
	duplicates          *prometheus.CounterVec
	coursePublished     prometheus.Counter
	courseReverted      prometheus.Counter
	batchesInFlight     *prometheus.GaugeVec
	launchLatency       *prometheus.HistogramVec
}

// NewCollector 使用独立registry, 测试中可重复创建
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		batchesPlanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_batches_planned_total",
			Help: "Number of batches created by the planner",
		}, []string{"kind"}),
		batchesLaunched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_batches_launched_total",
			Help: "Number of batches accepted by the compute service",
		}, []string{"kind"}),
		batchLaunchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_batch_launch_failures_total",
			Help: "Number of batch launches rejected or failed",
		}, []string{"kind"}),
		batchesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_batches_completed_total",
			Help: "Number of batches whose items were all reported",
		}, []string{"kind"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_item_callbacks_total",
			Help: "Counted item callbacks by kind and outcome",
		}, []string{"kind", "outcome"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_duplicate_callbacks_total",
			Help: "Item callbacks suppressed as duplicates",
		}, []string{"kind"}),
		coursePublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_courses_published_total",
			Help: "Courses moved to published",
		}),
		courseReverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_courses_reverted_total",
			Help: "Courses moved back to draft at finalization",
		}),
		batchesInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_batches_in_flight",
			Help: "Batches currently processing",
		}, []string{"kind"}),
		launchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_launch_latency_seconds",
			Help:    "Latency of compute launch calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
	}

	c.registry.MustRegister(
		c.batchesPlanned,
		c.batchesLaunched,
		c.batchLaunchFailures,
		c.batchesCompleted,
		c.callbacks,
		c.duplicates,
		c.coursePublished,
		c.courseReverted,
		c.batchesInFlight,
		c.launchLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry 暴露给测试读取指标
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler /metrics
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) BatchesPlanned(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.batchesPlanned.WithLabelValues(kind).Add(float64(n))
}

func (c *Collector) BatchLaunched(kind string, seconds float64) {
	if c == nil {
		return
	}
	c.batchesLaunched.WithLabelValues(kind).Inc()
	c.batchesInFlight.WithLabelValues(kind).Inc()
	c.launchLatency.WithLabelValues(kind).Observe(seconds)
}

func (c *Collector) BatchLaunchFailed(kind string, seconds float64) {
	if c == nil {
		return
	}
	c.batchLaunchFailures.WithLabelValues(kind).Inc()
	c.launchLatency.WithLabelValues(kind).Observe(seconds)
}

func (c *Collector) BatchCompleted(kind string) {
	if c == nil {
		return
	}
	c.batchesCompleted.WithLabelValues(kind).Inc()
	c.batchesInFlight.WithLabelValues(kind).Dec()
}

func (c *Collector) CallbackCounted(kind, outcome string) {
	if c == nil {
		return
	}
	c.callbacks.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) DuplicateSuppressed(kind string) {
	if c == nil {
		return
	}
	c.duplicates.WithLabelValues(kind).Inc()
}

func (c *Collector) CoursePublished() {
	if c == nil {
		return
	}
	c.coursePublished.Inc()
}

func (c *Collector) CourseReverted() {
	if c == nil {
		return
	}
	c.courseReverted.Inc()
}
