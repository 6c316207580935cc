package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the agent harness.
type Metrics struct {
	registry      *prometheus.Registry
	TaskRuns      *prometheus.CounterVec
	TaskDuration  *prometheus.HistogramVec
	ModelCalls    *prometheus.CounterVec
	ModelDuration *prometheus.HistogramVec
	ModelTokens   *prometheus.CounterVec
	Dispatches    *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with agent collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sgragent_task_runs_total",
		Help: "Finished task runs by status and outcome",
	}, []string{"status", "outcome"})

	taskDurs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sgragent_task_duration_seconds",
		Help:    "Task run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"status"})

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sgragent_model_calls_total",
		Help: "Model completion calls by model and status",
	}, []string{"model", "status"})

	callDurs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sgragent_model_call_duration_seconds",
		Help:    "Model completion call duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sgragent_model_tokens_total",
		Help: "Tokens consumed by model and direction",
	}, []string{"model", "direction"})

	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sgragent_dispatches_total",
		Help: "Operation dispatches by tool and status",
	}, []string{"tool", "status"})

	reg.MustRegister(runs, taskDurs, calls, callDurs, tokens, dispatches)

	return &Metrics{
		registry:      reg,
		TaskRuns:      runs,
		TaskDuration:  taskDurs,
		ModelCalls:    calls,
		ModelDuration: callDurs,
		ModelTokens:   tokens,
		Dispatches:    dispatches,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordTask records a finished task run.
func (m *Metrics) RecordTask(status, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.TaskRuns.WithLabelValues(status, outcome).Inc()
	m.TaskDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordModelCall records one completion call with its token usage.
func (m *Metrics) RecordModelCall(model, status string, duration time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.ModelCalls.WithLabelValues(model, status).Inc()
	m.ModelDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.ModelTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	m.ModelTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

// RecordDispatch records a single operation dispatch.
func (m *Metrics) RecordDispatch(tool, status string) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.Dispatches.WithLabelValues(tool, status).Inc()
}
