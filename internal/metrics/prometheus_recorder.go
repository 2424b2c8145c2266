package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "repoctx"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	runDuration   *prom.HistogramVec
	runOutcomes   *prom.CounterVec
	stageDuration *prom.HistogramVec
	files         *prom.CounterVec
	documentBytes prom.Counter
}

// NewPrometheusRecorder constructs the run metrics and registers them with registry.
// A nil registry gets a private one.
func NewPrometheusRecorder(registry *prom.Registry) *PrometheusRecorder {
	if registry == nil {
		registry = prom.NewRegistry()
	}
	recorder := &PrometheusRecorder{
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "export_duration_seconds",
			Help:      "Duration of export runs by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exports_total",
			Help:      "Export runs by outcome and error kind",
		}, []string{"outcome", "kind"}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "export_stage_duration_seconds",
			Help:      "Duration of individual export stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		files: prom.NewCounterVec(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "export_files_total",
			Help:      "Files listed, selected and resolved across export runs",
		}, []string{"population"}),
		documentBytes: prom.NewCounter(prom.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "export_document_bytes_total",
			Help:      "Bytes of assembled documents",
		}),
	}
	registry.MustRegister(recorder.runDuration, recorder.runOutcomes, recorder.stageDuration, recorder.files, recorder.documentBytes)
	return recorder
}

func (recorder *PrometheusRecorder) ObserveRun(outcome Outcome, kind string, duration time.Duration) {
	if recorder == nil {
		return
	}
	recorder.runDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	recorder.runOutcomes.WithLabelValues(string(outcome), kind).Inc()
}

func (recorder *PrometheusRecorder) ObserveStage(stage Stage, duration time.Duration) {
	if recorder == nil {
		return
	}
	recorder.stageDuration.WithLabelValues(string(stage)).Observe(duration.Seconds())
}

func (recorder *PrometheusRecorder) AddFiles(population FileCount, count int) {
	if recorder == nil || count <= 0 {
		return
	}
	recorder.files.WithLabelValues(string(population)).Add(float64(count))
}

func (recorder *PrometheusRecorder) AddDocumentBytes(count int) {
	if recorder == nil || count <= 0 {
		return
	}
	recorder.documentBytes.Add(float64(count))
}

// HTTPHandler serves the metrics gathered by gatherer.
func HTTPHandler(gatherer prom.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
var _ Recorder = NoopRecorder{}
