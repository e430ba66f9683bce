package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

const namespace = "texluacats_manager"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	runDuration   *prom.HistogramVec
	runResults    *prom.CounterVec
	lastRun       *prom.GaugeVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg,
// or with a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the stages of a subproject",
			Buckets:   prom.DefBuckets,
		}, []string{"subproject", "stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"subproject", "stage", "result"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total duration of a command run",
			Buckets:   prom.DefBuckets,
		}, []string{"command"}),
		runResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_results_total",
			Help:      "Command run counts by outcome",
		}, []string{"command", "result"}),
		lastRun: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run of a command",
		}, []string{"command"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runResults, pr.lastRun)
	return pr
}

// Registry returns the registry holding the metrics.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStage(subproject, stage string, d time.Duration, err error) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(subproject, stage).Observe(d.Seconds())
	p.stageResults.WithLabelValues(subproject, stage, string(ResultFor(err))).Inc()
}

func (p *PrometheusRecorder) ObserveRun(command string, d time.Duration, err error) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(command).Observe(d.Seconds())
	p.runResults.WithLabelValues(command, string(ResultFor(err))).Inc()
	p.lastRun.WithLabelValues(command).SetToCurrentTime()
}

// WriteTextfile writes the metrics in the text exposition format used by
// the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return derrors.IOFailed("write metrics", path, err)
	}
	return nil
}
