package diag

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// 进程级指标，注册于私有 registry（不污染全局 DefaultRegisterer）：
// - linepair_op_total{comp,stage,result}
// - linepair_error_total{comp,code}
// - linepair_op_duration_ms{comp,stage}
// - linepair_lines_read_total{source}
// - linepair_scans_total{source}
const metricsNamespace = "linepair"

var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "op_total",
			Help:      "Operations by component, stage and result",
		},
		[]string{"comp", "stage", "result"},
	)
	errorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "error_total",
			Help:      "Errors by component and classified code",
		},
		[]string{"comp", "code"},
	)
	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "op_duration_ms",
			Help:      "Stage duration in milliseconds",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"comp", "stage"},
	)
	linesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lines_read_total",
			Help:      "Raw lines read across all scans of a source",
		},
		[]string{"source"},
	)
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scans_total",
			Help:      "Full traversals started over a source",
		},
		[]string{"source"},
	)
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration, linesRead, scansTotal)
}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数；unknown 与空码不计。
func IncError(comp, code string) {
	if code == "" || code == string(CodeUnknown) {
		return
	}
	errorTotal.WithLabelValues(comp, code).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// AddLines 累加某源的读行数。
func AddLines(source string, n int64) {
	if n > 0 {
		linesRead.WithLabelValues(source).Add(float64(n))
	}
}

// AddScans 累加某源的遍历次数。
func AddScans(source string, n int64) {
	if n > 0 {
		scansTotal.WithLabelValues(source).Add(float64(n))
	}
}

// WriteMetrics 以 Prometheus 文本格式写出全部指标（node_exporter textfile 收集器可读）。
// path 为空时不写。
func WriteMetrics(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, registry)
}
