package diag

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// 指标（进程内私有 Registry，可选导出为 textfile）：
// - icongen_op_total{comp,stage,result}
// - icongen_errors_total{comp,code}
// - icongen_op_duration_ms{comp,stage}
// - icongen_macros_total{source}
// - icongen_skipped_lines_total{source}

var (
	metricsMu sync.RWMutex
	reg       *prometheus.Registry
	opTotal   *prometheus.CounterVec
	errTotal  *prometheus.CounterVec
	opDur     *prometheus.HistogramVec
	macros    *prometheus.CounterVec
	skipped   *prometheus.CounterVec
)

func init() { ResetMetrics() }

// ResetMetrics 重建 Registry 与全部指标（测试与一次性运行使用）。
func ResetMetrics() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	reg = prometheus.NewRegistry()
	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icongen_op_total",
		Help: "Pipeline stage operations by result.",
	}, []string{"comp", "stage", "result"})
	errTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icongen_errors_total",
		Help: "Errors by component and classification code.",
	}, []string{"comp", "code"})
	opDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "icongen_op_duration_ms",
		Help:    "Stage duration in milliseconds.",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"comp", "stage"})
	macros = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icongen_macros_total",
		Help: "Macro names extracted per source file.",
	}, []string{"source"})
	skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "icongen_skipped_lines_total",
		Help: "Malformed lines skipped per source file.",
	}, []string{"source"})
	reg.MustRegister(opTotal, errTotal, opDur, macros, skipped)
}

// Registry 返回当前 Registry（供导出或测试 Gather）。
func Registry() *prometheus.Registry {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return reg
}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	errTotal.WithLabelValues(comp, code).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	opDur.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// AddExtracted 记录单个源文件的提取结果。
func AddExtracted(source string, n, skippedLines int) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	macros.WithLabelValues(source).Add(float64(n))
	skipped.WithLabelValues(source).Add(float64(skippedLines))
}

// WriteTextfile 以 node_exporter textfile 格式写出全部指标。
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry())
}
