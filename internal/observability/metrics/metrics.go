package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "station_"

	resultSuccess   = "success"
	resultError     = "error"
	resultDuplicate = "duplicate"
	resultInvalid   = "invalid"
)

var (
	registerOnce sync.Once

	shiftCloseTotal   *prometheus.CounterVec
	shiftCloseLatency *prometheus.HistogramVec

	draftOpsTotal *prometheus.CounterVec

	historyQueryTotal   *prometheus.CounterVec
	historyQueryLatency *prometheus.HistogramVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec
)

// Init registers shift metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		shiftCloseTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "shift_close_total",
				Help: "Total shift close attempts by result",
			},
			[]string{"result"},
		)
		shiftCloseLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "shift_close_latency_seconds",
				Help:    "Shift close latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		draftOpsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "draft_operations_total",
				Help: "Total draft save/load/clear operations by result",
			},
			[]string{"op", "result"},
		)

		historyQueryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_query_total",
				Help: "Total history queries by kind and result",
			},
			[]string{"query", "result"},
		)
		historyQueryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "history_query_latency_seconds",
				Help:    "History query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"query", "result"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total shift report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Shift report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			shiftCloseTotal,
			shiftCloseLatency,
			draftOpsTotal,
			historyQueryTotal,
			historyQueryLatency,
			reportExportTotal,
			reportExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveShiftClose records close latency and result.
func ObserveShiftClose(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if shiftCloseTotal != nil {
		shiftCloseTotal.WithLabelValues(result).Inc()
	}
	if shiftCloseLatency != nil {
		shiftCloseLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncDraftOp counts a draft operation.
func IncDraftOp(op, result string) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if draftOpsTotal != nil {
		draftOpsTotal.WithLabelValues(op, result).Inc()
	}
}

// ObserveHistoryQuery records history query latency and result.
func ObserveHistoryQuery(query, result string, duration time.Duration) {
	if query == "" {
		query = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if historyQueryTotal != nil {
		historyQueryTotal.WithLabelValues(query, result).Inc()
	}
	if historyQueryLatency != nil {
		historyQueryLatency.WithLabelValues(query, result).Observe(duration.Seconds())
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess   = resultSuccess
	ResultError     = resultError
	ResultDuplicate = resultDuplicate
	ResultInvalid   = resultInvalid

	DraftOpSave  = "save"
	DraftOpLoad  = "load"
	DraftOpClear = "clear"
)
