package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/neurobridge-grading/internal/platform/envutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec
	llmTokens   *CounterVec

	gradingOutcomes *CounterVec
	gradingLatency  *HistogramVec
	batchItems      *CounterVec
	masteryRecords  *CounterVec

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry when METRICS_ENABLED is set; otherwise it returns nil.
// Every method tolerates a nil receiver.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// NewMetrics returns an unregistered registry; tests use it directly.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	llmBuckets := []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120}
	return &Metrics{
		apiRequests: NewCounterVec("nbg_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("nbg_api_request_duration_seconds", "API request latency in seconds.", []string{"method", "route", "status"}, latencyBuckets),
		apiInflight: NewGauge("nbg_api_inflight_requests", "In-flight API requests."),

		llmRequests: NewCounterVec("nbg_llm_requests_total", "Generator requests by model/endpoint/status.", []string{"model", "endpoint", "status"}),
		llmLatency:  NewHistogramVec("nbg_llm_request_duration_seconds", "Generator request latency in seconds.", []string{"model", "endpoint", "status"}, llmBuckets),
		llmTokens:   NewCounterVec("nbg_llm_tokens_total", "Generator tokens by model/kind.", []string{"model", "kind"}),

		gradingOutcomes: NewCounterVec("nbg_grading_outcomes_total", "Grading attempts by mode/outcome.", []string{"mode", "outcome"}),
		gradingLatency:  NewHistogramVec("nbg_grading_duration_seconds", "End-to-end grading latency in seconds.", []string{"mode", "outcome"}, llmBuckets),
		batchItems:      NewCounterVec("nbg_batch_items_total", "Batch items by terminal status.", []string{"status"}),
		masteryRecords:  NewCounterVec("nbg_mastery_records_total", "Mastery records appended by level.", []string{"level"}),

		aggregateOps:       NewCounterVec("nbg_aggregate_operations_total", "Aggregate writes by operation/status.", []string{"op", "status"}),
		aggregateLatency:   NewHistogramVec("nbg_aggregate_operation_duration_seconds", "Aggregate write latency in seconds.", []string{"op", "status"}, latencyBuckets),
		aggregateConflicts: NewCounterVec("nbg_aggregate_conflicts_total", "Aggregate compare-and-swap conflicts.", []string{"op"}),
		aggregateRetries:   NewCounterVec("nbg_aggregate_retries_total", "Aggregate retryable failures.", []string{"op"}),
	}
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.gradingOutcomes, m.gradingLatency, m.batchItems, m.masteryRecords,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = orDefault(method, "UNKNOWN"), orDefault(route, "unknown"), orDefault(status, "0")
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model, endpoint, status = orDefault(model, "unknown"), orDefault(endpoint, "unknown"), orDefault(status, "0")
	m.llmRequests.Inc(model, endpoint, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, endpoint, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

// ObserveGrading records one orchestrator run. mode is "single" or "batch".
func (m *Metrics) ObserveGrading(mode, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	mode, outcome = orDefault(mode, "single"), orDefault(outcome, "unknown")
	m.gradingOutcomes.Inc(mode, outcome)
	m.gradingLatency.Observe(dur.Seconds(), mode, outcome)
}

func (m *Metrics) GradingOutcomes(mode, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.gradingOutcomes.Value(mode, outcome)
}

func (m *Metrics) IncBatchItem(status string) {
	if m == nil {
		return
	}
	m.batchItems.Inc(orDefault(status, "unknown"))
}

func (m *Metrics) AddMasteryRecord(level string) {
	if m == nil {
		return
	}
	m.masteryRecords.Inc(orDefault(level, "unknown"))
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op, status = orDefault(op, "aggregate.write"), orDefault(status, "unknown")
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(orDefault(op, "aggregate.write"))
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(orDefault(op, "aggregate.write"))
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
