package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ingestStartedTotal   atomic.Uint64
	ingestCompletedTotal atomic.Uint64
	ingestFailedTotal    atomic.Uint64
	askTotal             atomic.Uint64
	askFailedTotal       atomic.Uint64
	summaryTotal         atomic.Uint64
	summaryFailedTotal   atomic.Uint64
	quotaRejectedTotal   atomic.Uint64
	refundFailedTotal    atomic.Uint64

	ingestJobsReceivedTotal      atomic.Uint64
	ingestJobsCompletedTotal     atomic.Uint64
	ingestJobsFailedTotal        atomic.Uint64
	ingestJobsUnrecoverableTotal atomic.Uint64

	ingestDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	askDuration    = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncIngestStarted increments the ingestion started counter.
func IncIngestStarted() {
	ingestStartedTotal.Add(1)
}

// IncIngestCompleted increments the ingestion completed counter.
func IncIngestCompleted() {
	ingestCompletedTotal.Add(1)
}

// IncIngestFailed increments the ingestion failed counter.
func IncIngestFailed() {
	ingestFailedTotal.Add(1)
}

// IncAsk increments the answered-question counter.
func IncAsk() {
	askTotal.Add(1)
}

// IncAskFailed increments the failed-question counter.
func IncAskFailed() {
	askFailedTotal.Add(1)
}

// IncSummary increments the generated-summary counter.
func IncSummary() {
	summaryTotal.Add(1)
}

// IncSummaryFailed increments the failed-summary counter.
func IncSummaryFailed() {
	summaryFailedTotal.Add(1)
}

// IncQuotaRejected increments the counter for requests refused on balance.
func IncQuotaRejected() {
	quotaRejectedTotal.Add(1)
}

// IncRefundFailed counts refunds that failed to restore a balance,
// leaving a user charged for a failed operation.
func IncRefundFailed() {
	refundFailedTotal.Add(1)
}

// IncIngestJobsReceived increments the queue jobs received counter.
func IncIngestJobsReceived() {
	ingestJobsReceivedTotal.Add(1)
}

// IncIngestJobsCompleted increments the queue jobs completed counter.
func IncIngestJobsCompleted() {
	ingestJobsCompletedTotal.Add(1)
}

// IncIngestJobsFailed increments the queue jobs failed counter.
func IncIngestJobsFailed() {
	ingestJobsFailedTotal.Add(1)
}

// IncIngestJobsDeletedUnrecoverable counts malformed jobs deleted
// without processing.
func IncIngestJobsDeletedUnrecoverable() {
	ingestJobsUnrecoverableTotal.Add(1)
}

// ObserveIngestDurationMs records an ingestion duration in milliseconds.
func ObserveIngestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestDuration.Observe(value)
}

// ObserveAskDurationMs records a question round-trip duration in milliseconds.
func ObserveAskDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	askDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "ingest_started_total", "Total document ingestions started", ingestStartedTotal.Load())
	writeCounter(&buf, "ingest_completed_total", "Total document ingestions completed", ingestCompletedTotal.Load())
	writeCounter(&buf, "ingest_failed_total", "Total document ingestions failed", ingestFailedTotal.Load())
	writeCounter(&buf, "ask_total", "Total questions answered", askTotal.Load())
	writeCounter(&buf, "ask_failed_total", "Total questions failed", askFailedTotal.Load())
	writeCounter(&buf, "summary_total", "Total summaries generated", summaryTotal.Load())
	writeCounter(&buf, "summary_failed_total", "Total summaries failed", summaryFailedTotal.Load())
	writeCounter(&buf, "quota_rejected_total", "Total requests refused for insufficient balance", quotaRejectedTotal.Load())
	writeCounter(&buf, "refund_failed_total", "Total quota refunds that failed", refundFailedTotal.Load())
	writeCounter(&buf, "ingest_jobs_received_total", "Total ingest queue jobs received", ingestJobsReceivedTotal.Load())
	writeCounter(&buf, "ingest_jobs_completed_total", "Total ingest queue jobs completed", ingestJobsCompletedTotal.Load())
	writeCounter(&buf, "ingest_jobs_failed_total", "Total ingest queue jobs failed", ingestJobsFailedTotal.Load())
	writeCounter(&buf, "ingest_jobs_deleted_unrecoverable_total", "Total malformed ingest jobs deleted", ingestJobsUnrecoverableTotal.Load())
	writeHistogram(&buf, "ingest_duration_ms", "Document ingestion duration in milliseconds", ingestDuration.Snapshot())
	writeHistogram(&buf, "ask_duration_ms", "Question round-trip duration in milliseconds", askDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
