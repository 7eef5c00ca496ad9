package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	uploadsTotal             atomic.Uint64
	uploadFailedTotal        atomic.Uint64
	extractionAttemptedTotal atomic.Uint64
	extractionFailedTotal    atomic.Uint64
	orphanedBlobTotal        atomic.Uint64
	storeInconsistencyTotal  atomic.Uint64

	uploadDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
)

// IncUploads increments the successful upload counter.
func IncUploads() {
	uploadsTotal.Add(1)
}

// IncUploadFailed increments the failed upload counter.
func IncUploadFailed() {
	uploadFailedTotal.Add(1)
}

// IncExtractionAttempted increments the PDF extraction attempt counter.
func IncExtractionAttempted() {
	extractionAttemptedTotal.Add(1)
}

// IncExtractionFailed increments the PDF extraction failure counter.
func IncExtractionFailed() {
	extractionFailedTotal.Add(1)
}

// IncOrphanedBlob counts blobs written without a metadata record.
func IncOrphanedBlob() {
	orphanedBlobTotal.Add(1)
}

// IncStoreInconsistency counts records whose blob could not be found.
func IncStoreInconsistency() {
	storeInconsistencyTotal.Add(1)
}

// ObserveUploadDurationMs records an upload duration in milliseconds.
func ObserveUploadDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	uploadDuration.Observe(value)
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
	writeCounter(&buf, "uploads_total", "Total uploads completed", uploadsTotal.Load())
	writeCounter(&buf, "upload_failed_total", "Total uploads failed", uploadFailedTotal.Load())
	writeCounter(&buf, "extraction_attempted_total", "Total PDF text extractions attempted", extractionAttemptedTotal.Load())
	writeCounter(&buf, "extraction_failed_total", "Total PDF text extractions failed", extractionFailedTotal.Load())
	writeCounter(&buf, "orphaned_blob_total", "Blobs written without a metadata record", orphanedBlobTotal.Load())
	writeCounter(&buf, "store_inconsistency_total", "Metadata records whose blob was missing", storeInconsistencyTotal.Load())
	writeHistogram(&buf, "upload_duration_ms", "Upload duration in milliseconds", uploadDuration.Snapshot())
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
	// Observe already counts a value in every bucket whose bound covers it.
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), snap.counts[i])
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
