// Package metrics keeps process-local counters and renders them in
// Prometheus exposition format for the /metrics endpoint.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type counter struct {
	mu    sync.Mutex
	value uint64
}

func newCounter() *counter { return &counter{} }

func (c *counter) inc() {
	c.mu.Lock()
	c.value++
	c.mu.Unlock()
}

func (c *counter) snapshot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

type counterVec struct {
	mu     sync.RWMutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (c *counterVec) inc(label string) {
	c.mu.Lock()
	c.values[label]++
	c.mu.Unlock()
}

func (c *counterVec) snapshot() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.RWMutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(edges []float64) *histogram {
	sorted := append([]float64(nil), edges...)
	sort.Float64s(sorted)
	return &histogram{buckets: sorted, counts: make([]uint64, len(sorted))}
}

// observe records v into the first bucket whose upper edge covers it;
// cumulative totals are computed at render time.
func (h *histogram) observe(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if v < 0 {
		v = 0
	}
	h.mu.Lock()
	for i, upper := range h.buckets {
		if v <= upper {
			h.counts[i]++
			break
		}
	}
	h.count++
	h.sum += v
	h.mu.Unlock()
}

func (h *histogram) snapshot() (buckets []float64, counts []uint64, sum float64, count uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	buckets = append([]float64(nil), h.buckets...)
	counts = append([]uint64(nil), h.counts...)
	sum = h.sum
	count = h.count
	return
}

var (
	evaluationsTotal   = newCounter()
	evaluationStatuses = newCounterVec()
	readingsConsumed   = newCounter()
	readingDecodeDrops = newCounterVec()
	commandsPublished  = newCounter()
	historyWrites      = newCounter()
	narrationFallbacks = newCounter()
	evalDurations      = newHistogram([]float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05})
	analyzeRequests    = newCounterVec()
	analyzeLatencies   = newHistogram([]float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 60})
)

// Drop reason identifiers shared with the ingest paths.
const (
	DropReasonJSONError  = "json_error"
	DropReasonEmptyRoom  = "empty_room_id"
	DropReasonStaleFetch = "stale_fetch"
)

// IncEvaluation records one completed evaluation and its resulting comfort
// status label.
func IncEvaluation(status string) {
	evaluationsTotal.inc()
	if strings.TrimSpace(status) == "" {
		status = "unknown"
	}
	evaluationStatuses.inc(status)
}

// IncReadingConsumed counts sensor readings accepted from Kafka or MQTT.
func IncReadingConsumed() {
	readingsConsumed.inc()
}

// IncReadingDrop classifies readings that could not be decoded or attributed
// to a room.
func IncReadingDrop(reason string) {
	if strings.TrimSpace(reason) == "" {
		reason = "unknown"
	}
	readingDecodeDrops.inc(reason)
}

// IncCommandPublished counts AC control commands written to the command topic.
func IncCommandPublished() {
	commandsPublished.inc()
}

// IncHistoryWrite counts evaluation records persisted to the history store.
func IncHistoryWrite() {
	historyWrites.inc()
}

// IncNarrationFallback counts narration requests that fell back to template
// text because the language model was unreachable or returned garbage.
func IncNarrationFallback() {
	narrationFallbacks.inc()
}

// ObserveEvaluation records the duration of one rule-engine evaluation.
func ObserveEvaluation(duration time.Duration) {
	evalDurations.observe(duration.Seconds())
}

// ObserveAnalyzeRequest stores the status distribution and latency of
// /analyze HTTP calls. Latency includes narration, so the buckets reach into
// language-model territory.
func ObserveAnalyzeRequest(status int, duration time.Duration) {
	analyzeRequests.inc(strconv.Itoa(status))
	analyzeLatencies.observe(duration.Seconds())
}

// Render exports all registered metrics in Prometheus exposition format.
func Render() string {
	var b strings.Builder

	writeMetricHeader(&b, "comfort_evaluations_total", "counter")
	writeSimpleCounter(&b, "comfort_evaluations_total", evaluationsTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_evaluation_status_total", "counter")
	writeCounter(&b, "comfort_evaluation_status_total", "status", evaluationStatuses.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_readings_consumed_total", "counter")
	writeSimpleCounter(&b, "comfort_readings_consumed_total", readingsConsumed.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_reading_drop_total", "counter")
	writeCounter(&b, "comfort_reading_drop_total", "reason", readingDecodeDrops.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_commands_published_total", "counter")
	writeSimpleCounter(&b, "comfort_commands_published_total", commandsPublished.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_history_writes_total", "counter")
	writeSimpleCounter(&b, "comfort_history_writes_total", historyWrites.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_narration_fallbacks_total", "counter")
	writeSimpleCounter(&b, "comfort_narration_fallbacks_total", narrationFallbacks.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_evaluation_duration_seconds", "histogram")
	writeHistogram(&b, "comfort_evaluation_duration_seconds", evalDurations)
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_analyze_requests_total", "counter")
	writeCounter(&b, "comfort_analyze_requests_total", "status", analyzeRequests.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "comfort_analyze_request_duration_seconds", "histogram")
	writeHistogram(&b, "comfort_analyze_request_duration_seconds", analyzeLatencies)
	b.WriteByte('\n')

	return b.String()
}

func writeMetricHeader(b *strings.Builder, name, typ string) {
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(typ)
	b.WriteByte('\n')
}

func writeSimpleCounter(b *strings.Builder, name string, value uint64) {
	fmt.Fprintf(b, "%s{} %d\n", name, value)
}

func writeCounter(b *strings.Builder, name, label string, values map[string]uint64) {
	if len(values) == 0 {
		fmt.Fprintf(b, "%s{} %d\n", name, 0)
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, "%s{%s=\"%s\"} %d\n", name, label, escapeLabel(key), values[key])
	}
}

func writeHistogram(b *strings.Builder, name string, h *histogram) {
	buckets, counts, sum, count := h.snapshot()
	if len(buckets) == 0 {
		fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"} %d\n", name, count)
		fmt.Fprintf(b, "%s_sum %f\n", name, sum)
		fmt.Fprintf(b, "%s_count %d\n", name, count)
		return
	}
	var cumulative uint64
	for i, upper := range buckets {
		cumulative += counts[i]
		fmt.Fprintf(b, "%s_bucket{le=\"%g\"} %d\n", name, upper, cumulative)
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"} %d\n", name, count)
	fmt.Fprintf(b, "%s_sum %f\n", name, sum)
	fmt.Fprintf(b, "%s_count %d\n", name, count)
}

func escapeLabel(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\"", "\\\"")
	return replacer.Replace(v)
}
