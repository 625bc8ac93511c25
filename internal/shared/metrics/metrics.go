package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/store"
)

var durationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

// Registry holds the process counters and histograms.
type Registry struct {
	mu         sync.Mutex
	storeOps   map[string]uint64 // model|op|outcome
	storeTimes map[string]*histogram
	requests   map[string]uint64 // method|route|status
}

func NewRegistry() *Registry {
	return &Registry{
		storeOps:   make(map[string]uint64),
		storeTimes: make(map[string]*histogram),
		requests:   make(map[string]uint64),
	}
}

// Default is the registry served by Handler.
var Default = NewRegistry()

// outcome classifies a store error for the outcome label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrUniqueViolation), errors.Is(err, store.ErrForeignKeyViolation):
		return "conflict"
	case errors.Is(err, store.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// ObserveStore records one delegate operation.
func (r *Registry) ObserveStore(model, op string, d time.Duration, err error) {
	ms := float64(d.Microseconds()) / 1000.0
	r.mu.Lock()
	r.storeOps[model+"|"+op+"|"+outcome(err)]++
	h, ok := r.storeTimes[op]
	if !ok {
		h = newHistogram(durationBuckets)
		r.storeTimes[op] = h
	}
	r.mu.Unlock()
	h.Observe(ms)
}

// StoreObserver adapts the registry to the store client hook and logs each operation at debug.
func (r *Registry) StoreObserver() store.Observer {
	return func(model, op string, d time.Duration, err error) {
		r.ObserveStore(model, op, d, err)
		fields := map[string]any{
			"model":       model,
			"op":          op,
			"duration_ms": float64(d.Microseconds()) / 1000.0,
		}
		if err != nil {
			fields["err"] = err
		}
		telemetry.Debug("store.op", fields)
	}
}

// Middleware counts finished requests by route template.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := c.Request.Method + "|" + route + "|" + strconv.Itoa(c.Writer.Status())
		r.mu.Lock()
		r.requests[key]++
		r.mu.Unlock()
	}
}

// Handler exposes metrics in Prometheus text format.
func (r *Registry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, r.Render())
	}
}

// Render renders metrics in Prometheus text format.
func (r *Registry) Render() string {
	r.mu.Lock()
	ops := copyCounts(r.storeOps)
	reqs := copyCounts(r.requests)
	times := make(map[string]histogramSnapshot, len(r.storeTimes))
	for op, h := range r.storeTimes {
		times[op] = h.Snapshot()
	}
	r.mu.Unlock()

	var buf bytes.Buffer
	writeCounters(&buf, "store_operations_total", "Store delegate operations by outcome", []string{"model", "op", "outcome"}, ops)
	writeHistograms(&buf, "store_operation_duration_ms", "Store operation duration in milliseconds", times)
	writeCounters(&buf, "http_requests_total", "HTTP requests by route and status", []string{"method", "route", "status"}, reqs)
	return buf.String()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
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

// Observe adds value to the first bucket that holds it. Render accumulates.
func (h *histogram) Observe(value float64) {
	if value < 0 {
		value = 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func labels(names []string, key string) string {
	values := strings.Split(key, "|")
	parts := make([]string, 0, len(names))
	for i, n := range names {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", n, v))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeCounters(buf *bytes.Buffer, name, help string, labelNames []string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	for _, k := range sortedKeys(values) {
		fmt.Fprintf(buf, "%s%s %d\n", name, labels(labelNames, k), values[k])
	}
}

func writeHistograms(buf *bytes.Buffer, name, help string, snaps map[string]histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	for _, op := range sortedKeys(snaps) {
		snap := snaps[op]
		var cumulative uint64
		for i, bound := range snap.buckets {
			cumulative += snap.counts[i]
			fmt.Fprintf(buf, "%s_bucket{op=%q,le=\"%s\"} %d\n", name, op, formatFloat(bound), cumulative)
		}
		fmt.Fprintf(buf, "%s_bucket{op=%q,le=\"+Inf\"} %d\n", name, op, snap.count)
		fmt.Fprintf(buf, "%s_sum{op=%q} %s\n", name, op, formatFloat(snap.sum))
		fmt.Fprintf(buf, "%s_count{op=%q} %d\n", name, op, snap.count)
	}
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
