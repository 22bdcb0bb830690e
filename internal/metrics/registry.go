// SPDX-License-Identifier: MIT

// Package metrics provides the per-extension metrics registry: monotonic
// counters, a bounded latency ring, and JSON plus text-exposition output.
package metrics

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// latencyRingSize bounds the number of samples kept for percentile queries.
const latencyRingSize = 1024

// Registry is the process-wide metrics registry for one extension.
// All methods are safe for concurrent use.
type Registry struct {
	extension string
	reg       *prometheus.Registry

	requests     prometheus.Counter
	errors       prometheus.Counter
	rateLimited  prometheus.Counter
	authFailures prometheus.Counter
	endpoints    *prometheus.CounterVec
	events       *prometheus.CounterVec

	mu        sync.Mutex
	latency   [latencyRingSize]float64 // milliseconds
	latIdx    int
	latCount  int
	startTime time.Time
	running   bool
}

// New creates a registry for the named extension.
func New(extension string) *Registry {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"extension": extension}

	r := &Registry{
		extension: extension,
		reg:       reg,
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "requests_received", Help: "Total HTTP requests received", ConstLabels: labels,
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "errors", Help: "Total error responses", ConstLabels: labels,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limited", Help: "Requests rejected by the rate limiter", ConstLabels: labels,
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_failures", Help: "Requests rejected by authentication", ConstLabels: labels,
		}),
		endpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "endpoint_requests", Help: "Requests per endpoint", ConstLabels: labels,
		}, []string{"endpoint"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events", Help: "Domain event counters", ConstLabels: labels,
		}, []string{"event"}),
		startTime: time.Now(),
	}

	reg.MustRegister(r.requests, r.errors, r.rateLimited, r.authFailures, r.endpoints, r.events)
	return r
}

// Extension returns the owning extension name.
func (r *Registry) Extension() string { return r.extension }

// IncrementRequests records one received request.
func (r *Registry) IncrementRequests() { r.requests.Inc() }

// IncrementErrors records one error response.
func (r *Registry) IncrementErrors() { r.errors.Inc() }

// IncrementRateLimited records one rate-limit rejection.
func (r *Registry) IncrementRateLimited() { r.rateLimited.Inc() }

// IncrementAuthFailures records one authentication failure.
func (r *Registry) IncrementAuthFailures() { r.authFailures.Inc() }

// IncrementEndpoint records one request to the named endpoint.
// The endpoint counter is created lazily on first observation.
func (r *Registry) IncrementEndpoint(endpoint string) {
	r.endpoints.WithLabelValues(endpoint).Inc()
}

// IncrementEvent records a domain-specific event (e.g. "elements_created").
func (r *Registry) IncrementEvent(event string) {
	r.events.WithLabelValues(event).Inc()
}

// AddEvent records n occurrences of a domain event.
func (r *Registry) AddEvent(event string, n float64) {
	r.events.WithLabelValues(event).Add(n)
}

// ObserveDuration records one request latency.
func (r *Registry) ObserveDuration(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	r.mu.Lock()
	r.latency[r.latIdx] = ms
	r.latIdx = (r.latIdx + 1) % latencyRingSize
	if r.latCount < latencyRingSize {
		r.latCount++
	}
	r.mu.Unlock()
}

// MarkStarted marks the server as running and resets the uptime origin.
func (r *Registry) MarkStarted() {
	r.mu.Lock()
	r.running = true
	r.startTime = time.Now()
	r.mu.Unlock()
}

// MarkStopped marks the server as stopped.
func (r *Registry) MarkStopped() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// LatencySummary holds the on-demand latency aggregate.
type LatencySummary struct {
	Count int     `json:"count"`
	AvgMS float64 `json:"avg_ms"`
	P50MS float64 `json:"p50_ms"`
	P95MS float64 `json:"p95_ms"`
	SumMS float64 `json:"sum_ms"`
}

// Latency computes mean and percentiles over the bounded sample ring.
func (r *Registry) Latency() LatencySummary {
	r.mu.Lock()
	n := r.latCount
	samples := make([]float64, n)
	copy(samples, r.latency[:n])
	r.mu.Unlock()

	if n == 0 {
		return LatencySummary{}
	}
	sort.Float64s(samples)
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return LatencySummary{
		Count: n,
		AvgMS: sum / float64(n),
		P50MS: samples[percentileIndex(n, 0.50)],
		P95MS: samples[percentileIndex(n, 0.95)],
		SumMS: sum,
	}
}

func percentileIndex(n int, q float64) int {
	idx := int(q * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Snapshot returns the flat JSON metrics object: every counter keyed by its
// family name (labelled counters nest by label value), plus uptime, server
// state and the latency summary.
func (r *Registry) Snapshot() map[string]any {
	families, err := r.reg.Gather()
	if err != nil {
		families = nil
	}

	out := make(map[string]any)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		name := mf.GetName()
		switch name {
		case "endpoint_requests", "events":
			byLabel := make(map[string]float64)
			for _, m := range mf.GetMetric() {
				key := labelValue(m, "endpoint")
				if key == "" {
					key = labelValue(m, "event")
				}
				byLabel[key] = m.GetCounter().GetValue()
			}
			out[name] = byLabel
		default:
			total := 0.0
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			out[name] = total
		}
	}

	r.mu.Lock()
	running := r.running
	uptime := time.Since(r.startTime).Seconds()
	r.mu.Unlock()
	if !running {
		uptime = 0
	}

	out["extension"] = r.extension
	out["server_running"] = running
	out["uptime_seconds"] = uptime
	out["latency"] = r.Latency()
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TextExposition renders the registry in Prometheus text-exposition format.
// Latency is appended as a summary with count, sum and the two quantiles
// served by Latency.
func (r *Registry) TextExposition() (string, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}

	lat := r.Latency()
	fmt.Fprintf(&buf, "# HELP request_latency_ms HTTP request latency summary in milliseconds\n")
	fmt.Fprintf(&buf, "# TYPE request_latency_ms summary\n")
	fmt.Fprintf(&buf, "request_latency_ms{extension=%q,quantile=\"0.5\"} %g\n", r.extension, lat.P50MS)
	fmt.Fprintf(&buf, "request_latency_ms{extension=%q,quantile=\"0.95\"} %g\n", r.extension, lat.P95MS)
	fmt.Fprintf(&buf, "request_latency_ms_sum{extension=%q} %g\n", r.extension, lat.SumMS)
	fmt.Fprintf(&buf, "request_latency_ms_count{extension=%q} %d\n", r.extension, lat.Count)
	return buf.String(), nil
}
