// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const LatencyBuckets = 101
const LatencyBucketSize = 50 * time.Millisecond

type Histogram struct {
	Buckets [LatencyBuckets]uint64 `json:"b2"`
	Count   uint64                 `json:"c"`
	Sum     float64                `json:"s"` // Sum of durations in milliseconds
}

func (h *Histogram) Add(d time.Duration) {
	ms := float64(d.Milliseconds())
	idx := int(d / LatencyBucketSize)
	if idx < 0 {
		idx = 0
	}
	if idx >= LatencyBuckets {
		idx = LatencyBuckets - 1
	}
	h.Buckets[idx]++
	h.Count++
	h.Sum += ms
}

func (h *Histogram) Merge(other *Histogram) {
	if other == nil {
		return
	}
	for i := 0; i < LatencyBuckets; i++ {
		h.Buckets[i] += other.Buckets[i]
	}
	h.Count += other.Count
	h.Sum += other.Sum
}

// Quantile returns the upper bound of the bucket holding the q-th sample.
func (h *Histogram) Quantile(q float64) time.Duration {
	if h.Count == 0 {
		return 0
	}
	rank := uint64(q * float64(h.Count))
	if rank >= h.Count {
		rank = h.Count - 1
	}
	var seen uint64
	for i, n := range h.Buckets {
		seen += n
		if seen > rank {
			return time.Duration(i+1) * LatencyBucketSize
		}
	}
	return LatencyBuckets * LatencyBucketSize
}

// ResolutionConfig defines the policy for a single bucket set.
type ResolutionConfig struct {
	Name       string        `json:"name"`
	Resolution time.Duration `json:"resolution"`
	Buckets    int           `json:"buckets"`
}

var DefaultResolutions = []ResolutionConfig{
	{"1m", 1 * time.Minute, 60},
	{"15m", 15 * time.Minute, 96},
	{"1h", 1 * time.Hour, 168},
}

// Point represents a single data point in a time series.
type Point[T any] struct {
	Timestamp int64 `json:"t"`
	Value     T     `json:"v"`
}

// RingBuffer is a fixed-size circular buffer for storing time series data.
type RingBuffer[T any] struct {
	Config ResolutionConfig `json:"config"`
	Data   []Point[T]       `json:"data"`
	Head   int              `json:"head"` // Points to the *next* write position
}

func NewRingBuffer[T any](cfg ResolutionConfig) *RingBuffer[T] {
	return &RingBuffer[T]{
		Config: cfg,
		Data:   make([]Point[T], cfg.Buckets),
	}
}

// last returns the most recent point, or nil when it is not in the same
// interval as timestamp.
func (rb *RingBuffer[T]) last(timestamp int64) *Point[T] {
	resSec := int64(rb.Config.Resolution.Seconds())
	alignedTs := (timestamp / resSec) * resSec
	prevIdx := (rb.Head - 1 + len(rb.Data)) % len(rb.Data)
	if rb.Data[prevIdx].Timestamp == alignedTs {
		return &rb.Data[prevIdx]
	}
	return nil
}

// Add appends a point to the ring buffer, replacing the last point when it
// falls in the same interval.
func (rb *RingBuffer[T]) Add(timestamp int64, value T) {
	if p := rb.last(timestamp); p != nil {
		p.Value = value
		return
	}
	resSec := int64(rb.Config.Resolution.Seconds())
	rb.Data[rb.Head] = Point[T]{Timestamp: (timestamp / resSec) * resSec, Value: value}
	rb.Head = (rb.Head + 1) % len(rb.Data)
}

// GetPoints returns the data points sorted by time.
func (rb *RingBuffer[T]) GetPoints() []Point[T] {
	points := make([]Point[T], 0, len(rb.Data))
	for i := 0; i < len(rb.Data); i++ {
		idx := (rb.Head + i) % len(rb.Data)
		if rb.Data[idx].Timestamp > 0 {
			points = append(points, rb.Data[idx])
		}
	}
	return points
}

// HistogramSeries holds all resolutions for a histogram metric.
type HistogramSeries struct {
	Buffers map[string]*RingBuffer[Histogram] `json:"buffers"`
}

func NewHistogramSeries() *HistogramSeries {
	buffers := make(map[string]*RingBuffer[Histogram])
	for _, cfg := range DefaultResolutions {
		buffers[cfg.Name] = NewRingBuffer[Histogram](cfg)
	}
	return &HistogramSeries{Buffers: buffers}
}

func (hs *HistogramSeries) Ingest(timestamp int64, h *Histogram) {
	if h == nil {
		return
	}
	for _, cfg := range DefaultResolutions {
		buf, ok := hs.Buffers[cfg.Name]
		if !ok {
			continue
		}
		if p := buf.last(timestamp); p != nil {
			p.Value.Merge(h)
		} else {
			buf.Add(timestamp, *h)
		}
	}
}

// EndpointMetrics are the counters of one stats API endpoint.
type EndpointMetrics struct {
	Latency  Histogram        `json:"latency"`
	Statuses map[int]uint64   `json:"statuses"`
	Failures uint64           `json:"failures"` // transport errors
	History  *HistogramSeries `json:"history"`
}

// Metrics records stats API calls and server activity.
type Metrics struct {
	Now func() time.Time

	mu        sync.Mutex
	endpoints map[string]*EndpointMetrics
	started   time.Time

	ActiveWS atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		Now:       time.Now,
		endpoints: make(map[string]*EndpointMetrics),
		started:   time.Now(),
	}
}

// Observe records one upstream call. It matches api.Client.Observe.
func (m *Metrics) Observe(endpoint string, status int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	em, ok := m.endpoints[endpoint]
	if !ok {
		em = &EndpointMetrics{Statuses: make(map[int]uint64), History: NewHistogramSeries()}
		m.endpoints[endpoint] = em
	}
	if status == 0 {
		em.Failures++
		return
	}
	em.Statuses[status]++
	var h Histogram
	h.Add(d)
	em.Latency.Merge(&h)
	em.History.Ingest(m.Now().Unix(), &h)
}

// EndpointSummary is the JSON view of one endpoint.
type EndpointSummary struct {
	Endpoint string  `json:"endpoint"`
	Count    uint64  `json:"count"`
	Failures uint64  `json:"failures"`
	AvgMS    float64 `json:"avgMs"`
	P50MS    int64   `json:"p50Ms"`
	P95MS    int64   `json:"p95Ms"`
}

// Snapshot summarizes every endpoint, sorted by name.
func (m *Metrics) Snapshot() []EndpointSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EndpointSummary, 0, len(m.endpoints))
	for name, em := range m.endpoints {
		s := EndpointSummary{
			Endpoint: name,
			Count:    em.Latency.Count,
			Failures: em.Failures,
			P50MS:    em.Latency.Quantile(0.5).Milliseconds(),
			P95MS:    em.Latency.Quantile(0.95).Milliseconds(),
		}
		if em.Latency.Count > 0 {
			s.AvgMS = em.Latency.Sum / float64(em.Latency.Count)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

// ServeHTTP writes the metrics as JSON. With ?detail=1 the full histograms
// and their history are included.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"timestamp": m.Now().Unix(),
		"uptimeSec": int64(m.Now().Sub(m.started).Seconds()),
		"activeWS":  m.ActiveWS.Load(),
		"endpoints": m.Snapshot(),
	}
	if r.URL.Query().Get("detail") == "1" {
		m.mu.Lock()
		data, err := json.Marshal(m.endpoints)
		m.mu.Unlock()
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		payload["detail"] = json.RawMessage(data)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
