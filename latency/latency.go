// Package latency collects per-request round-trip times and reduces them
// to summary statistics.
package latency

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

type Recorder struct {
	mu      sync.Mutex
	samples []float64
}

func NewRecorder() *Recorder {
	return &Recorder{
		samples: make([]float64, 0, 1024),
	}
}

// Add records one round-trip time.
func (r *Recorder) Add(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	r.mu.Lock()
	r.samples = append(r.samples, ms)
	r.mu.Unlock()
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Summary holds latency statistics in milliseconds.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	P50    float64
	P95    float64
	P99    float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%d samples, mean %.3fms, stddev %.3fms, p50 %.3fms, p95 %.3fms, p99 %.3fms",
		s.Count, s.Mean, s.StdDev, s.P50, s.P95, s.P99)
}

// Summary reduces the recorded samples. Quantiles need sorted input, so
// the reduction works on a copy.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	data := append([]float64(nil), r.samples...)
	r.mu.Unlock()

	if len(data) == 0 {
		return Summary{}
	}
	sort.Float64s(data)

	mean, std := stat.MeanStdDev(data, nil)
	if len(data) == 1 {
		std = 0
	}
	return Summary{
		Count:  len(data),
		Mean:   mean,
		StdDev: std,
		P50:    stat.Quantile(0.5, stat.Empirical, data, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, data, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, data, nil),
	}
}
