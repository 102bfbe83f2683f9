// Package metrics keeps latency histograms keyed by name.
// Defined metrics:
//   simulation.(*Simulation).Invoke (latency of contract invocations)
//   syscall.<service key> (latency of each interop service)
package metrics

import (
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

const maxLatency = time.Minute

var (
	mu        sync.Mutex
	latencies = make(map[string]*Latency)
)

// Latency is a concurrency-safe histogram of durations, recorded
// in nanoseconds with three significant figures.
type Latency struct {
	mu sync.Mutex
	h  *hdrhistogram.Histogram
}

// NewLatency returns a histogram recording durations up to max.
// Longer durations are recorded as max.
func NewLatency(max time.Duration) *Latency {
	return &Latency{h: hdrhistogram.New(1, int64(max), 3)}
}

// Record adds one observation.
func (l *Latency) Record(d time.Duration) {
	if d < 1 {
		d = 1
	}
	l.mu.Lock()
	if l.h.RecordValue(int64(d)) != nil {
		l.h.RecordValue(l.h.HighestTrackableValue())
	}
	l.mu.Unlock()
}

// Summary is a point-in-time view of a Latency.
type Summary struct {
	Count int64
	Mean  time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Summary returns the current counts and quantiles.
func (l *Latency) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Summary{
		Count: l.h.TotalCount(),
		Mean:  time.Duration(l.h.Mean()),
		P95:   time.Duration(l.h.ValueAtQuantile(95)),
		P99:   time.Duration(l.h.ValueAtQuantile(99)),
		Max:   time.Duration(l.h.Max()),
	}
}

// Reset discards every observation.
func (l *Latency) Reset() {
	l.mu.Lock()
	l.h.Reset()
	l.mu.Unlock()
}

// Get returns the histogram registered under name, creating it
// on first use.
func Get(name string) *Latency {
	mu.Lock()
	defer mu.Unlock()
	l, ok := latencies[name]
	if !ok {
		l = NewLatency(maxLatency)
		latencies[name] = l
	}
	return l
}

// RecordElapsed records the time since t in the histogram named
// after the calling function, for use with defer:
//
//	defer metrics.RecordElapsed(time.Now())
func RecordElapsed(t time.Time) {
	d := time.Since(t)
	Get(callerName()).Record(d)
}

func callerName() string {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	// github.com/x/y/pkg.(*T).Method -> pkg.(*T).Method
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Snapshot returns a summary of every histogram with at least one
// observation, keyed by name.
func Snapshot() map[string]Summary {
	mu.Lock()
	ls := make(map[string]*Latency, len(latencies))
	for k, l := range latencies {
		ls[k] = l
	}
	mu.Unlock()

	out := make(map[string]Summary)
	for k, l := range ls {
		if s := l.Summary(); s.Count > 0 {
			out[k] = s
		}
	}
	return out
}

// Names returns the registered histogram names, sorted.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(latencies))
	for k := range latencies {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
