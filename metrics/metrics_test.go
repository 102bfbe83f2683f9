package metrics

import (
	"strings"
	"testing"
	"time"
)

func BenchmarkRecordElapsed(b *testing.B) {
	t := time.Now()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		RecordElapsed(t)
	}
}

func TestLatency(t *testing.T) {
	l := NewLatency(time.Second)
	for i := 1; i <= 100; i++ {
		l.Record(time.Duration(i) * time.Millisecond)
	}
	l.Record(time.Hour) // clamped

	s := l.Summary()
	if s.Count != 101 {
		t.Errorf("Count = %d want 101", s.Count)
	}
	if s.P95 < 90*time.Millisecond || s.P95 > 100*time.Millisecond {
		t.Errorf("P95 = %s", s.P95)
	}
	if s.Max < 990*time.Millisecond || s.Max > 1010*time.Millisecond {
		t.Errorf("Max = %s", s.Max)
	}

	l.Reset()
	if got := l.Summary().Count; got != 0 {
		t.Errorf("Count after reset = %d", got)
	}
}

func recordSomething() {
	defer RecordElapsed(time.Now())
}

func TestRecordElapsed(t *testing.T) {
	recordSomething()
	var found bool
	for name, s := range Snapshot() {
		if strings.HasSuffix(name, "metrics.recordSomething") {
			found = s.Count == 1
		}
	}
	if !found {
		t.Errorf("no histogram for recordSomething in %v", Names())
	}
	if Get("x") != Get("x") {
		t.Error("Get returned different histograms for the same name")
	}
}
