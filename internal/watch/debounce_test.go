package watch

import (
	"sort"
	"sync"
	"testing"
	"time"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *flushRecorder) record(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.Strings(paths)
	r.batches = append(r.batches, paths)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *flushRecorder) batch(i int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[i]
}

func TestDebouncerCollapsesBurst(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(50*time.Millisecond, 100, rec.record)
	defer d.Stop()

	d.Add("a.js")
	d.Add("b.js")
	d.Add("a.js")

	deadline := time.After(2 * time.Second)
	for rec.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("flush never happened")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	if rec.count() != 1 {
		t.Fatalf("expected a single flush, got %d", rec.count())
	}
	got := rec.batch(0)
	if len(got) != 2 || got[0] != "a.js" || got[1] != "b.js" {
		t.Errorf("unexpected batch: %v", got)
	}
}

func TestDebouncerMaxBatchFlushesImmediately(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(time.Hour, 2, rec.record)
	defer d.Stop()

	d.Add("a.js")
	d.Add("b.js")

	if rec.count() != 1 {
		t.Fatalf("expected an immediate flush at maxBatch, got %d", rec.count())
	}
}

func TestDebouncerStopFlushesPending(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(time.Hour, 100, rec.record)

	d.Add("a.js")
	d.Stop()

	if rec.count() != 1 {
		t.Fatalf("Stop should flush pending paths, got %d flushes", rec.count())
	}

	d.Add("late.js")
	time.Sleep(20 * time.Millisecond)
	if rec.count() != 1 {
		t.Error("Add after Stop must be ignored")
	}
}
