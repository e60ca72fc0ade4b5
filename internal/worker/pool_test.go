package worker

import (
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := NewPool(4)
	var n atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { n.Add(1) })
	}
	p.Stop()
	if got := n.Load(); got != 100 {
		t.Fatalf("ran %d jobs, want 100", got)
	}
}

func TestStopWaitsForInflight(t *testing.T) {
	p := NewPool(1)
	done := make(chan struct{})
	p.Submit(func() { close(done) })
	p.Stop()
	select {
	case <-done:
	default:
		t.Fatal("Stop returned before the job finished")
	}
}
