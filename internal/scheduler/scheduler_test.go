package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-widget/internal/widget"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
	fired chan struct{}
}

func (r *countingRefresher) RefreshCurrent() error {
	if r.calls.Add(1) == 1 {
		close(r.fired)
	}
	return r.err
}

func TestSchedulerDisabled(t *testing.T) {
	r := &countingRefresher{fired: make(chan struct{})}
	s := New(0, r, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if n := r.calls.Load(); n != 0 {
		t.Errorf("expected no refreshes, got %d", n)
	}
}

func TestSchedulerRefreshesPeriodically(t *testing.T) {
	r := &countingRefresher{
		fired: make(chan struct{}),
		err:   widget.ErrNothingToRefresh,
	}
	s := New(50*time.Millisecond, r, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case <-r.fired:
	case <-time.After(3 * time.Second):
		t.Fatal("expected the refresh job to run")
	}
}
