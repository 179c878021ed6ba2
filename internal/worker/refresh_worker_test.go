package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
)

type countingRefresher struct {
	calls   atomic.Int32
	err     error
	refresh chan struct{}
}

func (c *countingRefresher) RefreshHighPriorityReport(ctx context.Context) (*domain.PriorityReport, error) {
	c.calls.Add(1)
	select {
	case c.refresh <- struct{}{}:
	default:
	}
	if c.err != nil {
		return nil, c.err
	}
	return &domain.PriorityReport{}, nil
}

func waitForRefresh(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a refresh cycle")
	}
}

func TestWorkerRefreshesImmediatelyAndPeriodically(t *testing.T) {
	refresher := &countingRefresher{refresh: make(chan struct{}, 1)}
	w := NewRefreshWorker(refresher, 10*time.Millisecond, time.Second, zap.NewNop())

	w.Start()
	waitForRefresh(t, refresher.refresh)
	waitForRefresh(t, refresher.refresh)
	w.Stop()

	assert.GreaterOrEqual(t, refresher.calls.Load(), int32(2))
}

func TestWorkerKeepsRunningAfterFailure(t *testing.T) {
	refresher := &countingRefresher{refresh: make(chan struct{}, 1), err: assert.AnError}
	w := NewRefreshWorker(refresher, 10*time.Millisecond, time.Second, zap.NewNop())

	w.Start()
	waitForRefresh(t, refresher.refresh)
	waitForRefresh(t, refresher.refresh)
	w.Stop()

	// Failures are logged and skipped; the loop is untouched.
	assert.GreaterOrEqual(t, refresher.calls.Load(), int32(2))
}

func TestWorkerStopWaitsForLoopExit(t *testing.T) {
	refresher := &countingRefresher{refresh: make(chan struct{}, 1)}
	w := NewRefreshWorker(refresher, time.Hour, time.Second, zap.NewNop())

	w.Start()
	waitForRefresh(t, refresher.refresh)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, int32(1), refresher.calls.Load())
}
