package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
)

// ReportRefresher recomputes and caches the priority report.
type ReportRefresher interface {
	RefreshHighPriorityReport(ctx context.Context) (*domain.PriorityReport, error)
}

// RefreshWorker periodically recomputes the high priority report and stores
// the result. A failed cycle is logged and skipped; the previously cached
// snapshot stays available until a cycle succeeds.
type RefreshWorker struct {
	triage   ReportRefresher
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewRefreshWorker creates the worker.
func NewRefreshWorker(triage ReportRefresher, interval, timeout time.Duration, logger *zap.Logger) *RefreshWorker {
	return &RefreshWorker{
		triage:   triage,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start launches the worker loop in its own goroutine.
func (w *RefreshWorker) Start() {
	w.logger.Info("report refresh worker started", zap.Duration("interval", w.interval))
	go w.run()
}

// Stop signals the worker to exit and waits for the loop to finish. An
// in-flight refresh completes before Stop returns.
func (w *RefreshWorker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	w.logger.Info("report refresh worker stopped")
}

func (w *RefreshWorker) run() {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Refresh immediately so the cache is warm shortly after boot.
	w.refresh()

	for {
		select {
		case <-ticker.C:
			w.refresh()
		case <-w.stopChan:
			return
		}
	}
}

func (w *RefreshWorker) refresh() {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	report, err := w.triage.RefreshHighPriorityReport(ctx)
	if err != nil {
		w.logger.Warn("report refresh failed, keeping previous snapshot", zap.Error(err))
		return
	}
	w.logger.Debug("report refreshed", zap.Int("tickets", len(report.Tickets)))
}
