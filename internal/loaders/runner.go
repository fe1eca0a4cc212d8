package loaders

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/storiqateam/stq-orders/pkg/logger"
	"github.com/storiqateam/stq-orders/pkg/metrics"
)

// Loader is one periodic reconciliation worker.
type Loader interface {
	Name() string
	Run(ctx context.Context) error
}

// Capturer receives per-item failures that should reach the crash
// reporter without aborting the batch that produced them.
type Capturer interface {
	Capture(ctx context.Context, err error)
}

// NewLogCapturer returns a capturer that only writes to the log.
func NewLogCapturer(logg *logger.Logger) Capturer {
	return logCapturer{logg: logg}
}

type logCapturer struct {
	logg *logger.Logger
}

func (c logCapturer) Capture(ctx context.Context, err error) {
	c.logg.Error(ctx, "captured loader failure", err)
}

// Runner drives loaders on a fixed cadence. Ticks of one loader are
// single-flight: a tick that fires while the previous run is still in
// progress is logged, counted as skipped, and dropped.
type Runner struct {
	logg    *logger.Logger
	metrics *metrics.LoaderMetrics
}

func NewRunner(logg *logger.Logger, m *metrics.LoaderMetrics) (*Runner, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Runner{logg: logg, metrics: m}, nil
}

// Start runs the loader once immediately, then on every tick until the
// context is done. Runs execute in their own goroutine so a slow run
// cannot delay the ticker; overlap is prevented by the busy flag, which
// a skipped tick never touches. Start blocks until the context is done
// and any in-flight run has finished.
func (r *Runner) Start(ctx context.Context, loader Loader, interval time.Duration) error {
	if loader == nil {
		return fmt.Errorf("loader required")
	}
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	var (
		busy int32
		wg   sync.WaitGroup
	)
	launch := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.runOnce(ctx, loader, &busy)
		}()
	}

	launch()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			r.logg.Info(r.logg.WithLoader(ctx, loader.Name()), "loader stopped")
			return ctx.Err()
		case <-ticker.C:
			launch()
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, loader Loader, busy *int32) {
	ctx = r.logg.WithLoader(ctx, loader.Name())
	ctx = r.logg.WithField(ctx, "run_id", uuid.NewString())
	if !atomic.CompareAndSwapInt32(busy, 0, 1) {
		r.logg.Warn(ctx, "previous run still in progress, skipping tick")
		r.metrics.IncSkipped(loader.Name())
		return
	}
	defer atomic.StoreInt32(busy, 0)

	r.logg.Debug(ctx, "loader run starting")
	started := time.Now()
	err := loader.Run(ctx)
	elapsed := time.Since(started)
	r.metrics.ObserveDuration(loader.Name(), elapsed)

	ctx = r.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		r.metrics.IncFailure(loader.Name())
		r.logg.Error(ctx, "loader run failed", err)
		return
	}
	r.metrics.IncSuccess(loader.Name())
	r.logg.Info(ctx, "loader run complete")
}
