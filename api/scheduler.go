/*
scheduler.go - Automated accrual scheduler

PURPOSE:
  Periodically runs the daily loan interest batch and the bonus anniversary
  sweep over Active policies, as of today's date.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Both sweeps are idempotent per day, so a restart or an extra tick
    credits nothing twice
  - One item's failure is logged and counted, never fatal to the run
  - The last run is kept for the admin endpoint

CONFIGURATION:
  - CheckInterval: How often to run (default: 24 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAccrualScheduler(engine, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunAccrual endpoint (manual run)
  - engine/loan.go: AccrueAllLoanInterest
  - engine/premium.go: AccrueAllBonuses
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/policy-engine/engine"
	"github.com/warp/policy-engine/generic"
)

// AccrualScheduler handles automated interest and bonus accrual.
type AccrualScheduler struct {
	Engine        *engine.Engine
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	// Today supplies the as-of date of each run.
	Today func() generic.Date

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	last   *AccrualRunDTO
}

func NewAccrualScheduler(e *engine.Engine, logger *slog.Logger) *AccrualScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccrualScheduler{
		Engine:        e,
		Logger:        logger,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		Today:         generic.Today,
	}
}

// Start begins the scheduler. A disabled scheduler or a non-positive
// interval does nothing.
func (s *AccrualScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled || s.CheckInterval <= 0 {
		s.Logger.Info("accrual scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	s.Logger.Info("accrual scheduler started", "interval", s.CheckInterval.String())
}

// Stop stops the scheduler and waits for a run in progress.
func (s *AccrualScheduler) Stop() {
	s.mu.Lock()
	if s.ticker == nil {
		s.mu.Unlock()
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.ticker = nil
	s.mu.Unlock()

	s.wg.Wait()
	s.Logger.Info("accrual scheduler stopped")
}

func (s *AccrualScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	s.RunNow(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow runs both sweeps as of Today and records the result.
func (s *AccrualScheduler) RunNow(ctx context.Context) AccrualRunDTO {
	out := RunAccrual(ctx, s.Engine, s.Today())
	s.mu.Lock()
	s.last = &out
	s.mu.Unlock()
	return out
}

// LastRun returns the most recent run, or nil before the first.
func (s *AccrualScheduler) LastRun() *AccrualRunDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunAccrual runs the loan interest batch, then the bonus sweep.
func RunAccrual(ctx context.Context, e *engine.Engine, asOf generic.Date) AccrualRunDTO {
	loans := e.AccrueAllLoanInterest(ctx, asOf)
	bonuses := e.AccrueAllBonuses(ctx, asOf)
	return AccrualRunDTO{
		AsOf:         asOf.String(),
		LoanInterest: toBatchDTO(loans),
		Bonuses:      toBatchDTO(bonuses),
	}
}
