package priceengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler drives Engine.RunCycle on a fixed interval using robfig/cron,
// replacing price_updater.py's asyncio-sleep loop
// (start_continuous_updates/stop) with robfig/cron's scheduling
// library idiom.
type Scheduler struct {
	engine *Engine
	cron   *cron.Cron
	log    *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewScheduler(engine *Engine, log *zap.Logger) *Scheduler {
	return &Scheduler{
		engine: engine,
		cron:   cron.New(cron.WithSeconds()),
		log:    log,
	}
}

// Start schedules update cycles every intervalSeconds and starts the cron
// scheduler; the first cycle runs one interval after Start. It returns an
// error if the interval can't be expressed
// as a cron spec (never happens for intervals in [1, 59]).
func (s *Scheduler) Start(parent context.Context, intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	spec := fmt.Sprintf("@every %ds", intervalSeconds)
	_, err := s.cron.AddFunc(spec, func() {
		if _, _, err := s.engine.RunCycle(ctx); err != nil {
			s.log.Error("price update cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("schedule update cycle: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.log.Info("price update scheduler started",
		zap.Int("interval_seconds", intervalSeconds),
		zap.Int("batch_size", s.engine.cfg.BatchSize),
		zap.Int("max_workers", s.engine.cfg.MaxWorkers),
	)
	return nil
}

// Stop halts the cron scheduler and waits for any in-flight job, mirroring
// price_updater.py's shutdown_event-based stop() but via cron's own
// cooperative stop context.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
	s.log.Info("price update scheduler stopped")
}
