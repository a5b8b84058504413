package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const defaultRunTimeout = 30 * time.Minute

// Sweeper runs one reconciliation sweep.
type Sweeper interface {
	SyncAll(ctx context.Context) (*ports.SyncSummary, error)
}

// Config controls the periodic reconciliation job.
type Config struct {
	Interval   time.Duration
	RunOnStart bool
	// RunTimeout bounds a single sweep.
	RunTimeout time.Duration
}

// Scheduler triggers reconciliation sweeps on a fixed interval.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	cfg     Config
	log     zerolog.Logger
	ctx     context.Context

	mu      sync.Mutex
	stopped bool
	running sync.WaitGroup
}

func New(sweeper Sweeper, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunTimeout
	}
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		cfg:     cfg,
		log:     log.With().Str("component", "scheduler").Logger(),
		ctx:     context.Background(),
	}
}

// Start registers the job and starts the cron runner. Sweeps started after ctx
// is cancelled return immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Schedule(cron.Every(s.cfg.Interval), cron.FuncJob(func() { s.track(s.ctx) }))
	s.cron.Start()
	s.log.Info().Dur("interval", s.cfg.Interval).Msg("reconciliation job scheduled")

	if s.cfg.RunOnStart {
		go s.track(ctx)
	}
}

// Stop halts the cron runner and waits for a sweep in flight. That sweep runs
// on the context given to Start, so cancelling it first makes Stop return
// after the current courier call, with the sweep lock released.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.running.Wait()
}

func (s *Scheduler) track(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	s.Run(ctx)
}

// Run executes one sweep and logs its outcome. A sweep already held by another
// trigger is not an error.
func (s *Scheduler) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	summary, err := s.sweeper.SyncAll(ctx)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		s.log.Info().Msg("reconciliation already running, skipping tick")
	case err != nil:
		s.log.Error().Err(err).Msg("scheduled reconciliation failed")
	default:
		s.log.Info().
			Int("total", summary.Total).
			Int("synced", summary.Synced).
			Int("failed", summary.Failed).
			Msg("scheduled reconciliation finished")
	}
}
