package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const runTimeout = 5 * time.Minute

// Optimizer is the store housekeeping the scheduler triggers.
type Optimizer interface {
	Optimize(ctx context.Context) error
}

// Scheduler runs store maintenance on a cron schedule.
type Scheduler struct {
	store    Optimizer
	schedule cron.Schedule
	expr     string
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler instance. expr is a standard cron
// expression or descriptor such as "@daily".
func NewScheduler(store Optimizer, expr string) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", expr, err)
	}
	return &Scheduler{
		store:    store,
		schedule: schedule,
		expr:     expr,
		now:      time.Now,
		done:     make(chan struct{}),
	}, nil
}

// Run blocks, running maintenance at every scheduled time until Stop.
func (s *Scheduler) Run() {
	log.Info().Str("schedule", s.expr).Msg("Starting maintenance scheduler")

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping maintenance scheduler")
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			_ = s.RunOnce(ctx)
			cancel()
		}
	}
}

// RunOnce performs a single maintenance pass.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := s.now()
	if err := s.store.Optimize(ctx); err != nil {
		log.Error().Err(err).Msg("Store maintenance failed")
		return err
	}
	log.Info().Dur("took", s.now().Sub(start)).Msg("Store maintenance finished")
	return nil
}

// Stop halts the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}
