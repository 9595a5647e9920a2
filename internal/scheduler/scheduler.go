package scheduler

import (
	"context"
	"fmt"
	"time"

	"nbasched/ingestion/internal/config"
	"nbasched/ingestion/internal/schedule"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler drives periodic reconciliation cycles: a ticker for intra-day
// refreshes and a cron entry for the nightly full pass. A failed cycle is
// logged and retried on the next tick; nothing is retried inside a cycle.
type Scheduler struct {
	cfg      *config.Config
	syncer   *schedule.Syncer
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, syncer *schedule.Syncer) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		syncer:   syncer,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.NightlyCron, func() {
		log.Info().Msg("Running nightly reconciliation...")
		s.runCycle(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly reconciliation: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyCron).
		Msg("Nightly reconciliation scheduled")

	s.ticker = time.NewTicker(s.cfg.ReconcileInterval)
	log.Info().
		Dur("interval", s.cfg.ReconcileInterval).
		Msg("Reconciliation polling started")

	go s.poll(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// poll runs reconciliation cycles until stopped
func (s *Scheduler) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping reconciliation polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping reconciliation polling")
			return
		case <-s.ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if err := s.syncer.RunCycle(ctx, time.Now()); err != nil {
		log.Error().Err(err).Msg("Reconciliation cycle failed")
	}
}
