package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nbasched/ingestion/internal/cache"
	"nbasched/ingestion/internal/metrics"
	"nbasched/ingestion/internal/models"
	"nbasched/ingestion/internal/repository"
	"nbasched/ingestion/internal/resolver"

	"github.com/rs/zerolog/log"
)

// Fetcher supplies the raw schedule batch from the upstream feed
type Fetcher interface {
	FetchSchedule(ctx context.Context, season int) ([]models.ScheduleRow, error)
}

// Syncer orchestrates the sync cycle: fetch, enrich, and either bulk-insert
// on initial load or reconcile against the persisted table. One cycle is one
// fetch, one reconciliation and one commit; a failed cycle commits nothing
// and is retried wholesale on the next tick.
type Syncer struct {
	db         *repository.Database
	fetcher    Fetcher
	cache      *cache.RedisCache // optional, may be nil
	cacheTTL   time.Duration
	season     int
	builder    *Builder
	reconciler *Reconciler
}

// NewSyncer creates a Syncer for the given season. cache may be nil, in
// which case every cycle hits the upstream feed.
func NewSyncer(db *repository.Database, fetcher Fetcher, c *cache.RedisCache, season int, cacheTTL time.Duration) *Syncer {
	res := resolver.New(db)
	return &Syncer{
		db:         db,
		fetcher:    fetcher,
		cache:      c,
		cacheTTL:   cacheTTL,
		season:     season,
		builder:    NewBuilder(res),
		reconciler: NewReconciler(res),
	}
}

// InitialLoad fetches the season schedule, enriches it and bulk-inserts it.
// A non-empty schedule table means the season is already loaded and the call
// is a no-op; rows are created once and only updated or deleted afterwards.
func (s *Syncer) InitialLoad(ctx context.Context, asOf time.Time) error {
	start := time.Now()

	count, err := s.db.Games.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("Schedule already loaded, skipping initial load")
		return nil
	}

	rows, err := s.fetchSchedule(ctx)
	if err != nil {
		metrics.SyncOperationsTotal.WithLabelValues("initial_load", "error").Inc()
		return err
	}

	games, err := s.builder.Build(ctx, rows, asOf)
	if err != nil {
		metrics.SyncOperationsTotal.WithLabelValues("initial_load", "error").Inc()
		return fmt.Errorf("failed to build schedule records: %w", err)
	}

	if err := s.db.Games.InsertBatch(ctx, games); err != nil {
		metrics.SyncOperationsTotal.WithLabelValues("initial_load", "error").Inc()
		return err
	}

	metrics.SyncOperationsTotal.WithLabelValues("initial_load", "success").Inc()
	metrics.SyncDuration.WithLabelValues("initial_load").Observe(time.Since(start).Seconds())

	log.Info().
		Int("count", len(games)).
		Dur("duration", time.Since(start)).
		Msg("Initial schedule load complete")

	return nil
}

// RunCycle re-fetches the schedule and reconciles the persisted table
// against it, applying deletions and the deduplicated update set in one
// transaction
func (s *Syncer) RunCycle(ctx context.Context, asOf time.Time) error {
	start := time.Now()

	rows, err := s.fetchSchedule(ctx)
	if err != nil {
		metrics.SyncOperationsTotal.WithLabelValues("reconcile", "error").Inc()
		return err
	}

	fresh, err := s.builder.Build(ctx, rows, asOf)
	if err != nil {
		metrics.SyncOperationsTotal.WithLabelValues("reconcile", "error").Inc()
		return fmt.Errorf("failed to build schedule records: %w", err)
	}

	persisted, err := s.db.Games.ListAll(ctx)
	if err != nil {
		metrics.SyncOperationsTotal.WithLabelValues("reconcile", "error").Inc()
		return err
	}
	if len(persisted) == 0 {
		metrics.SyncOperationsTotal.WithLabelValues("reconcile", "error").Inc()
		return fmt.Errorf("schedule table is empty, run initial load first")
	}

	changes, err := s.reconciler.Reconcile(ctx, persisted, fresh, asOf)
	if err != nil {
		metrics.SyncOperationsTotal.WithLabelValues("reconcile", "error").Inc()
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if !changes.Empty() {
		if err := s.db.Games.ApplyChanges(ctx, changes.Updates, changes.Deletes); err != nil {
			metrics.SyncOperationsTotal.WithLabelValues("reconcile", "error").Inc()
			return err
		}
	}

	metrics.ReconcileRowsTotal.WithLabelValues("updated").Add(float64(len(changes.Updates)))
	metrics.ReconcileRowsTotal.WithLabelValues("deleted").Add(float64(len(changes.Deletes)))
	metrics.SyncOperationsTotal.WithLabelValues("reconcile", "success").Inc()
	metrics.SyncDuration.WithLabelValues("reconcile").Observe(time.Since(start).Seconds())
	metrics.LastReconcileTimestamp.SetToCurrentTime()

	log.Info().
		Int("updated", len(changes.Updates)).
		Int("deleted", len(changes.Deletes)).
		Dur("duration", time.Since(start)).
		Msg("Reconciliation cycle complete")

	return nil
}

// SyncTeams upserts the team reference table from the feed's team list
func (s *Syncer) SyncTeams(ctx context.Context, inputs []models.TeamInput) error {
	for _, input := range inputs {
		team := input.ToTeam()
		if err := s.db.Teams.Upsert(ctx, team); err != nil {
			return fmt.Errorf("failed to sync team %q: %w", input.TeamName, err)
		}
	}

	log.Info().Int("count", len(inputs)).Msg("Teams synced")
	return nil
}

// fetchSchedule returns the season schedule, serving from the cache when a
// recent payload is available
func (s *Syncer) fetchSchedule(ctx context.Context) ([]models.ScheduleRow, error) {
	key := fmt.Sprintf("schedule:%d", s.season)

	if s.cache != nil {
		payload, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("Cache read failed, fetching from feed")
		} else if ok {
			var rows []models.ScheduleRow
			if err := json.Unmarshal(payload, &rows); err != nil {
				log.Warn().Err(err).Msg("Discarding malformed cached schedule")
			} else {
				log.Debug().Int("count", len(rows)).Msg("Schedule served from cache")
				return rows, nil
			}
		}
	}

	rows, err := s.fetcher.FetchSchedule(ctx, s.season)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(rows); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
				log.Warn().Err(err).Msg("Cache write failed")
			}
		}
	}

	return rows, nil
}
