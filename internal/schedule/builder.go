package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nbasched/ingestion/internal/models"
)

// KeyResolver resolves external identifiers to surrogate foreign keys.
// Implemented by resolver.Resolver; faked in tests.
type KeyResolver interface {
	TeamIDs(ctx context.Context, names []string) ([]int, error)
	StatsSnapshot(ctx context.Context, teamIDs []int, cutoff time.Time) ([]sql.NullInt32, error)
	StatsAsOf(ctx context.Context, before time.Time) (map[int]int, error)
}

// Builder transforms a raw fetched schedule batch into the persisted row
// shape: margin of victory, playoff placeholder, calendar date, and resolved
// foreign keys.
type Builder struct {
	resolver KeyResolver
}

// NewBuilder creates a Builder using the given resolver
func NewBuilder(resolver KeyResolver) *Builder {
	return &Builder{resolver: resolver}
}

// Build enriches fetched schedule rows into game records. asOf is the
// injected load time: it decides the horizon between games whose stats are
// resolvable now and future games whose stats stay null.
func (b *Builder) Build(ctx context.Context, rows []models.ScheduleRow, asOf time.Time) ([]*models.Game, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty schedule batch")
	}

	homeNames := make([]string, len(rows))
	awayNames := make([]string, len(rows))
	for i, row := range rows {
		homeNames[i] = row.HomeTeam
		awayNames[i] = row.AwayTeam
	}

	homeIDs, err := b.resolver.TeamIDs(ctx, homeNames)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home teams: %w", err)
	}
	awayIDs, err := b.resolver.TeamIDs(ctx, awayNames)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve away teams: %w", err)
	}

	games := make([]*models.Game, len(rows))
	for i, row := range rows {
		startTime := models.NaiveTime(row.StartTime)
		games[i] = &models.Game{
			HomeTeamID:    homeIDs[i],
			AwayTeamID:    awayIDs[i],
			StartTime:     startTime,
			GameDate:      models.DateOf(startTime),
			HomeTeamScore: row.HomeTeamScore,
			AwayTeamScore: row.AwayTeamScore,
			MOV:           row.HomeTeamScore - row.AwayTeamScore,
		}
	}

	horizon, err := horizonIndex(games, asOf)
	if err != nil {
		return nil, err
	}

	// Stats snapshots exist only for games up to today. Rows past the
	// horizon keep null stats ids until backfill.
	today := models.DateOf(asOf)
	homeStats, err := b.resolver.StatsSnapshot(ctx, homeIDs[:horizon], today)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home stats: %w", err)
	}
	awayStats, err := b.resolver.StatsSnapshot(ctx, awayIDs[:horizon], today)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve away stats: %w", err)
	}

	for i := 0; i < horizon; i++ {
		games[i].HomeStatsID = homeStats[i]
		games[i].AwayStatsID = awayStats[i]
	}

	return games, nil
}

// horizonIndex returns the first index whose date is at least one day past
// asOf. The batch must reach past tomorrow or the load is rejected.
func horizonIndex(games []*models.Game, asOf time.Time) (int, error) {
	tomorrow := models.DateOf(asOf).AddDate(0, 0, 1)
	for i, game := range games {
		if !game.GameDate.Before(tomorrow) {
			return i, nil
		}
	}
	return 0, ErrHorizonNotFound
}
