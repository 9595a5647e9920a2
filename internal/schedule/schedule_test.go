package schedule

import (
	"context"
	"database/sql"
	"time"

	"nbasched/ingestion/internal/models"
	"nbasched/ingestion/internal/resolver"
)

// fakeResolver backs builder and reconciler tests with in-memory lookups.
// Team resolution reuses the strict join so resolution failures surface the
// same way they do in production.
type fakeResolver struct {
	teams     map[string][]int
	snapshots map[string]map[int]int // day boundary -> team id -> stats id
}

func (f *fakeResolver) TeamIDs(_ context.Context, names []string) ([]int, error) {
	return resolver.ValuesToForeignKey(f.teams, names)
}

func (f *fakeResolver) StatsSnapshot(_ context.Context, teamIDs []int, cutoff time.Time) ([]sql.NullInt32, error) {
	latest := f.snapshots[cutoff.Format("2006-01-02")]
	ids := make([]sql.NullInt32, len(teamIDs))
	for i, teamID := range teamIDs {
		if statsID, ok := latest[teamID]; ok {
			ids[i] = sql.NullInt32{Int32: int32(statsID), Valid: true}
		}
	}
	return ids, nil
}

func (f *fakeResolver) StatsAsOf(_ context.Context, before time.Time) (map[int]int, error) {
	return f.snapshots[before.Format("2006-01-02")], nil
}

func mkTime(value string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", value)
	if err != nil {
		panic(err)
	}
	return t
}

func mkGame(id, homeTeamID, awayTeamID int, start string, homeScore, awayScore int) *models.Game {
	startTime := mkTime(start)
	return &models.Game{
		ID:            id,
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		StartTime:     startTime,
		GameDate:      models.DateOf(startTime),
		HomeTeamScore: homeScore,
		AwayTeamScore: awayScore,
		MOV:           homeScore - awayScore,
	}
}

func withStats(game *models.Game, homeStatsID, awayStatsID int) *models.Game {
	game.HomeStatsID = sql.NullInt32{Int32: int32(homeStatsID), Valid: true}
	game.AwayStatsID = sql.NullInt32{Int32: int32(awayStatsID), Valid: true}
	return game
}
