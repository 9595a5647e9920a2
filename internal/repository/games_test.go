package repository

import (
	"context"
	"testing"
	"time"

	"nbasched/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTeams(t *testing.T, db *Database, ctx context.Context, names ...string) []int {
	t.Helper()

	ids := make([]int, len(names))
	for i, name := range names {
		team := &models.Team{TeamName: name}
		require.NoError(t, db.Teams.Upsert(ctx, team))
		ids[i] = team.ID
	}
	return ids
}

func testGame(homeTeamID, awayTeamID int, start time.Time, homeScore, awayScore int) *models.Game {
	return &models.Game{
		HomeTeamID:    homeTeamID,
		AwayTeamID:    awayTeamID,
		StartTime:     start,
		GameDate:      models.DateOf(start),
		HomeTeamScore: homeScore,
		AwayTeamScore: awayScore,
		MOV:           homeScore - awayScore,
	}
}

func TestGameRepository_InsertBatchAndList(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	ids := seedTeams(t, db, ctx, "Toronto Raptors", "Boston Celtics", "Denver Nuggets", "Milwaukee Bucks")

	games := []*models.Game{
		testGame(ids[0], ids[1], time.Date(2026, 1, 9, 19, 0, 0, 0, time.UTC), 0, 0),
		testGame(ids[2], ids[3], time.Date(2026, 1, 12, 20, 30, 0, 0, time.UTC), 0, 0),
	}
	require.NoError(t, db.Games.InsertBatch(ctx, games))

	listed, err := db.Games.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].StartTime.Before(listed[1].StartTime), "ordered by start time")

	count, err := db.Games.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGameRepository_NaturalKeyUnique(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	ids := seedTeams(t, db, ctx, "Toronto Raptors", "Boston Celtics")

	start := time.Date(2026, 1, 9, 19, 0, 0, 0, time.UTC)
	require.NoError(t, db.Games.InsertBatch(ctx, []*models.Game{testGame(ids[0], ids[1], start, 0, 0)}))

	// Same (home, away, date) with a different tip-off time still collides
	dup := testGame(ids[0], ids[1], start.Add(time.Hour), 0, 0)
	dup.GameDate = models.DateOf(start)
	err := db.Games.InsertBatch(ctx, []*models.Game{dup})
	assert.Error(t, err, "natural key is unique")
}

func TestGameRepository_ApplyChanges(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	ids := seedTeams(t, db, ctx, "Toronto Raptors", "Boston Celtics", "Denver Nuggets", "Milwaukee Bucks")

	games := []*models.Game{
		testGame(ids[0], ids[1], time.Date(2026, 1, 9, 19, 0, 0, 0, time.UTC), 0, 0),
		testGame(ids[2], ids[3], time.Date(2026, 1, 12, 20, 30, 0, 0, time.UTC), 0, 0),
	}
	require.NoError(t, db.Games.InsertBatch(ctx, games))

	persisted, err := db.Games.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 2)

	// Score fill-in on the first row, cancellation of the second
	updated := persisted[0]
	updated.HomeTeamScore = 101
	updated.AwayTeamScore = 99
	updated.MOV = 2

	require.NoError(t, db.Games.ApplyChanges(ctx, []*models.Game{updated}, []*models.Game{persisted[1]}))

	remaining, err := db.Games.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 101, remaining[0].HomeTeamScore)
	assert.Equal(t, 2, remaining[0].MOV)
	assert.Equal(t, remaining[0].HomeTeamScore-remaining[0].AwayTeamScore, remaining[0].MOV)
}

func TestGameRepository_ApplyChangesRollsBack(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	ids := seedTeams(t, db, ctx, "Toronto Raptors", "Boston Celtics")

	games := []*models.Game{testGame(ids[0], ids[1], time.Date(2026, 1, 9, 19, 0, 0, 0, time.UTC), 0, 0)}
	require.NoError(t, db.Games.InsertBatch(ctx, games))

	persisted, err := db.Games.ListAll(ctx)
	require.NoError(t, err)

	updated := persisted[0]
	updated.HomeTeamScore = 101

	missing := testGame(ids[0], ids[1], time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC), 0, 0)
	missing.ID = 999999

	err = db.Games.ApplyChanges(ctx, []*models.Game{updated, missing}, nil)
	require.Error(t, err)

	// The whole batch rolls back, including the valid update
	reloaded, err := db.Games.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded[0].HomeTeamScore)
}

func TestGameRepository_GetByKey(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	ids := seedTeams(t, db, ctx, "Toronto Raptors", "Boston Celtics")

	start := time.Date(2026, 1, 9, 19, 0, 0, 0, time.UTC)
	require.NoError(t, db.Games.InsertBatch(ctx, []*models.Game{testGame(ids[0], ids[1], start, 0, 0)}))

	game, err := db.Games.GetByKey(ctx, ids[0], ids[1], "2026-01-09")
	require.NoError(t, err)
	assert.Equal(t, ids[0], game.HomeTeamID)
	assert.False(t, game.Playoffs.Valid)

	_, err = db.Games.GetByKey(ctx, ids[1], ids[0], "2026-01-09")
	assert.Error(t, err)
}
