package repository

import (
	"context"
	"testing"
	"time"

	"nbasched/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertSnapshot(t *testing.T, db *Database, ctx context.Context, teamID int, scrapeTime time.Time) *models.TeamStats {
	t.Helper()

	stats := &models.TeamStats{
		TeamID:     teamID,
		ScrapeTime: scrapeTime,
		ScrapeDate: models.DateOf(scrapeTime),
		Wins:       10,
		Losses:     5,
	}
	require.NoError(t, db.Stats.Insert(ctx, stats))
	return stats
}

func TestStatsRepository_LatestByScrapeDate(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	team := &models.Team{TeamName: "Toronto Raptors"}
	require.NoError(t, db.Teams.Upsert(ctx, team))

	older := insertSnapshot(t, db, ctx, team.ID, time.Date(2026, 1, 8, 6, 0, 0, 0, time.UTC))
	newer := insertSnapshot(t, db, ctx, team.ID, time.Date(2026, 1, 9, 6, 0, 0, 0, time.UTC))
	insertSnapshot(t, db, ctx, team.ID, time.Date(2026, 1, 11, 6, 0, 0, 0, time.UTC))

	latest, err := db.Stats.LatestByScrapeDate(ctx, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest[team.ID], "snapshot past the cutoff is excluded")

	latest, err = db.Stats.LatestByScrapeDate(ctx, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, older.ID, latest[team.ID])

	latest, err = db.Stats.LatestByScrapeDate(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, ok := latest[team.ID]
	assert.False(t, ok, "no snapshot before the cutoff")
}

func TestStatsRepository_LatestByScrapeTime(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	team := &models.Team{TeamName: "Boston Celtics"}
	require.NoError(t, db.Teams.Upsert(ctx, team))

	boundary := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	before := insertSnapshot(t, db, ctx, team.ID, boundary.Add(-time.Hour))
	insertSnapshot(t, db, ctx, team.ID, boundary) // exactly at the boundary is excluded

	latest, err := db.Stats.LatestByScrapeTime(ctx, boundary)
	require.NoError(t, err)
	assert.Equal(t, before.ID, latest[team.ID])
}
