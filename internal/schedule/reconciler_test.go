package schedule

import (
	"context"
	"testing"

	"nbasched/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(snapshots map[string]map[int]int) *Reconciler {
	return NewReconciler(&fakeResolver{snapshots: snapshots})
}

func TestReconciler_DetectsCancelledGames(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	kept := withStats(mkGame(1, 1, 2, "2026-01-01T19:00", 100, 90), 11, 22)
	cancelled := withStats(mkGame(2, 3, 4, "2026-01-02T19:00", 95, 98), 33, 44)
	persisted := []*models.Game{kept, cancelled}

	fresh := []*models.Game{mkGame(0, 1, 2, "2026-01-01T19:00", 100, 90)}

	changes, err := newTestReconciler(nil).Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)

	require.Len(t, changes.Deletes, 1)
	assert.Equal(t, cancelled.ID, changes.Deletes[0].ID)
	assert.Empty(t, changes.Updates)
}

func TestReconciler_CancellationRequiresShrunkenBatch(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	persisted := []*models.Game{
		withStats(mkGame(1, 1, 2, "2026-01-01T19:00", 100, 90), 11, 22),
		withStats(mkGame(2, 3, 4, "2026-01-02T19:00", 95, 98), 33, 44),
	}
	fresh := []*models.Game{
		mkGame(0, 1, 2, "2026-01-01T19:00", 100, 90),
		mkGame(0, 3, 4, "2026-01-02T19:00", 95, 98),
	}

	changes, err := newTestReconciler(nil).Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)
	assert.True(t, changes.Empty(), "equal-sized batch cannot signal cancellations")
}

func TestReconciler_FillsInScores(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	game := withStats(mkGame(1, 1, 2, "2026-01-09T19:00", 0, 0), 11, 22)
	persisted := []*models.Game{game}
	fresh := []*models.Game{mkGame(0, 1, 2, "2026-01-09T19:00", 101, 99)}

	changes, err := newTestReconciler(nil).Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)

	require.Len(t, changes.Updates, 1)
	assert.Empty(t, changes.Deletes)

	updated := changes.Updates[0]
	assert.Equal(t, 101, updated.HomeTeamScore)
	assert.Equal(t, 99, updated.AwayTeamScore)
	assert.Equal(t, 2, updated.MOV)
	assert.Equal(t, updated.HomeTeamScore-updated.AwayTeamScore, updated.MOV)
}

func TestReconciler_ScoreSourceMissingFails(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	persisted := []*models.Game{withStats(mkGame(1, 1, 2, "2026-01-09T19:00", 0, 0), 11, 22)}
	fresh := []*models.Game{mkGame(0, 3, 4, "2026-01-09T19:00", 105, 100)}

	_, err := newTestReconciler(nil).Reconcile(ctx, persisted, fresh, asOf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one source row")
}

func TestReconciler_BackfillsStats(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	game := mkGame(1, 1, 2, "2026-01-09T19:00", 102, 96)
	persisted := []*models.Game{game}
	fresh := []*models.Game{mkGame(0, 1, 2, "2026-01-09T19:00", 102, 96)}

	snapshots := map[string]map[int]int{
		"2026-01-10": {1: 11, 2: 22},
		"2026-01-11": {1: 111, 2: 222},
	}

	changes, err := newTestReconciler(snapshots).Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)

	require.Len(t, changes.Updates, 1)
	updated := changes.Updates[0]
	require.True(t, updated.HomeStatsID.Valid)
	require.True(t, updated.AwayStatsID.Valid)

	// The home column carries the away-side snapshot id and vice versa,
	// pinned to the legacy loader's behavior.
	assert.Equal(t, int32(22), updated.HomeStatsID.Int32)
	assert.Equal(t, int32(11), updated.AwayStatsID.Int32)
}

func TestReconciler_BackfillNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	assigned := withStats(mkGame(1, 1, 2, "2026-01-08T19:00", 99, 94), 11, 22)
	waiting := mkGame(2, 3, 4, "2026-01-09T19:00", 97, 92)
	persisted := []*models.Game{assigned, waiting}
	fresh := []*models.Game{
		mkGame(0, 1, 2, "2026-01-08T19:00", 99, 94),
		mkGame(0, 3, 4, "2026-01-09T19:00", 97, 92),
	}

	// No snapshots exist yet for the waiting game's teams
	snapshots := map[string]map[int]int{
		"2026-01-10": {1: 11, 2: 22},
		"2026-01-11": {1: 11, 2: 22},
	}

	changes, err := newTestReconciler(snapshots).Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)

	assert.True(t, changes.Empty())
	assert.Equal(t, int32(11), assigned.HomeStatsID.Int32, "assigned ids must not be rewritten")
	assert.Equal(t, int32(22), assigned.AwayStatsID.Int32)
	assert.False(t, waiting.HomeStatsID.Valid, "no snapshot yet, id stays null")
	assert.False(t, waiting.AwayStatsID.Valid)
}

func TestReconciler_CorrectsStartTime(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	game := mkGame(1, 1, 2, "2026-01-12T19:00", 0, 0)
	persisted := []*models.Game{game}
	fresh := []*models.Game{mkGame(0, 1, 2, "2026-01-12T19:30", 0, 0)}

	changes, err := newTestReconciler(nil).Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)

	require.Len(t, changes.Updates, 1)
	updated := changes.Updates[0]
	assert.Equal(t, mkTime("2026-01-12T19:30"), updated.StartTime)
	assert.Equal(t, mkTime("2026-01-12T00:00"), updated.GameDate, "game_date is never recomputed")
}

func TestReconciler_AmbiguousReschedule(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	persisted := []*models.Game{mkGame(1, 1, 2, "2026-01-12T19:00", 0, 0)}
	fresh := []*models.Game{
		mkGame(0, 1, 2, "2026-01-12T19:30", 0, 0),
		mkGame(0, 1, 2, "2026-01-12T20:00", 0, 0),
	}

	_, err := newTestReconciler(nil).Reconcile(ctx, persisted, fresh, asOf)
	require.Error(t, err)

	var ambiguous *AmbiguousRescheduleError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 2, ambiguous.Matches)
}

func TestReconciler_MissingReschedule(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	persisted := []*models.Game{mkGame(1, 1, 2, "2026-01-12T19:00", 0, 0)}
	fresh := []*models.Game{mkGame(0, 3, 4, "2026-01-12T19:00", 0, 0)}

	_, err := newTestReconciler(nil).Reconcile(ctx, persisted, fresh, asOf)
	require.Error(t, err)

	var missing *MissingRescheduleError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.HomeTeamID)
	assert.Equal(t, 2, missing.AwayTeamID)
}

func TestReconciler_SecondRunIsNoop(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	played := mkGame(1, 1, 2, "2026-01-09T19:00", 0, 0)
	drifted := mkGame(2, 3, 4, "2026-01-12T19:00", 0, 0)
	persisted := []*models.Game{played, drifted}
	fresh := []*models.Game{
		mkGame(0, 1, 2, "2026-01-09T19:00", 101, 99),
		mkGame(0, 3, 4, "2026-01-12T19:30", 0, 0),
	}

	snapshots := map[string]map[int]int{
		"2026-01-10": {1: 11, 2: 22},
		"2026-01-11": {1: 11, 2: 22},
	}

	rec := newTestReconciler(snapshots)

	changes, err := rec.Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)
	assert.Len(t, changes.Updates, 2)
	assert.Empty(t, changes.Deletes)

	// Updates are applied in place; a second run against the same batch
	// must find nothing left to change.
	changes, err = rec.Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)
	assert.True(t, changes.Empty())
}

func TestReconciler_UnionDeduplicatesByNaturalKey(t *testing.T) {
	ctx := context.Background()
	asOf := mkTime("2026-01-10T12:00")

	// Touched by both the score pass and the stats backfill pass
	game := mkGame(1, 1, 2, "2026-01-09T19:00", 0, 0)
	persisted := []*models.Game{game}
	fresh := []*models.Game{mkGame(0, 1, 2, "2026-01-09T19:00", 101, 99)}

	snapshots := map[string]map[int]int{
		"2026-01-10": {1: 11, 2: 22},
		"2026-01-11": {1: 11, 2: 22},
	}

	changes, err := newTestReconciler(snapshots).Reconcile(ctx, persisted, fresh, asOf)
	require.NoError(t, err)

	require.Len(t, changes.Updates, 1, "row touched by two passes is applied once")
	updated := changes.Updates[0]
	assert.Equal(t, 101, updated.HomeTeamScore)
	assert.True(t, updated.HomeStatsID.Valid)

	seen := make(map[models.GameKey]bool)
	for _, row := range changes.Updates {
		assert.False(t, seen[row.Key()], "no two updates share a natural key")
		seen[row.Key()] = true
	}
}
