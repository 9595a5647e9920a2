package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"nbasched/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Changes is the result of one reconciliation pass: the deduplicated set of
// rows to update and the rows to delete. The caller applies both in a single
// transaction.
type Changes struct {
	Updates []*models.Game
	Deletes []*models.Game
}

// Empty returns true when reconciliation found nothing to change
func (c *Changes) Empty() bool {
	return len(c.Updates) == 0 && len(c.Deletes) == 0
}

// Reconciler computes the minimal set of row mutations and deletions needed
// to bring the persisted schedule in line with a freshly fetched batch.
// It never produces two rows sharing a natural key and never applies an
// update twice: rows touched by multiple passes are unioned by key.
type Reconciler struct {
	resolver KeyResolver
}

// NewReconciler creates a Reconciler using the given resolver
func NewReconciler(resolver KeyResolver) *Reconciler {
	return &Reconciler{resolver: resolver}
}

// Reconcile runs four passes over the persisted schedule against the fresh
// batch: cancellation detection, score fill-in, stats backfill and start-time
// correction. asOf is the injected clock value all passes share.
func (r *Reconciler) Reconcile(ctx context.Context, persisted, fresh []*models.Game, asOf time.Time) (*Changes, error) {
	deletes := r.cancelledGames(persisted, fresh)

	// Later passes operate on the surviving row set so a cancelled game is
	// never also scheduled for an update.
	remaining := persisted
	if len(deletes) > 0 {
		remaining = withoutGames(persisted, deletes)
	}

	scoreRows, err := r.updateScores(remaining, fresh, asOf)
	if err != nil {
		return nil, err
	}

	statsRows, err := r.updateStats(ctx, remaining, asOf)
	if err != nil {
		return nil, err
	}

	timeRows, err := r.updateStartTimes(remaining, fresh, asOf)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("cancelled", len(deletes)).
		Int("scores", len(scoreRows)).
		Int("stats", len(statsRows)).
		Int("start_times", len(timeRows)).
		Msg("Reconciliation passes complete")

	changes := &Changes{
		Updates: unionByKey(scoreRows, statsRows, timeRows),
		Deletes: deletes,
	}
	return changes, nil
}

// pairKey is the reduced key used for cancellation matching
type pairKey struct {
	HomeTeamID int
	GameDate   string
}

// cancelledGames detects removed games via a set difference on
// (home_team_id, game_date). A fresh batch at least as large as the
// persisted table cannot signal cancellations; detecting additions is
// unsupported.
func (r *Reconciler) cancelledGames(persisted, fresh []*models.Game) []*models.Game {
	if len(fresh) >= len(persisted) {
		return nil
	}

	freshKeys := make(map[pairKey]struct{}, len(fresh))
	for _, game := range fresh {
		freshKeys[pairKeyOf(game)] = struct{}{}
	}

	var cancelled []*models.Game
	for _, game := range persisted {
		if _, ok := freshKeys[pairKeyOf(game)]; !ok {
			cancelled = append(cancelled, game)
		}
	}
	return cancelled
}

func pairKeyOf(game *models.Game) pairKey {
	return pairKey{
		HomeTeamID: game.HomeTeamID,
		GameDate:   game.GameDate.Format("2006-01-02"),
	}
}

// updateScores fills in final scores for games that have been played but
// still carry the 0 sentinel. The fresh batch is restricted to the time
// window spanned by the stale rows before matching.
func (r *Reconciler) updateScores(persisted, fresh []*models.Game, asOf time.Time) ([]*models.Game, error) {
	today := models.DateOf(asOf)

	var stale []*models.Game
	for _, game := range persisted {
		if game.StartTime.Before(today) && !game.Played() {
			stale = append(stale, game)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].StartTime.Before(stale[j].StartTime) })

	first := stale[0].StartTime
	last := stale[len(stale)-1].StartTime
	var window []*models.Game
	for _, game := range fresh {
		if !game.StartTime.Before(first) && !game.StartTime.After(last) {
			window = append(window, game)
		}
	}

	for _, game := range stale {
		var match *models.Game
		matches := 0
		for _, source := range window {
			if source.HomeTeamID == game.HomeTeamID &&
				source.AwayTeamID == game.AwayTeamID &&
				source.GameDate.Equal(models.DateOf(game.StartTime)) {
				match = source
				matches++
			}
		}
		if matches != 1 {
			return nil, fmt.Errorf(
				"score update for %d @ %d on %s: expected one source row, found %d",
				game.AwayTeamID, game.HomeTeamID, game.StartTime.Format("2006-01-02"), matches,
			)
		}

		game.HomeTeamScore = match.HomeTeamScore
		game.AwayTeamScore = match.AwayTeamScore
		game.MOV = game.HomeTeamScore - game.AwayTeamScore
		game.StartTime = match.StartTime
	}

	return stale, nil
}

// updateStats backfills stats snapshot ids for games that have occurred
// since the last assignment. The span from the earliest unassigned game
// through tomorrow is walked in single-day ranges; each range joins against
// the per-team snapshot with the greatest scrape time before the range end.
func (r *Reconciler) updateStats(ctx context.Context, persisted []*models.Game, asOf time.Time) ([]*models.Game, error) {
	var earliest *models.Game
	for _, game := range persisted {
		if game.HomeStatsID.Valid {
			continue
		}
		if earliest == nil || game.StartTime.Before(earliest.StartTime) {
			earliest = game
		}
	}
	if earliest == nil {
		return nil, nil
	}

	tomorrow := models.DateOf(asOf).AddDate(0, 0, 1)

	var assigned []*models.Game
	for date := models.DateOf(earliest.StartTime); date.Before(tomorrow); date = date.AddDate(0, 0, 1) {
		rangeEnd := date.AddDate(0, 0, 1)

		snapshots, err := r.resolver.StatsAsOf(ctx, rangeEnd)
		if err != nil {
			return nil, fmt.Errorf("stats backfill for %s: %w", date.Format("2006-01-02"), err)
		}

		for _, game := range persisted {
			if game.HomeStatsID.Valid ||
				!game.StartTime.After(date) || !game.StartTime.Before(rangeEnd) {
				continue
			}
			homeSnap, homeOK := snapshots[game.HomeTeamID]
			awaySnap, awayOK := snapshots[game.AwayTeamID]
			if !homeOK || !awayOK {
				continue
			}

			// The home column receives the away-side snapshot id and vice
			// versa, matching the behavior of the legacy loader.
			game.HomeStatsID = sql.NullInt32{Int32: int32(awaySnap), Valid: true}
			game.AwayStatsID = sql.NullInt32{Int32: int32(homeSnap), Valid: true}
			assigned = append(assigned, game)
		}
	}

	return assigned, nil
}

// updateStartTimes corrects start times for games within the coming week
// whose fetched start time no longer matches the persisted one. A drifted
// game must resolve to exactly one replacement row or the pass fails.
func (r *Reconciler) updateStartTimes(persisted, fresh []*models.Game, asOf time.Time) ([]*models.Game, error) {
	today := models.DateOf(asOf)
	endWeek := today.AddDate(0, 0, 7)

	var window []*models.Game
	for _, game := range fresh {
		if !game.StartTime.Before(today) && !game.GameDate.After(endWeek) {
			window = append(window, game)
		}
	}

	var corrected []*models.Game
	for _, game := range persisted {
		if game.GameDate.Before(today) || game.GameDate.After(endWeek) {
			continue
		}

		unchanged := false
		for _, source := range window {
			if source.StartTime.Equal(game.StartTime) && source.HomeTeamID == game.HomeTeamID {
				unchanged = true
				break
			}
		}
		if unchanged {
			continue
		}

		var replacement *models.Game
		matches := 0
		for _, source := range window {
			if source.HomeTeamID == game.HomeTeamID &&
				source.AwayTeamID == game.AwayTeamID &&
				source.GameDate.Equal(game.GameDate) {
				replacement = source
				matches++
			}
		}
		switch {
		case matches == 0:
			return nil, &MissingRescheduleError{
				HomeTeamID: game.HomeTeamID,
				AwayTeamID: game.AwayTeamID,
				GameDate:   game.GameDate,
			}
		case matches > 1:
			return nil, &AmbiguousRescheduleError{
				HomeTeamID: game.HomeTeamID,
				AwayTeamID: game.AwayTeamID,
				GameDate:   game.GameDate,
				Matches:    matches,
			}
		}

		game.StartTime = replacement.StartTime
		corrected = append(corrected, game)
	}

	return corrected, nil
}

// unionByKey merges update sets, keeping one row per natural key in first-seen order
func unionByKey(sets ...[]*models.Game) []*models.Game {
	seen := make(map[models.GameKey]struct{})
	var union []*models.Game
	for _, set := range sets {
		for _, game := range set {
			key := game.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, game)
		}
	}
	return union
}

// withoutGames filters excluded rows out of the persisted set by natural key
func withoutGames(persisted, excluded []*models.Game) []*models.Game {
	drop := make(map[models.GameKey]struct{}, len(excluded))
	for _, game := range excluded {
		drop[game.Key()] = struct{}{}
	}

	kept := make([]*models.Game, 0, len(persisted)-len(excluded))
	for _, game := range persisted {
		if _, ok := drop[game.Key()]; !ok {
			kept = append(kept, game)
		}
	}
	return kept
}
