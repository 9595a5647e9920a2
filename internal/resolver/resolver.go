// Package resolver maps external identifiers to surrogate foreign keys.
// Team names resolve through a strict join against the teams table, and
// stats snapshot references resolve through the "latest snapshot before
// cutoff" query.
package resolver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nbasched/ingestion/internal/repository"
)

// ResolutionError is returned when a value cannot be uniquely resolved to a
// foreign key. Resolution is a strict join, not a left join: zero matches
// and ambiguous matches both abort the enrichment pass.
type ResolutionError struct {
	Value   string
	Matches int
}

func (e *ResolutionError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("no foreign key match for value %q", e.Value)
	}
	return fmt.Sprintf("ambiguous foreign key for value %q: %d matches", e.Value, e.Matches)
}

// ValuesToForeignKey maps each value to the id of its unique match in the
// index. Fails on the first value with zero or multiple matches.
func ValuesToForeignKey(index map[string][]int, values []string) ([]int, error) {
	ids := make([]int, len(values))
	for i, value := range values {
		matches := index[value]
		if len(matches) != 1 {
			return nil, &ResolutionError{Value: value, Matches: len(matches)}
		}
		ids[i] = matches[0]
	}
	return ids, nil
}

// Resolver resolves textual identifiers and snapshot references against the database
type Resolver struct {
	teams *repository.TeamRepository
	stats *repository.StatsRepository
}

// New creates a Resolver backed by the given database
func New(db *repository.Database) *Resolver {
	return &Resolver{
		teams: db.Teams,
		stats: db.Stats,
	}
}

// TeamIDs resolves a column of team names to team ids
func (r *Resolver) TeamIDs(ctx context.Context, names []string) ([]int, error) {
	index, err := r.teams.NameIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build team name index: %w", err)
	}

	ids, err := ValuesToForeignKey(index, names)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team names: %w", err)
	}

	return ids, nil
}

// StatsSnapshot resolves, per team, the most recent stats snapshot with
// scrape_date on or before the cutoff. Teams without a qualifying snapshot
// resolve to null rather than an error.
func (r *Resolver) StatsSnapshot(ctx context.Context, teamIDs []int, cutoff time.Time) ([]sql.NullInt32, error) {
	latest, err := r.stats.LatestByScrapeDate(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stats snapshots: %w", err)
	}

	ids := make([]sql.NullInt32, len(teamIDs))
	for i, teamID := range teamIDs {
		if statsID, ok := latest[teamID]; ok {
			ids[i] = sql.NullInt32{Int32: int32(statsID), Valid: true}
		}
	}

	return ids, nil
}

// StatsAsOf returns the per-team snapshot ids with the greatest scrape_time
// strictly before the boundary
func (r *Resolver) StatsAsOf(ctx context.Context, before time.Time) (map[int]int, error) {
	latest, err := r.stats.LatestByScrapeTime(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stats as of %s: %w", before.Format(time.RFC3339), err)
	}

	return latest, nil
}
