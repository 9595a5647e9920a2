package repository

import (
	"context"
	"fmt"
	"time"

	"nbasched/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// StatsRepository handles team stats snapshot database operations
type StatsRepository struct {
	db *Database
}

// Insert inserts a new team stats snapshot
func (r *StatsRepository) Insert(ctx context.Context, stats *models.TeamStats) error {
	query := `
		INSERT INTO team_stats (
			team_id, scrape_time, scrape_date,
			wins, losses, points_per_game, points_allowed_per_game
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		stats.TeamID, stats.ScrapeTime, stats.ScrapeDate,
		stats.Wins, stats.Losses, stats.PointsPerGame, stats.PointsAllowedPerGame,
	).Scan(&stats.ID, &stats.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert team stats: %w", err)
	}

	log.Debug().
		Int("team_id", stats.TeamID).
		Time("scrape_time", stats.ScrapeTime).
		Msg("Team stats snapshot inserted")

	return nil
}

// LatestByScrapeDate returns, per team, the id of the snapshot with the
// greatest scrape_time among snapshots with scrape_date on or before cutoff.
// Teams without a qualifying snapshot are absent from the map.
func (r *StatsRepository) LatestByScrapeDate(ctx context.Context, cutoff time.Time) (map[int]int, error) {
	query := `
		SELECT DISTINCT ON (team_id) team_id, id
		FROM team_stats
		WHERE scrape_date <= $1
		ORDER BY team_id, scrape_time DESC
	`

	return r.latestSnapshots(ctx, query, cutoff)
}

// LatestByScrapeTime returns, per team, the id of the snapshot with the
// greatest scrape_time strictly before the boundary
func (r *StatsRepository) LatestByScrapeTime(ctx context.Context, before time.Time) (map[int]int, error) {
	query := `
		SELECT DISTINCT ON (team_id) team_id, id
		FROM team_stats
		WHERE scrape_time < $1
		ORDER BY team_id, scrape_time DESC
	`

	return r.latestSnapshots(ctx, query, before)
}

func (r *StatsRepository) latestSnapshots(ctx context.Context, query string, bound time.Time) (map[int]int, error) {
	rows, err := r.db.Pool.Query(ctx, query, bound)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make(map[int]int)
	for rows.Next() {
		var teamID, id int
		if err := rows.Scan(&teamID, &id); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots[teamID] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// Count returns the total number of stats snapshots
func (r *StatsRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM team_stats`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count team stats: %w", err)
	}

	return count, nil
}
