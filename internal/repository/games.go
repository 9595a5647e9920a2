package repository

import (
	"context"
	"fmt"

	"nbasched/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// GameRepository handles schedule table database operations.
// Rows are inserted once per season load and only ever updated or
// deleted afterwards.
type GameRepository struct {
	db *Database
}

const gameColumns = `
	id, home_team_id, away_team_id, start_time, game_date,
	home_team_score, away_team_score, mov,
	home_stats_id, away_stats_id, playoffs,
	created_at, updated_at
`

func scanGame(row pgx.Row) (*models.Game, error) {
	var game models.Game
	err := row.Scan(
		&game.ID, &game.HomeTeamID, &game.AwayTeamID, &game.StartTime, &game.GameDate,
		&game.HomeTeamScore, &game.AwayTeamScore, &game.MOV,
		&game.HomeStatsID, &game.AwayStatsID, &game.Playoffs,
		&game.CreatedAt, &game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// InsertBatch bulk-inserts enriched schedule rows for the initial season load
func (r *GameRepository) InsertBatch(ctx context.Context, games []*models.Game) error {
	query := `
		INSERT INTO games (
			home_team_id, away_team_id, start_time, game_date,
			home_team_score, away_team_score, mov,
			home_stats_id, away_stats_id, playoffs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, game := range games {
		batch.Queue(
			query,
			game.HomeTeamID, game.AwayTeamID, game.StartTime, game.GameDate,
			game.HomeTeamScore, game.AwayTeamScore, game.MOV,
			game.HomeStatsID, game.AwayStatsID, game.Playoffs,
		)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range games {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}
	}

	log.Info().Int("count", len(games)).Msg("Schedule rows inserted")
	return nil
}

// ListAll retrieves the full persisted schedule ordered by start time
func (r *GameRepository) ListAll(ctx context.Context) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY start_time`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// GetByKey retrieves a game by its natural key
func (r *GameRepository) GetByKey(ctx context.Context, homeTeamID, awayTeamID int, gameDate string) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE home_team_id = $1 AND away_team_id = $2 AND game_date = $3
	`

	game, err := scanGame(r.db.Pool.QueryRow(ctx, query, homeTeamID, awayTeamID, gameDate))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("game not found: home=%d away=%d date=%s", homeTeamID, awayTeamID, gameDate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// ApplyChanges applies a reconciliation result in a single transaction:
// deletions first, then the deduplicated update set. Either everything
// commits or nothing does.
func (r *GameRepository) ApplyChanges(ctx context.Context, updates, deletes []*models.Game) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `DELETE FROM games WHERE id = $1`
	for _, game := range deletes {
		result, err := tx.Exec(ctx, deleteQuery, game.ID)
		if err != nil {
			return fmt.Errorf("failed to delete game id=%d: %w", game.ID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("game not found: id=%d", game.ID)
		}
	}

	updateQuery := `
		UPDATE games SET
			start_time = $1,
			home_team_score = $2,
			away_team_score = $3,
			mov = $4,
			home_stats_id = $5,
			away_stats_id = $6,
			updated_at = NOW()
		WHERE id = $7
	`
	for _, game := range updates {
		result, err := tx.Exec(
			ctx, updateQuery,
			game.StartTime, game.HomeTeamScore, game.AwayTeamScore, game.MOV,
			game.HomeStatsID, game.AwayStatsID, game.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update game id=%d: %w", game.ID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("game not found: id=%d", game.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}

	log.Info().
		Int("updated", len(updates)).
		Int("deleted", len(deletes)).
		Msg("Schedule changes applied")

	return nil
}

// Count returns the total number of games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM games`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}
