package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SchemaAdmin handles table lifecycle for the sync service. It declares the
// schedule table with its four foreign-key columns and the unique index on
// the natural key; it carries no business logic.
type SchemaAdmin struct {
	db *Database
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id SERIAL PRIMARY KEY,
		team_name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS team_stats (
		id SERIAL PRIMARY KEY,
		team_id INTEGER NOT NULL REFERENCES teams(id),
		scrape_time TIMESTAMP NOT NULL,
		scrape_date DATE NOT NULL,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		points_per_game DOUBLE PRECISION,
		points_allowed_per_game DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_team_stats_team_scrape
		ON team_stats (team_id, scrape_time DESC)`,
	`CREATE TABLE IF NOT EXISTS games (
		id SERIAL PRIMARY KEY,
		home_team_id INTEGER NOT NULL REFERENCES teams(id),
		away_team_id INTEGER NOT NULL REFERENCES teams(id),
		start_time TIMESTAMP NOT NULL,
		game_date DATE NOT NULL,
		home_team_score INTEGER NOT NULL DEFAULT 0,
		away_team_score INTEGER NOT NULL DEFAULT 0,
		mov INTEGER NOT NULL DEFAULT 0,
		home_stats_id INTEGER REFERENCES team_stats(id),
		away_stats_id INTEGER REFERENCES team_stats(id),
		playoffs BOOLEAN,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_games_natural_key
		ON games (home_team_id, away_team_id, game_date)`,
}

// CreateTables creates the teams, team_stats and games tables if they do not exist
func (a *SchemaAdmin) CreateTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := a.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Info().Msg("Schema created")
	return nil
}

// DropTables drops all sync service tables. Used by tests only.
func (a *SchemaAdmin) DropTables(ctx context.Context) error {
	_, err := a.db.Pool.Exec(ctx, `DROP TABLE IF EXISTS games, team_stats, teams CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	return nil
}
