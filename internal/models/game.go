package models

import (
	"database/sql"
	"time"
)

// Game represents one row of the persisted season schedule
type Game struct {
	ID         int       `db:"id"`
	HomeTeamID int       `db:"home_team_id"`
	AwayTeamID int       `db:"away_team_id"`
	StartTime  time.Time `db:"start_time"` // timezone-naive wall clock
	GameDate   time.Time `db:"game_date"`  // fixed at creation, not recomputed on reschedule

	// Scores: 0 means the game has not been played yet
	HomeTeamScore int `db:"home_team_score"`
	AwayTeamScore int `db:"away_team_score"`

	// MOV is the margin of victory, home score minus away score
	MOV int `db:"mov"`

	// Stats snapshot references, null until a qualifying snapshot exists
	HomeStatsID sql.NullInt32 `db:"home_stats_id"`
	AwayStatsID sql.NullInt32 `db:"away_stats_id"`

	// Playoffs is a placeholder, currently always null
	Playoffs sql.NullBool `db:"playoffs"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GameKey is the natural key of a schedule row. Two persisted rows never
// share a key, and reconciliation matches rows by it.
type GameKey struct {
	HomeTeamID int
	AwayTeamID int
	GameDate   string
}

// Key returns the natural key of the game
func (g *Game) Key() GameKey {
	return GameKey{
		HomeTeamID: g.HomeTeamID,
		AwayTeamID: g.AwayTeamID,
		GameDate:   g.GameDate.Format("2006-01-02"),
	}
}

// Played returns true once a final score has been recorded
func (g *Game) Played() bool {
	return g.HomeTeamScore != 0
}

// NaiveTime strips the zone from t, keeping its wall-clock reading.
// Persisted start times are stored without a zone, so fetched timestamps
// are normalized through this before any comparison.
func NaiveTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DateOf truncates t to its calendar date
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
