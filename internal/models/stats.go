package models

import (
	"database/sql"
	"time"
)

// TeamStats is a timestamped snapshot of one team's season statistics.
// Snapshots accumulate over the season; "the stats as of date D" is the
// row with the greatest scrape_time under the date bound, per team.
type TeamStats struct {
	ID         int       `db:"id"`
	TeamID     int       `db:"team_id"`
	ScrapeTime time.Time `db:"scrape_time"`
	ScrapeDate time.Time `db:"scrape_date"`

	Wins                 int             `db:"wins"`
	Losses               int             `db:"losses"`
	PointsPerGame        sql.NullFloat64 `db:"points_per_game"`
	PointsAllowedPerGame sql.NullFloat64 `db:"points_allowed_per_game"`

	CreatedAt time.Time `db:"created_at"`
}
