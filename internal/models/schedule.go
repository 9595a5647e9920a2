package models

import (
	"fmt"
	"time"
)

// ScheduleRow is one fetched schedule entry after decoding. Team names are
// textual identifiers resolved to surrogate keys during enrichment, and the
// start time is timezone-aware as delivered by the feed.
type ScheduleRow struct {
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	HomeTeamScore int       `json:"home_team_score"`
	AwayTeamScore int       `json:"away_team_score"`
	StartTime     time.Time `json:"start_time"`
}

// ScheduleRowInput mirrors the upstream JSON payload
type ScheduleRowInput struct {
	HomeTeam      string `json:"HomeTeam"`
	AwayTeam      string `json:"AwayTeam"`
	HomeTeamScore *int   `json:"HomeTeamScore,omitempty"`
	AwayTeamScore *int   `json:"AwayTeamScore,omitempty"`
	DateTime      string `json:"DateTime"` // ISO 8601 format
}

// ToScheduleRow converts ScheduleRowInput (from the feed) to a ScheduleRow.
// Missing scores decode to the 0 "not yet played" sentinel.
func (si *ScheduleRowInput) ToScheduleRow() (*ScheduleRow, error) {
	startTime, err := time.Parse(time.RFC3339, si.DateTime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start time %q: %w", si.DateTime, err)
	}

	row := &ScheduleRow{
		HomeTeam:  si.HomeTeam,
		AwayTeam:  si.AwayTeam,
		StartTime: startTime,
	}
	if si.HomeTeamScore != nil {
		row.HomeTeamScore = *si.HomeTeamScore
	}
	if si.AwayTeamScore != nil {
		row.AwayTeamScore = *si.AwayTeamScore
	}

	return row, nil
}
