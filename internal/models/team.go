package models

import "time"

// Team represents an NBA team referenced by schedule rows
type Team struct {
	ID        int       `db:"id"`
	TeamName  string    `db:"team_name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TeamInput is used for creating/updating teams from the upstream feed
type TeamInput struct {
	TeamName string `json:"TeamName"`
}

// ToTeam converts TeamInput (from the feed) to the Team model
func (ti *TeamInput) ToTeam() *Team {
	return &Team{TeamName: ti.TeamName}
}
