package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrHorizonNotFound signals a fetched batch that does not extend at least
// one day past the as-of date. Schedule data must span through tomorrow;
// anything shorter means a stale or malformed fetch.
var ErrHorizonNotFound = errors.New("fetched schedule does not extend past tomorrow")

// MissingRescheduleError is returned when a game's start time has changed
// but no replacement row exists in the fetched batch
type MissingRescheduleError struct {
	HomeTeamID int
	AwayTeamID int
	GameDate   time.Time
}

func (e *MissingRescheduleError) Error() string {
	return fmt.Sprintf(
		"game time for %d @ %d on %s has changed, but no replacement row was found",
		e.AwayTeamID, e.HomeTeamID, e.GameDate.Format("2006-01-02"),
	)
}

// AmbiguousRescheduleError is returned when a game's start time has changed
// and more than one replacement row matches its natural key
type AmbiguousRescheduleError struct {
	HomeTeamID int
	AwayTeamID int
	GameDate   time.Time
	Matches    int
}

func (e *AmbiguousRescheduleError) Error() string {
	return fmt.Sprintf(
		"game time for %d @ %d on %s has changed, but %d replacement rows match",
		e.AwayTeamID, e.HomeTeamID, e.GameDate.Format("2006-01-02"), e.Matches,
	)
}
