package game

import (
	"fmt"
	"strings"
	"time"
)

const (
	PhasePreseason  = 1
	PhaseRegular    = 2
	PhasePostseason = 3
)

const (
	StatusScheduled  = "STATUS_SCHEDULED"
	StatusInProgress = "STATUS_IN_PROGRESS"
	StatusFinal      = "STATUS_FINAL"
	StatusClosed     = "STATUS_CLOSED"
)

// Game is one NFL matchup. Identity within a season is the
// (week, home team, away team) tuple; provider game ids are not stored.
type Game struct {
	ID              string
	SeasonID        string
	Week            int
	SeasonPhase     int
	HomeTeamID      string
	AwayTeamID      string
	HomeScore       *int
	AwayScore       *int
	KickoffAt       time.Time
	Status          string
	ScoresUpdatedAt *time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

// IsFinalStatus reports whether a status string marks a game that can no
// longer change, across the spellings the provider has used.
func IsFinalStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinal, StatusClosed, "FINAL", "CLOSED":
		return true
	default:
		return false
	}
}

func IsScheduledStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusScheduled, "SCHEDULED":
		return true
	default:
		return false
	}
}

// WinnerTeamID returns the winning side of a finished game. The second
// result is false when the game is not final, has missing scores, or
// ended in a tie.
func (g Game) WinnerTeamID() (string, bool) {
	if !IsFinalStatus(g.Status) || g.HomeScore == nil || g.AwayScore == nil {
		return "", false
	}
	switch {
	case *g.HomeScore > *g.AwayScore:
		return g.HomeTeamID, true
	case *g.AwayScore > *g.HomeScore:
		return g.AwayTeamID, true
	default:
		return "", false
	}
}

func (g Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if g.SeasonID == "" {
		return fmt.Errorf("game season id is required")
	}
	if g.Week <= 0 {
		return fmt.Errorf("game week must be greater than zero")
	}
	if g.SeasonPhase < PhasePreseason || g.SeasonPhase > PhasePostseason {
		return fmt.Errorf("game season phase %d is not valid", g.SeasonPhase)
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" {
		return fmt.Errorf("game team ids are required")
	}

	return nil
}
