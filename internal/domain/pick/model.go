package pick

import (
	"fmt"
	"time"
)

// Pick is one user's selection for one game inside a pool. IsCorrect stays
// nil until the game finishes and the scoring pass runs.
type Pick struct {
	ID         string
	UserID     string
	PoolID     string
	GameID     string
	TeamID     string
	IsCorrect  *bool
	Tiebreaker *int
	UpdatedAt  time.Time
}

func (p Pick) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pick id is required")
	}
	if p.UserID == "" {
		return fmt.Errorf("pick user id is required")
	}
	if p.GameID == "" {
		return fmt.Errorf("pick game id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("pick team id is required")
	}

	return nil
}
