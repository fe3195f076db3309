package season

import "fmt"

// Season is one NFL season. At most one season is marked current.
type Season struct {
	ID        string
	Year      int
	IsCurrent bool
}

func (s Season) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("season id is required")
	}
	if s.Year < 1920 {
		return fmt.Errorf("season year %d is not valid", s.Year)
	}

	return nil
}
