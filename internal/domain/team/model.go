package team

import (
	"fmt"
	"strings"
)

// Team is one NFL franchise, keyed internally by ID and externally by its
// abbreviation code.
type Team struct {
	ID             string
	Code           string
	Name           string
	City           string
	Conference     string
	Division       string
	PrimaryColor   string
	SecondaryColor string
	LogoPath       string
}

const (
	ConferenceUnknown = "Unknown"
	DivisionUnknown   = "Unknown"
)

// codeAliases maps provider abbreviations to the codes stored here.
var codeAliases = map[string]string{
	"WAS": "WSH",
}

// NormalizeCode canonicalizes a provider team abbreviation.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if alias, ok := codeAliases[code]; ok {
		return alias
	}
	return code
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Code == "" {
		return fmt.Errorf("team code is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
