package espn

import (
	"strings"
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

// Wire shapes for the site scoreboard API. Only the fields read here are
// declared; the payload carries far more.
type scoreboardResponse struct {
	Season scoreboardSeason `json:"season"`
	Week   scoreboardWeek   `json:"week"`
	Events []scoreboardEvent `json:"events"`
}

type scoreboardSeason struct {
	Type int `json:"type"`
	Year int `json:"year"`
}

type scoreboardWeek struct {
	Number int `json:"number"`
}

type scoreboardEvent struct {
	ID           string                 `json:"id"`
	Date         string                 `json:"date"`
	Name         string                 `json:"name"`
	Competitions []scoreboardCompetition `json:"competitions"`
	Status       scoreboardStatus       `json:"status"`
}

type scoreboardCompetition struct {
	Competitors []scoreboardCompetitor `json:"competitors"`
	Status      scoreboardStatus       `json:"status"`
}

type scoreboardCompetitor struct {
	HomeAway string          `json:"homeAway"`
	Score    string          `json:"score"`
	Winner   bool            `json:"winner"`
	Team     scoreboardTeam  `json:"team"`
}

type scoreboardTeam struct {
	ID             string `json:"id"`
	Abbreviation   string `json:"abbreviation"`
	DisplayName    string `json:"displayName"`
	ShortDisplay   string `json:"shortDisplayName"`
	Location       string `json:"location"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	AlternateColor string `json:"alternateColor"`
	Logo           string `json:"logo"`
}

type scoreboardStatus struct {
	Type scoreboardStatusType `json:"type"`
}

type scoreboardStatusType struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Completed bool   `json:"completed"`
}

// eventDateLayouts covers the timestamp spellings the scoreboard has used.
var eventDateLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
}

func parseEventDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range eventDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// mapEvent flattens one scoreboard event into a provider-neutral game.
// The second result is false when the event has no usable home/away pair.
func mapEvent(event scoreboardEvent, week, seasonPhase int) (usecase.ExternalGame, bool) {
	if len(event.Competitions) == 0 {
		return usecase.ExternalGame{}, false
	}
	competition := event.Competitions[0]

	var home, away *scoreboardCompetitor
	for idx := range competition.Competitors {
		switch strings.ToLower(strings.TrimSpace(competition.Competitors[idx].HomeAway)) {
		case "home":
			home = &competition.Competitors[idx]
		case "away":
			away = &competition.Competitors[idx]
		}
	}
	if home == nil || away == nil {
		return usecase.ExternalGame{}, false
	}

	status := strings.TrimSpace(competition.Status.Type.Name)
	if status == "" {
		status = strings.TrimSpace(event.Status.Type.Name)
	}

	return usecase.ExternalGame{
		Week:        week,
		SeasonPhase: seasonPhase,
		HomeTeam:    mapTeam(home.Team),
		AwayTeam:    mapTeam(away.Team),
		HomeScore:   parseScore(home.Score),
		AwayScore:   parseScore(away.Score),
		KickoffAt:   parseEventDate(event.Date),
		Status:      status,
	}, true
}

func mapTeam(t scoreboardTeam) usecase.ExternalTeam {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		name = strings.TrimSpace(t.ShortDisplay)
	}
	return usecase.ExternalTeam{
		Code:           strings.TrimSpace(t.Abbreviation),
		Name:           name,
		City:           strings.TrimSpace(t.Location),
		PrimaryColor:   normalizeColor(t.Color),
		SecondaryColor: normalizeColor(t.AlternateColor),
		LogoPath:       strings.TrimSpace(t.Logo),
	}
}

func normalizeColor(raw string) string {
	raw = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "#")
	if raw == "" {
		return ""
	}
	return "#" + raw
}

// parseScore tolerates the empty strings the API sends before kickoff.
func parseScore(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value := 0
	for _, ch := range raw {
		if ch < '0' || ch > '9' {
			return nil
		}
		value = value*10 + int(ch-'0')
	}
	return &value
}
