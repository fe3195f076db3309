package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
)

const scoreboardFixture = `{
	"season": {"type": 2, "year": 2025},
	"week": {"number": 1},
	"events": [
		{
			"id": "401671789",
			"date": "2025-09-07T17:00Z",
			"name": "Denver Broncos at Kansas City Chiefs",
			"competitions": [
				{
					"competitors": [
						{
							"homeAway": "home",
							"score": "27",
							"team": {"abbreviation": "KC", "name": "Chiefs", "location": "Kansas City", "color": "E31837", "alternateColor": "ffb81c", "logo": "https://a.espncdn.com/i/teamlogos/nfl/500/kc.png"}
						},
						{
							"homeAway": "away",
							"score": "20",
							"team": {"abbreviation": "DEN", "name": "Broncos", "location": "Denver", "color": "fb4f14"}
						}
					],
					"status": {"type": {"name": "STATUS_FINAL", "state": "post", "completed": true}}
				}
			],
			"status": {"type": {"name": "STATUS_FINAL", "state": "post", "completed": true}}
		}
	]
}`

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		Logger:         logging.NewNop(),
	})
}

func TestClient_FetchCurrentWeek_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(scoreboardFixture))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	week, err := client.FetchCurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrentWeek error: %v", err)
	}
	if week != 1 {
		t.Fatalf("expected week 1, got %d", week)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if client.ConsecutiveFailures() != 0 {
		t.Fatalf("a successful call must reset the failure streak, got %d", client.ConsecutiveFailures())
	}
}

func TestClient_FetchCurrentWeek_ExhaustedRetriesCountAsOneFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.FetchCurrentWeek(context.Background()); err == nil {
		t.Fatalf("expected an error when the provider keeps failing")
	}
	if client.ConsecutiveFailures() != 1 {
		t.Fatalf("expected failure streak 1, got %d", client.ConsecutiveFailures())
	}
}

func TestClient_FetchCurrentWeek_PermanentFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.FetchCurrentWeek(context.Background()); err == nil {
		t.Fatalf("expected an error on 404")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("a 4xx response must not be retried, got %d attempts", got)
	}
}

func TestClient_FetchWeekGames_MapsScoreboardEvents(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("dates") != "2025" || query.Get("seasontype") != "2" || query.Get("week") != "1" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(scoreboardFixture))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	games, err := client.FetchWeekGames(context.Background(), 1, 2, 2025)
	if err != nil {
		t.Fatalf("FetchWeekGames error: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}

	got := games[0]
	if got.HomeTeam.Code != "KC" || got.AwayTeam.Code != "DEN" {
		t.Fatalf("unexpected matchup: %s vs %s", got.HomeTeam.Code, got.AwayTeam.Code)
	}
	if got.HomeScore == nil || *got.HomeScore != 27 || got.AwayScore == nil || *got.AwayScore != 20 {
		t.Fatalf("unexpected scores: %+v", got)
	}
	if got.Status != "STATUS_FINAL" {
		t.Fatalf("expected final status, got %q", got.Status)
	}
	if got.HomeTeam.PrimaryColor != "#e31837" || got.HomeTeam.SecondaryColor != "#ffb81c" {
		t.Fatalf("colors should be normalized with a hash prefix, got %+v", got.HomeTeam)
	}
	want := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	if !got.KickoffAt.Equal(want) {
		t.Fatalf("expected kickoff %v, got %v", want, got.KickoffAt)
	}
}

func TestClient_FetchWeekGames_CachesResponses(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(scoreboardFixture))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	for i := 0; i < 3; i++ {
		if _, err := client.FetchWeekGames(context.Background(), 1, 2, 2025); err != nil {
			t.Fatalf("FetchWeekGames error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("repeated fetches inside the TTL should hit the provider once, got %d", got)
	}
}

func TestClient_FetchCurrentSeason_FallsBackToCalendarYear(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.now = func() time.Time { return time.Date(2025, 10, 12, 18, 0, 0, 0, time.UTC) }

	info := client.FetchCurrentSeason(context.Background())
	if info.Year != 2025 || info.Phase != 2 {
		t.Fatalf("expected calendar fallback {2025 2}, got %+v", info)
	}
}

func TestParseScore(t *testing.T) {
	t.Parallel()

	if got := parseScore(""); got != nil {
		t.Fatalf("empty score should map to nil, got %v", got)
	}
	if got := parseScore("27"); got == nil || *got != 27 {
		t.Fatalf("expected 27, got %v", got)
	}
	if got := parseScore("n/a"); got != nil {
		t.Fatalf("non-numeric score should map to nil, got %v", got)
	}
}

func TestMapEvent_RequiresHomeAwayPair(t *testing.T) {
	t.Parallel()

	event := scoreboardEvent{
		ID:   "1",
		Date: "2025-09-07T17:00Z",
		Competitions: []scoreboardCompetition{
			{Competitors: []scoreboardCompetitor{{HomeAway: "home", Team: scoreboardTeam{Abbreviation: "KC"}}}},
		},
	}
	if _, ok := mapEvent(event, 1, 2); ok {
		t.Fatalf("an event without both sides must be rejected")
	}
}
