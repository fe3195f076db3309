package espn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tbrandt27/nfl-pickem/internal/platform/cache"
	"github.com/tbrandt27/nfl-pickem/internal/platform/logging"
	"github.com/tbrandt27/nfl-pickem/internal/platform/resilience"
	"github.com/tbrandt27/nfl-pickem/internal/usecase"
)

const (
	defaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"

	scoreboardCacheTTL = 5 * time.Minute
	seasonCacheTTL     = time.Hour
	scheduleCacheTTL   = 30 * time.Minute

	// schedulePause spaces out the per-week calls of a full schedule pull.
	schedulePause = 150 * time.Millisecond

	preseasonWeeks     = 4
	regularSeasonWeeks = 18
)

var errESPNTransient = crerr.New("espn transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	Logger         *logging.Logger
	Cache          *cache.Store
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	retryCfg       resilience.RetryConfig
	logger         *logging.Logger
	store          *cache.Store
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	failureStreak  atomic.Int64
	now            func() time.Time
	pause          time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	store := cfg.Cache
	if store == nil {
		store = cache.NewStore(scoreboardCacheTTL)
	}

	retryCfg := resilience.NormalizeRetryConfig(resilience.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay,
	})
	retryCfg.Retryable = func(err error) bool {
		return errors.Is(err, errESPNTransient)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		retryCfg:       retryCfg,
		logger:         logger,
		store:          store,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		now:            time.Now,
		pause:          schedulePause,
	}
}

// ConsecutiveFailures reports the current run of failed provider calls.
// A successful call resets it to zero.
func (c *Client) ConsecutiveFailures() int {
	return int(c.failureStreak.Load())
}

// FetchCurrentSeason never fails. When the scoreboard is unreachable it
// falls back to the current calendar year and the regular season phase.
func (c *Client) FetchCurrentSeason(ctx context.Context) usecase.SeasonInfo {
	payload, err := c.fetchScoreboard(ctx, nil, seasonCacheTTL)
	if err != nil || payload.Season.Year <= 0 {
		c.logger.WarnContext(ctx, "fetch current season failed, using calendar fallback", "error", err)
		return usecase.SeasonInfo{
			Year:  c.now().UTC().Year(),
			Phase: 2,
			Week:  0,
		}
	}

	phase := payload.Season.Type
	if phase < 1 || phase > 3 {
		phase = 2
	}
	return usecase.SeasonInfo{
		Year:  payload.Season.Year,
		Phase: phase,
		Week:  payload.Week.Number,
	}
}

func (c *Client) FetchCurrentWeek(ctx context.Context) (int, error) {
	payload, err := c.fetchScoreboard(ctx, nil, scoreboardCacheTTL)
	if err != nil {
		return 0, fmt.Errorf("fetch current week: %w", err)
	}
	if payload.Week.Number <= 0 {
		return 0, fmt.Errorf("scoreboard reported no current week")
	}
	return payload.Week.Number, nil
}

func (c *Client) FetchWeekGames(ctx context.Context, week, seasonPhase, year int) ([]usecase.ExternalGame, error) {
	if week <= 0 {
		return nil, fmt.Errorf("week must be greater than zero")
	}
	if year <= 0 {
		return nil, fmt.Errorf("year must be greater than zero")
	}
	if seasonPhase < 1 || seasonPhase > 3 {
		seasonPhase = 2
	}

	query := url.Values{}
	query.Set("dates", strconv.Itoa(year))
	query.Set("seasontype", strconv.Itoa(seasonPhase))
	query.Set("week", strconv.Itoa(week))

	payload, err := c.fetchScoreboard(ctx, query, scoreboardCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("fetch week games week=%d phase=%d year=%d: %w", week, seasonPhase, year, err)
	}

	out := make([]usecase.ExternalGame, 0, len(payload.Events))
	for _, event := range payload.Events {
		mapped, ok := mapEvent(event, week, seasonPhase)
		if !ok {
			c.logger.WarnContext(ctx, "skip scoreboard event without home/away pair", "event_id", event.ID, "event_name", event.Name)
			continue
		}
		out = append(out, mapped)
	}
	return out, nil
}

// FetchFullSchedule pulls every week of the season one request at a time.
// Weeks that fail are logged and skipped so one bad payload cannot sink
// the whole pull.
func (c *Client) FetchFullSchedule(ctx context.Context, year int, includePreseason bool) ([]usecase.ExternalGame, error) {
	if year <= 0 {
		return nil, fmt.Errorf("year must be greater than zero")
	}

	type weekRef struct {
		week  int
		phase int
	}
	refs := make([]weekRef, 0, preseasonWeeks+regularSeasonWeeks)
	if includePreseason {
		for week := 1; week <= preseasonWeeks; week++ {
			refs = append(refs, weekRef{week: week, phase: 1})
		}
	}
	for week := 1; week <= regularSeasonWeeks; week++ {
		refs = append(refs, weekRef{week: week, phase: 2})
	}

	out := make([]usecase.ExternalGame, 0, 16*len(refs))
	for idx, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := fmt.Sprintf("schedule:%d:%d:%d", year, ref.phase, ref.week)
		loaded, err := c.store.GetOrLoadTTL(ctx, key, scheduleCacheTTL, func(ctx context.Context) (any, error) {
			return c.FetchWeekGames(ctx, ref.week, ref.phase, year)
		})
		if err != nil {
			c.logger.WarnContext(ctx, "fetch schedule week failed, continuing", "year", year, "phase", ref.phase, "week", ref.week, "error", err)
			continue
		}
		games, ok := loaded.([]usecase.ExternalGame)
		if !ok {
			return nil, fmt.Errorf("unexpected cached schedule type %T", loaded)
		}
		out = append(out, games...)

		if idx < len(refs)-1 && c.pause > 0 {
			timer := time.NewTimer(c.pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return out, nil
}

func (c *Client) fetchScoreboard(ctx context.Context, query url.Values, ttl time.Duration) (scoreboardResponse, error) {
	fullURL := c.baseURL + "/scoreboard"
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	loaded, err := c.store.GetOrLoadTTL(ctx, "scoreboard:"+fullURL, ttl, func(ctx context.Context) (any, error) {
		raw, reqErr := c.doRequest(ctx, fullURL)
		if reqErr != nil {
			return nil, reqErr
		}

		var payload scoreboardResponse
		if decodeErr := sonic.Unmarshal(raw, &payload); decodeErr != nil {
			return nil, fmt.Errorf("decode scoreboard payload: %w", decodeErr)
		}
		return payload, nil
	})
	if err != nil {
		return scoreboardResponse{}, err
	}

	payload, ok := loaded.(scoreboardResponse)
	if !ok {
		return scoreboardResponse{}, fmt.Errorf("unexpected cached payload type %T", loaded)
	}
	return payload, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: score provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	var raw []byte
	err := resilience.Retry(ctx, c.retryCfg, func(ctx context.Context) error {
		req, buildErr := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if buildErr != nil {
			return fmt.Errorf("build request: %w", buildErr)
		}
		req.Header.Set("accept", "application/json")

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return fmt.Errorf("%w: send request: %v", errESPNTransient, doErr)
		}
		defer func() { _ = resp.Body.Close() }()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if readErr != nil {
			return fmt.Errorf("%w: read response body: %v", errESPNTransient, readErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) {
				return fmt.Errorf("%w: provider status=%d", errESPNTransient, resp.StatusCode)
			}
			return fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(body))
		}

		raw = body
		return nil
	})

	if c.circuitEnabled {
		if err != nil && errors.Is(err, errESPNTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}

	if err != nil {
		c.failureStreak.Add(1)
		c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "consecutive_failures", c.failureStreak.Load(), "error", err)
		return nil, err
	}

	c.failureStreak.Store(0)
	return raw, nil
}

func isRetryableStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}
