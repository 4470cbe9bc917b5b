package sleeper

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/platform/resilience"
	"github.com/gridironlab/valuation-engine/internal/usecase"
	"github.com/gridironlab/valuation-engine/internal/valuation"
)

const (
	defaultBaseURL      = "https://api.sleeper.app/v1"
	rosterFetchParallel = 4
)

var errSleeperTransient = crerr.New("sleeper transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Sleeper public API. The players dump doubles as
// the attribute feed for rebuilds, so the last fetched dump is cached
// on the client.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight

	attrMu sync.RWMutex
	attrs  map[string]PlayerAttributes
}

// PlayerAttributes is what the valuation pipeline needs per player,
// keyed by the Sleeper external id.
type PlayerAttributes struct {
	Age          int
	InjuryStatus valuation.InjuryStatus
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		attrs:          map[string]PlayerAttributes{},
	}
}

type sleeperPlayer struct {
	PlayerID         string   `json:"player_id"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	FullName         string   `json:"full_name"`
	Team             string   `json:"team"`
	Position         string   `json:"position"`
	FantasyPositions []string `json:"fantasy_positions"`
	BirthDate        string   `json:"birth_date"`
	Age              int      `json:"age"`
	InjuryStatus     string   `json:"injury_status"`
	Status           string   `json:"status"`
	EspnID           int64    `json:"espn_id"`
}

// FetchPlayers downloads the full NFL players dump and maps it to
// identity records. Players without a recognizable fantasy position
// are skipped. The per-player attributes are retained for
// AttributesByExternalID lookups during rebuilds.
func (c *Client) FetchPlayers(ctx context.Context) ([]identity.IncomingRecord, error) {
	var dump map[string]sleeperPlayer
	if err := c.doJSON(ctx, "/players/nfl", &dump); err != nil {
		return nil, fmt.Errorf("fetch players dump: %w", err)
	}

	seenAt := time.Now().UTC()
	records := make([]identity.IncomingRecord, 0, len(dump))
	attrs := make(map[string]PlayerAttributes, len(dump))
	for id, p := range dump {
		if p.PlayerID == "" {
			p.PlayerID = id
		}
		position, ok := mapPosition(p)
		if !ok {
			continue
		}
		name := strings.TrimSpace(p.FullName)
		if name == "" {
			name = strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
		}
		if name == "" {
			continue
		}

		externalIDs := map[identity.Source]string{
			identity.SourceSleeper: p.PlayerID,
		}
		if p.EspnID > 0 {
			externalIDs[identity.SourceESPN] = strconv.FormatInt(p.EspnID, 10)
		}

		records = append(records, identity.IncomingRecord{
			Source:      identity.SourceSleeper,
			ExternalIDs: externalIDs,
			FullName:    name,
			BirthYear:   birthYear(p.BirthDate),
			Team:        strings.TrimSpace(p.Team),
			Position:    position,
			Confidence:  1.0,
			SeenAt:      seenAt,
		})
		attrs[p.PlayerID] = PlayerAttributes{
			Age:          p.Age,
			InjuryStatus: mapInjuryStatus(p.InjuryStatus),
		}
	}

	c.attrMu.Lock()
	c.attrs = attrs
	c.attrMu.Unlock()

	c.logger.InfoContext(ctx, "sleeper players dump fetched",
		"dump_size", len(dump),
		"mapped_records", len(records),
	)
	return records, nil
}

// AttributesByExternalID returns attributes from the last fetched
// players dump.
func (c *Client) AttributesByExternalID(sleeperID string) (PlayerAttributes, bool) {
	c.attrMu.RLock()
	defer c.attrMu.RUnlock()
	attrs, ok := c.attrs[sleeperID]
	return attrs, ok
}

type sleeperRoster struct {
	Players []string `json:"players"`
}

// FetchRosteredPlayerIDs collects the union of Sleeper player ids
// rostered across the given leagues. Leagues are fetched concurrently.
func (c *Client) FetchRosteredPlayerIDs(ctx context.Context, leagueIDs []string) ([]string, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	seen := map[string]struct{}{}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(rosterFetchParallel)
	for _, leagueID := range leagueIDs {
		leagueID := strings.TrimSpace(leagueID)
		if leagueID == "" {
			continue
		}
		p.Go(func(ctx context.Context) error {
			var rosters []sleeperRoster
			if err := c.doJSON(ctx, "/league/"+leagueID+"/rosters", &rosters); err != nil {
				return fmt.Errorf("fetch rosters league_id=%s: %w", leagueID, err)
			}
			mu.Lock()
			for _, roster := range rosters {
				for _, playerID := range roster.Players {
					if playerID == "" {
						continue
					}
					seen[playerID] = struct{}{}
				}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for playerID := range seen {
		out = append(out, playerID)
	}
	return out, nil
}

type sleeperLeague struct {
	TotalRosters    int                `json:"total_rosters"`
	RosterPositions []string           `json:"roster_positions"`
	ScoringSettings map[string]float64 `json:"scoring_settings"`
	Settings        struct {
		Type int `json:"type"`
	} `json:"settings"`
}

// FetchLeagueSettings maps one Sleeper league to profile settings
// suitable for ProfileService.Resolve. Settings type 2 is dynasty.
func (c *Client) FetchLeagueSettings(ctx context.Context, leagueID string) (profile.LeagueProfile, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return profile.LeagueProfile{}, fmt.Errorf("league id is required")
	}

	var league sleeperLeague
	if err := c.doJSON(ctx, "/league/"+leagueID, &league); err != nil {
		return profile.LeagueProfile{}, fmt.Errorf("fetch league league_id=%s: %w", leagueID, err)
	}

	format := profile.FormatRedraft
	if league.Settings.Type == 2 {
		format = profile.FormatDynasty
	}

	slots := map[profile.SlotType]int{}
	benchSize := 0
	superflex := false
	for _, raw := range league.RosterPositions {
		slot := profile.SlotType(strings.ToUpper(strings.TrimSpace(raw)))
		switch slot {
		case "BN", "TAXI", "IR", "":
			if slot == "BN" {
				benchSize++
			}
			continue
		case profile.SlotSuperFlex:
			superflex = true
		}
		slots[slot]++
	}
	if slots[profile.SlotQB] >= 2 {
		superflex = true
	}

	return profile.LeagueProfile{
		Format:        format,
		NumTeams:      league.TotalRosters,
		Superflex:     superflex,
		PPR:           league.ScoringSettings["rec"],
		TEPremiumPPR:  league.ScoringSettings["bonus_rec_te"],
		StartingSlots: slots,
		BenchSize:     benchSize,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sleeper circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: player feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isSleeperCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode sleeper payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSleeperTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errSleeperTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: sleeper status=%d", errSleeperTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("sleeper status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("sleeper request failed")
	}
	c.logger.WarnContext(ctx, "sleeper request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func mapPosition(p sleeperPlayer) (identity.Position, bool) {
	candidates := make([]string, 0, len(p.FantasyPositions)+1)
	candidates = append(candidates, p.FantasyPositions...)
	candidates = append(candidates, p.Position)
	for _, raw := range candidates {
		position := identity.Position(strings.ToUpper(strings.TrimSpace(raw)))
		if _, ok := identity.AllPositions[position]; ok {
			return position, true
		}
		switch position {
		case "DE", "DT", "NT":
			return identity.PositionDL, true
		case "ILB", "OLB", "MLB":
			return identity.PositionLB, true
		case "CB", "S", "FS", "SS":
			return identity.PositionDB, true
		}
	}
	return "", false
}

func mapInjuryStatus(raw string) valuation.InjuryStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "QUESTIONABLE":
		return valuation.InjuryQuestionable
	case "DOUBTFUL":
		return valuation.InjuryDoubtful
	case "OUT":
		return valuation.InjuryOut
	case "IR":
		return valuation.InjuryIR
	case "PUP":
		return valuation.InjuryPUP
	default:
		return valuation.InjuryHealthy
	}
}

func birthYear(birthDate string) *int {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(birthDate))
	if err != nil {
		return nil
	}
	year := parsed.Year()
	return &year
}

func isSleeperCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errSleeperTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	const max = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > max {
		return body[:max] + "..."
	}
	return body
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
