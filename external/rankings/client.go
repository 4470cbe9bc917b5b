package rankings

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/platform/resilience"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

const defaultBaseURL = "https://api.fantasycalc.com/values"

var errRankingsTransient = crerr.New("rankings transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Source         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client pulls consensus market ranks from a rankings provider. Rank
// rows come back keyed by Sleeper id, which the sync layer resolves
// to internal identities.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	source         string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
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
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "fantasycalc"
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		source:         source,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type rankRow struct {
	Player struct {
		SleeperID string `json:"sleeperId"`
	} `json:"player"`
	OverallRank          int      `json:"overallRank"`
	ProductionPercentile *float64 `json:"productionPercentile"`
}

// FetchRanks pulls the current consensus board for one format. The
// provider query is derived from the format key so dynasty superflex
// boards differ from redraft one-QB boards.
func (c *Client) FetchRanks(ctx context.Context, formatKey string) ([]usecase.ExternalRank, error) {
	formatKey = strings.TrimSpace(formatKey)
	if formatKey == "" {
		return nil, fmt.Errorf("format key is required")
	}

	values := url.Values{}
	values.Set("isDynasty", fmt.Sprintf("%t", strings.HasPrefix(formatKey, "dynasty")))
	if strings.Contains(formatKey, "_sf") {
		values.Set("numQbs", "2")
	} else {
		values.Set("numQbs", "1")
	}
	values.Set("ppr", pprFromFormatKey(formatKey))

	fullURL := c.baseURL + "/current?" + values.Encode()

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "rankings circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: rankings provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errRankingsTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	var rows []rankRow
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode rankings payload: %w", err)
	}

	ranks := make([]usecase.ExternalRank, 0, len(rows))
	for _, row := range rows {
		if row.Player.SleeperID == "" || row.OverallRank <= 0 {
			continue
		}
		ranks = append(ranks, usecase.ExternalRank{
			IDSource:             identity.SourceSleeper,
			ExternalID:           row.Player.SleeperID,
			Rank:                 row.OverallRank,
			ProductionPercentile: row.ProductionPercentile,
			Provider:             c.source,
		})
	}

	c.logger.InfoContext(ctx, "rankings feed fetched",
		"format_key", formatKey,
		"rows", len(rows),
		"usable", len(ranks),
	)
	return ranks, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errRankingsTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errRankingsTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: rankings status=%d", errRankingsTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("rankings status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

func pprFromFormatKey(formatKey string) string {
	switch {
	case strings.Contains(formatKey, "_full_"):
		return "1"
	case strings.Contains(formatKey, "_half_"):
		return "0.5"
	default:
		return "0"
	}
}
