package alerting

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
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/platform/resilience"
)

var errAlertTransient = crerr.New("alert webhook transient failure")

// Event is one operational alert, e.g. a blocked rebuild or a failed
// universe validation.
type Event struct {
	Kind      string         `json:"kind"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	FormatKey string         `json:"format_key,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	At        time.Time      `json:"at"`
}

type PublisherConfig struct {
	WebhookURL     string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher posts alert events to a webhook. Delivery is best effort:
// callers log failures but never fail the triggering operation.
type Publisher struct {
	client         *http.Client
	webhookURL     string
	token          string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewPublisher(cfg PublisherConfig, logger *logging.Logger) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Publisher{
		client: &http.Client{
			Timeout: timeout,
		},
		webhookURL:     strings.TrimSpace(cfg.WebhookURL),
		token:          strings.TrimSpace(cfg.Token),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "alert webhook circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("alert webhook is temporarily unavailable: %w", err)
		}
	}

	webhookURL, err := validateHTTPURL(p.webhookURL)
	if err != nil {
		return crerr.Wrap(err, "invalid ALERTING_WEBHOOK_URL")
	}
	if strings.TrimSpace(event.Kind) == "" {
		return crerr.New("alert kind is required")
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if strings.TrimSpace(event.Severity) == "" {
		event.Severity = "error"
	}

	body, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal alert event")
	}

	summary := buildAlertSummary(event)
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("alert.kind", event.Kind),
			attribute.String("alert.severity", event.Severity),
			attribute.String("alert.summary", summary),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create alert request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: post alert kind=%s: %v", errAlertTransient, event.Kind, err)
		p.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf("%w: post alert kind=%s status=%d body=%s",
				errAlertTransient, event.Kind, resp.StatusCode, strings.TrimSpace(string(raw)))
			p.recordCircuitResult(callErr)
			return callErr
		}
		callErr := fmt.Errorf("post alert kind=%s status=%d body=%s",
			event.Kind, resp.StatusCode, strings.TrimSpace(string(raw)))
		p.recordCircuitResult(callErr)
		return callErr
	}

	p.logger.InfoContext(ctx, "alert published", "kind", event.Kind, "severity", event.Severity, "summary", summary)
	p.recordCircuitResult(nil)
	return nil
}

func buildAlertSummary(event Event) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(strings.ToUpper(event.Severity))
	_, _ = buf.WriteString(" ")
	_, _ = buf.WriteString(event.Kind)
	if event.FormatKey != "" {
		_, _ = buf.WriteString(" format=")
		_, _ = buf.WriteString(event.FormatKey)
	}
	if event.Message != "" {
		_, _ = buf.WriteString(": ")
		_, _ = buf.WriteString(event.Message)
	}

	return buf.String()
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

func (p *Publisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err == nil {
		p.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errAlertTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
