// Package provider implements the outbound client for the external
// match-data feed.
package provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/matchpulse/match-sync/internal/platform/logging"
	"github.com/matchpulse/match-sync/internal/platform/resilience"
	"github.com/matchpulse/match-sync/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.matchfeed.io/v1"
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
	maxResponseBytes   = 6 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`(api_key|apikey|token)=[^&\s"']+`)
var errProviderTransient = crerr.New("match feed transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	// MaxAttempts caps total request attempts, retries included.
	MaxAttempts int
	// BackoffBase is the delay before the first retry; it doubles per
	// attempt. Kept configurable so tests do not sleep for real.
	BackoffBase    time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches raw match rows over HTTP with bounded retries, a circuit
// breaker, and single-flight request collapsing.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxAttempts    int
	backoffBase    time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight[[]byte]
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
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxAttempts:    maxAttempts,
		backoffBase:    backoffBase,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchMatches pulls one status batch from the feed. The upstream uses
// "finished" where the store uses completed, so the query value is mapped
// on the way out.
func (c *Client) FetchMatches(ctx context.Context, status string, limit int) ([]usecase.RawMatch, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return nil, fmt.Errorf("%w: sync status must not be empty", usecase.ErrInvalidInput)
	}
	if status == usecase.SyncTypeCompleted {
		status = "finished"
	}
	if limit <= 0 {
		limit = 100
	}

	query := url.Values{}
	query.Set("status", status)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("include_v2", "false")

	raw, err := c.doJSON(ctx, "/market", query)
	if err != nil {
		return nil, fmt.Errorf("fetch matches status=%s: %w", status, err)
	}

	var envelope struct {
		Data []usecase.RawMatch `json:"data"`
	}
	if decodeErr := sonic.Unmarshal(raw, &envelope); decodeErr == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	// Older feed deployments return a bare array.
	var rows []usecase.RawMatch
	if decodeErr := sonic.Unmarshal(raw, &rows); decodeErr != nil {
		return nil, fmt.Errorf("decode feed payload: %w", decodeErr)
	}
	return rows, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "match feed circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: match feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		body, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return body, reqErr
	})
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errProviderTransient, c.sanitize(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errProviderTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				if attempt > 1 {
					c.logger.InfoContext(ctx, "match feed request recovered", "url", fullURL, "attempt", attempt)
				}
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errProviderTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		delay := c.backoffDelay(attempt)
		c.logger.WarnContext(ctx, "match feed request attempt failed",
			"url", fullURL,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"backoff", delay,
			"error", lastErr,
		)

		if attempt == c.maxAttempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	return nil, lastErr
}

// backoffDelay doubles per attempt: base, 2*base, 4*base, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if c.apiKey != "" {
		value = strings.ReplaceAll(value, c.apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "$1=REDACTED")
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return stderrors.Is(err, errProviderTransient)
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return true
	}
	return status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
