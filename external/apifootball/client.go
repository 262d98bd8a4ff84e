package apifootball

import (
	"context"
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
	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
	"github.com/riskibarqy/matchwire/internal/platform/resilience"
	"github.com/riskibarqy/matchwire/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultBaseURL = "https://v3.football.api-sports.io"
	defaultTimeout = 20 * time.Second
	maxBodyBytes   = 6 << 20

	headerAPIKey          = "x-apisports-key"
	headerQuotaRemaining  = "x-ratelimit-requests-remaining"
	headerRetryAfter      = "Retry-After"
	defaultRateMultiplier = 4
)

var apiKeyHeaderRegex = regexp.MustCompile(`(?i)x-apisports-key[:=]\s*[^\s&"']+`)

var tracer = otel.Tracer("matchwire/external/apifootball")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	// MaxRetries counts attempts after the first one.
	MaxRetries int
	// RetryInterval is the first backoff wait; later waits grow exponentially.
	RetryInterval              time.Duration
	RateLimitBackoffMultiplier float64
	Logger                     *logging.Logger
	CircuitBreaker             resilience.CircuitBreakerConfig
}

// Client fetches live fixture snapshots from api-football v3.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retry      resilience.RetryPolicy
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight[fetchResult]
	now        func() time.Time
}

type fetchResult struct {
	body      []byte
	remaining int
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
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	retry := resilience.DefaultRetryPolicy()
	retry.MaxRetries = max(cfg.MaxRetries, 0)
	if cfg.RetryInterval > 0 {
		retry.InitialInterval = cfg.RetryInterval
	}
	retry.RateLimitMultiplier = defaultRateMultiplier
	if cfg.RateLimitBackoffMultiplier >= 1 {
		retry.RateLimitMultiplier = cfg.RateLimitBackoffMultiplier
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		retry:      retry,
		logger:     logger,
		breaker:    resilience.NewBreaker("api-football", cfg.CircuitBreaker),
		now:        time.Now,
	}
}

// FetchSnapshot returns the current state of a fixture together with the
// remaining daily quota reported by the provider, or usecase.QuotaUnknown.
func (c *Client) FetchSnapshot(ctx context.Context, fixtureID int64) (match.Snapshot, int, error) {
	if fixtureID <= 0 {
		return match.Snapshot{}, usecase.QuotaUnknown, fmt.Errorf("%w: fixture id must be greater than zero", usecase.ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "apifootball.Client.FetchSnapshot")
	defer span.End()
	span.SetAttributes(attribute.Int64("fixture.id", fixtureID))

	query := url.Values{}
	query.Set("id", strconv.FormatInt(fixtureID, 10))

	res, err := c.get(ctx, "/fixtures", query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch fixture")
		return match.Snapshot{}, res.remaining, err
	}
	span.SetAttributes(attribute.Int("provider.quota_remaining", res.remaining))

	var envelope fixtureEnvelope
	if err := sonic.Unmarshal(res.body, &envelope); err != nil {
		return match.Snapshot{}, res.remaining, crerr.Mark(crerr.Wrapf(err, "decode fixture %d payload", fixtureID), usecase.ErrFatal)
	}
	if err := envelopeError(envelope.Errors); err != nil {
		c.logger.WarnContext(ctx, "api-football reported request errors", "fixture_id", fixtureID, "error", err)
		return match.Snapshot{}, res.remaining, err
	}
	if len(envelope.Response) == 0 {
		return match.Snapshot{}, res.remaining, crerr.Mark(crerr.Newf("fixture %d: empty response", fixtureID), usecase.ErrDataMissing)
	}

	snap := mapSnapshot(envelope.Response[0], c.now().UTC())
	if snap.FixtureID == 0 {
		snap.FixtureID = fixtureID
	}
	span.SetAttributes(attribute.String("fixture.status", snap.Status))
	return snap, res.remaining, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (fetchResult, error) {
	empty := fetchResult{remaining: usecase.QuotaUnknown}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "state", c.breaker.State())
		return empty, crerr.Mark(crerr.Wrap(err, "api-football is temporarily unavailable"), usecase.ErrDependencyUnavailable)
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, shared := c.flight.Do(fullURL, func() (fetchResult, error) {
		res, reqErr := c.executeWithRetry(ctx, fullURL)
		c.breaker.Record(reqErr, isCircuitFailure)
		return res, reqErr
	})
	if shared {
		c.logger.DebugContext(ctx, "api-football request shared with in-flight call", "path", path)
	}
	if err != nil {
		return out, crerr.Wrapf(err, "GET %s", path)
	}
	return out, nil
}

func (c *Client) executeWithRetry(ctx context.Context, fullURL string) (fetchResult, error) {
	remaining := usecase.QuotaUnknown
	attempt := 0

	body, err := resilience.Retry(ctx, c.retry,
		func(b *resilience.ThrottleBackOff) ([]byte, error) {
			attempt++
			raw, quota, err := c.executeRequest(ctx, fullURL, b)
			if quota != usecase.QuotaUnknown {
				remaining = quota
			}
			return raw, err
		},
		func(err error, wait time.Duration) {
			c.logger.WarnContext(ctx, "api-football request failed, retrying",
				"attempt", attempt,
				"wait", wait,
				"error", sanitizeSensitiveText(err.Error(), c.apiKey),
			)
		},
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fetchResult{remaining: remaining}, ctxErr
		}
		c.logger.WarnContext(ctx, "api-football request failed", "url", fullURL, "attempts", attempt, "error", sanitizeSensitiveText(err.Error(), c.apiKey))
		return fetchResult{remaining: remaining}, err
	}
	return fetchResult{body: body, remaining: remaining}, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, b *resilience.ThrottleBackOff) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, usecase.QuotaUnknown, resilience.Permanent(crerr.Mark(crerr.Wrap(err, "build request"), usecase.ErrFatal))
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, usecase.QuotaUnknown, resilience.Permanent(ctx.Err())
		}
		return nil, usecase.QuotaUnknown, crerr.Mark(
			crerr.Newf("send request: %s", sanitizeSensitiveText(err.Error(), c.apiKey)),
			usecase.ErrTransient,
		)
	}
	defer resp.Body.Close()

	remaining := parseRemainingQuota(resp.Header)
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return nil, remaining, crerr.Mark(crerr.Wrap(readErr, "read response body"), usecase.ErrTransient)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, remaining, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		b.Throttle(parseRetryAfter(resp.Header.Get(headerRetryAfter), c.now()))
		return nil, remaining, crerr.Mark(statusError(resp.StatusCode, raw), usecase.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, remaining, resilience.Permanent(crerr.Mark(statusError(resp.StatusCode, raw), usecase.ErrNotFound))
	case isRetryableStatus(resp.StatusCode):
		return nil, remaining, crerr.Mark(statusError(resp.StatusCode, raw), usecase.ErrTransient)
	default:
		return nil, remaining, resilience.Permanent(crerr.Mark(statusError(resp.StatusCode, raw), usecase.ErrFatal))
	}
}

// envelopeError maps the body-level errors object. The provider answers some
// quota failures with HTTP 200 and an errors entry.
func envelopeError(raw any) error {
	switch v := raw.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		for _, key := range []string{"requests", "rateLimit", "ratelimit"} {
			if msg, ok := v[key]; ok {
				return crerr.Mark(crerr.Newf("provider %s error: %v", key, msg), usecase.ErrRateLimited)
			}
		}
		parts := make([]string, 0, len(v))
		for key, msg := range v {
			parts = append(parts, fmt.Sprintf("%s=%v", key, msg))
		}
		return crerr.Mark(crerr.Newf("provider errors: %s", strings.Join(parts, "; ")), usecase.ErrFatal)
	case []any:
		if len(v) == 0 {
			return nil
		}
		return crerr.Mark(crerr.Newf("provider errors: %v", v), usecase.ErrFatal)
	default:
		return nil
	}
}

func parseRemainingQuota(header http.Header) int {
	raw := strings.TrimSpace(header.Get(headerQuotaRemaining))
	if raw == "" {
		return usecase.QuotaUnknown
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return usecase.QuotaUnknown
	}
	return value
}

func parseRetryAfter(raw string, now time.Time) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func statusError(code int, body []byte) error {
	return crerr.Newf("provider status=%d body=%s", code, abbreviateBody(body))
}

func isCircuitFailure(err error) bool {
	return err != nil && crerr.Is(err, usecase.ErrTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyHeaderRegex.ReplaceAllString(value, "x-apisports-key=REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
