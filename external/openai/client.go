package openai

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/cache"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
	"github.com/riskibarqy/matchwire/internal/platform/resilience"
	"github.com/riskibarqy/matchwire/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 1000
	maxBodyBytes     = 1 << 20

	defaultSystemPrompt = "You are a sports journalist who analyses football matches. " +
		"Using the match events and statistics provided, write a short analysis of how both teams performed."
)

var tracer = otel.Tracer("matchwire/external/openai")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Model          string
	SystemPrompt   string
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client writes full-time commentary through the chat completions API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float64
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	cache        *cache.Store[string]
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	N           int           `json:"n"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
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
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	systemPrompt := strings.TrimSpace(cfg.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.5
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
		temperature:  temperature,
		logger:       logger,
		breaker:      resilience.NewBreaker("openai", cfg.CircuitBreaker),
		cache:        cache.NewStore[string](cfg.CacheTTL),
	}
}

// Comment returns the model's analysis of a finished match. Results are cached
// per fixture and final score so a restarted tracker does not pay twice.
func (c *Client) Comment(ctx context.Context, req usecase.CommentaryRequest) (string, error) {
	if c.apiKey == "" {
		return "", crerr.Mark(crerr.New("openai api key is not configured"), usecase.ErrDependencyUnavailable)
	}

	ctx, span := tracer.Start(ctx, "openai.Client.Comment")
	defer span.End()
	span.SetAttributes(attribute.Int64("fixture.id", req.FixtureID), attribute.String("openai.model", c.model))

	key := strconv.FormatInt(req.FixtureID, 10) + ":" + req.FinalScore.String()
	text, err := c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (string, error) {
		return c.complete(ctx, BuildPrompt(req))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion")
		return "", err
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		return "", crerr.Mark(crerr.Wrap(err, "openai is temporarily unavailable"), usecase.ErrDependencyUnavailable)
	}

	text, err := c.send(ctx, prompt)
	c.breaker.Record(err, isCircuitFailure)
	if err != nil {
		c.logger.WarnContext(ctx, "openai chat completion failed", "model", c.model, "error", err)
		return "", err
	}
	return text, nil
}

func (c *Client) send(ctx context.Context, prompt string) (string, error) {
	payload, err := sonic.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		N:           1,
	})
	if err != nil {
		return "", crerr.Mark(crerr.Wrap(err, "encode chat request"), usecase.ErrFatal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(payload)))
	if err != nil {
		return "", crerr.Mark(crerr.Wrap(err, "build request"), usecase.ErrFatal)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", crerr.Mark(crerr.Wrap(err, "send chat request"), usecase.ErrTransient)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", crerr.Mark(crerr.Wrap(err, "read chat response"), usecase.ErrTransient)
	}

	var decoded chatResponse
	decodeErr := sonic.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		statusErr := crerr.Newf("openai status=%d: %s", resp.StatusCode, msg)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", crerr.Mark(statusErr, usecase.ErrRateLimited)
		case resp.StatusCode >= http.StatusInternalServerError:
			return "", crerr.Mark(statusErr, usecase.ErrTransient)
		default:
			return "", crerr.Mark(statusErr, usecase.ErrFatal)
		}
	}
	if decodeErr != nil {
		return "", crerr.Mark(crerr.Wrap(decodeErr, "decode chat response"), usecase.ErrFatal)
	}
	if len(decoded.Choices) == 0 {
		return "", crerr.Mark(crerr.New("chat response has no choices"), usecase.ErrDataMissing)
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// BuildPrompt lists events and paired team statistics as the user message.
func BuildPrompt(req usecase.CommentaryRequest) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	home, away := req.HomeTeam.Name, req.AwayTeam.Name
	_, _ = buf.WriteString("Match: " + home + " " + req.FinalScore.String() + " " + away)
	if req.Status != "" {
		_, _ = buf.WriteString(" (" + req.Status + ")")
	}

	_, _ = buf.WriteString("\n\nMatch events:\n")
	for _, ev := range req.Events {
		_, _ = buf.WriteString(eventLine(ev) + "\n")
	}

	if len(req.Statistics) >= 2 {
		_, _ = buf.WriteString("\nMatch statistics (" + home + " - " + away + "):\n")
		awayStats := make(map[string]string, len(req.Statistics[1].Items))
		for _, item := range req.Statistics[1].Items {
			awayStats[item.Type] = item.Value
		}
		for _, item := range req.Statistics[0].Items {
			_, _ = buf.WriteString(item.Type + ": " + item.Value + " - " + valueOr(awayStats[item.Type], "0") + "\n")
		}
	}

	return strings.TrimRight(buf.String(), "\n")
}

func eventLine(ev match.RawEvent) string {
	minute := strconv.Itoa(ev.MinuteOr(0))
	if ev.ExtraMinute != nil && *ev.ExtraMinute > 0 {
		minute += "+" + strconv.Itoa(*ev.ExtraMinute)
	}
	line := minute + "' " + ev.Type
	if ev.Detail != "" {
		line += " (" + ev.Detail + ")"
	}
	if ev.Player != nil && ev.Player.Name != "" {
		line += " " + ev.Player.Name
	}
	if ev.Team.Name != "" {
		line += ", " + ev.Team.Name
	}
	return line
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func isCircuitFailure(err error) bool {
	return err != nil && crerr.Is(err, usecase.ErrTransient)
}
