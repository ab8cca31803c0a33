package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

// Provider types.
const (
	TypeAzure  = "azure"  // Azure OpenAI: deployment in the URL, api-version query, api-key header
	TypeOpenAI = "openai" // any OpenAI-compatible endpoint with bearer auth
)

const (
	DefaultAPIVersion      = "2024-05-01-preview"
	DefaultMaxOutputTokens = 800
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.95
	DefaultTimeout         = 120 * time.Second
	DefaultMaxAttempts     = 3
	DefaultRetryDelay      = 500 * time.Millisecond

	maxRetryDelay = 10 * time.Second
)

// ChatClientConfig configures a ChatClient.
type ChatClientConfig struct {
	Name       string // Registry name; defaults to Type
	Type       string // TypeAzure (default) or TypeOpenAI
	Endpoint   string // Azure resource URL or OpenAI-compatible base URL
	Deployment string // Azure deployment or model identifier
	APIKey     string
	APIVersion string // Azure only

	// Generation parameters
	MaxOutputTokens  int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64

	// Per-attempt timeout
	Timeout time.Duration

	// Retry: total attempts and base backoff delay
	MaxAttempts int
	RetryDelay  time.Duration

	// Requests per minute (client-side token bucket)
	RateLimit int

	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// withDefaults fills zero values that have a safe default.
// Temperature and TopP are left alone: zero is a legal setting.
func (cfg ChatClientConfig) withDefaults() ChatClientConfig {
	if cfg.Type == "" {
		cfg.Type = TypeAzure
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Type
	}
	if cfg.APIVersion == "" && cfg.Type == TypeAzure {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Validate checks the configuration without building a client.
func (cfg ChatClientConfig) Validate() error {
	var errs []error
	switch cfg.Type {
	case TypeAzure, TypeOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown provider type %q", cfg.Type))
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, errors.New("endpoint is required"))
	}
	if strings.TrimSpace(cfg.Deployment) == "" {
		errs = append(errs, errors.New("deployment is required"))
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		errs = append(errs, errors.New("api key is required"))
	}
	if cfg.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("max output tokens must be > 0, got %d", cfg.MaxOutputTokens))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", cfg.Temperature))
	}
	if cfg.TopP < 0 || cfg.TopP > 1 {
		errs = append(errs, fmt.Errorf("top_p must be within [0, 1], got %g", cfg.TopP))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be > 0"))
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be >= 1, got %d", cfg.MaxAttempts))
	}
	if cfg.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay must be >= 0"))
	}
	return errors.Join(errs...)
}

// ChatClient implements LLMClient on the official OpenAI SDK. SDK-level
// retries are disabled; retries happen here so only retryable kinds are
// repeated.
type ChatClient struct {
	cfg     ChatClientConfig
	client  openai.Client
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewChatClient validates cfg and creates a client.
func NewChatClient(cfg ChatClientConfig) (*ChatClient, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chat client config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	switch cfg.Type {
	case TypeAzure:
		opts = append(opts,
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	case TypeOpenAI:
		opts = append(opts,
			option.WithBaseURL(cfg.Endpoint),
			option.WithAPIKey(cfg.APIKey),
		)
	}

	return &ChatClient{
		cfg:     cfg,
		client:  openai.NewClient(opts...),
		limiter: NewRateLimiter(cfg.RateLimit),
		logger:  cfg.Logger,
	}, nil
}

// Name returns the client identifier.
func (c *ChatClient) Name() string {
	return c.cfg.Name
}

// Config returns the effective configuration.
func (c *ChatClient) Config() ChatClientConfig {
	return c.cfg
}

// Limiter returns the client's rate limiter.
func (c *ChatClient) Limiter() *RateLimiter {
	return c.limiter
}

// Chat sends the request, retrying rate limits, server errors and
// timeouts with jittered exponential backoff.
func (c *ChatClient) Chat(ctx context.Context, req *ChatRequest) (*Reply, error) {
	start := time.Now()

	// Generate request ID if not provided
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := c.logger.With("request_id", requestID, "provider", c.cfg.Name, "deployment", c.cfg.Deployment)

	params := c.buildParams(req)

	var (
		reply    *Reply
		attempts int
	)
	err := retry.Do(
		func() error {
			if !c.limiter.TryConsume() {
				logger.Debug("waiting for rate limit token", "wait", c.limiter.Status().TimeUntilToken)
				if err := c.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			attempts++
			r, err := c.attempt(ctx, params)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Kind == RateLimited {
					c.limiter.Record429()
				}
				return err
			}
			reply = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.cfg.MaxAttempts)),
		retry.Delay(c.cfg.RetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.MaxJitter(c.cfg.RetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(Retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("chat attempt failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// Any partial reply is discarded with the canceled call.
		return nil, ctxErr
	}
	if err != nil {
		logger.Error("chat request failed", "attempts", attempts, "error", err)
		return nil, err
	}

	reply.RequestID = requestID
	reply.Attempts = attempts
	reply.Latency = time.Since(start)
	logger.Info("chat request complete",
		"attempts", attempts,
		"model", reply.ModelUsed,
		"prompt_tokens", reply.PromptTokens,
		"completion_tokens", reply.CompletionTokens,
		"latency", reply.Latency,
	)
	return reply, nil
}

func (c *ChatClient) buildParams(req *ChatRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:            openai.ChatModel(c.cfg.Deployment),
		Messages:         messages,
		MaxTokens:        openai.Int(int64(c.cfg.MaxOutputTokens)),
		Temperature:      openai.Float(c.cfg.Temperature),
		TopP:             openai.Float(c.cfg.TopP),
		FrequencyPenalty: openai.Float(c.cfg.FrequencyPenalty),
		PresencePenalty:  openai.Float(c.cfg.PresencePenalty),
	}
}

// attempt performs one HTTP call under its own timeout.
func (c *ChatClient) attempt(ctx context.Context, params openai.ChatCompletionNewParams) (*Reply, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(attemptCtx, params, option.WithJSONSet("stream", false))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &EmptyResponseError{Model: resp.Model}
	}

	choice := resp.Choices[0]
	return &Reply{
		Text:             choice.Message.Content,
		ReceivedAt:       time.Now(),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		Provider:         c.cfg.Name,
		ModelUsed:        resp.Model,
		FinishReason:     string(choice.FinishReason),
	}, nil
}

// Verify interface
var _ LLMClient = (*ChatClient)(nil)
