package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/AdanD9/car-price-predictor/internal/market"
	"github.com/AdanD9/car-price-predictor/internal/metrics"
	"github.com/AdanD9/car-price-predictor/pkg/circuitbreaker"
	"github.com/AdanD9/car-price-predictor/pkg/logger"
	"github.com/AdanD9/car-price-predictor/pkg/retry"
)

var (
	ErrDisabled      = errors.New("market assistant is disabled")
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrNoAnswer      = errors.New("assistant returned no answer")
)

const maxQuestionLength = 2000

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	MaxAttempts int
	Timeout     time.Duration
}

// SnapshotSource supplies the market figures the assistant answers from.
type SnapshotSource interface {
	Snapshot(ctx context.Context) market.Snapshot
}

type Assistant struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	source      SnapshotSource
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Reply struct {
	Answer string `json:"answer"`
	Model  string `json:"model"`
	Usage  Usage  `json:"usage"`
}

// New returns an assistant. Without an API key it is disabled and every
// question fails with ErrDisabled.
func New(cfg Config, source SnapshotSource) *Assistant {
	a := &Assistant{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		source:      source,
	}
	if a.timeout <= 0 {
		a.timeout = 30 * time.Second
	}
	if cfg.APIKey == "" {
		logger.Info("Market assistant disabled")
		return a
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	a.client = openai.NewClientWithConfig(clientCfg)

	a.cb = circuitbreaker.New("assistant", circuitbreaker.Config{
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		IsFailure:        func(err error) bool { return !isClientError(err) },
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
		Logger: logger.GetLogger(),
	})

	a.retryConfig = retry.Config{
		MaxAttempts:    max(1, cfg.MaxAttempts),
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Retryable:      func(err error) bool { return !isClientError(err) },
		Logger:         logger.GetLogger(),
	}

	logger.Info("Market assistant initialized", zap.String("model", cfg.Model))
	return a
}

func (a *Assistant) Enabled() bool { return a.client != nil }

// Ask answers a car-market question using the current statistics snapshot
// as context.
func (a *Assistant) Ask(ctx context.Context, question string) (Reply, error) {
	if !a.Enabled() {
		return Reply{}, ErrDisabled
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}
	if len(question) > maxQuestionLength {
		question = question[:maxQuestionLength]
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(a.source.Snapshot(ctx))},
		{Role: openai.ChatMessageRoleUser, Content: question},
	}

	reply, err := circuitbreaker.ExecuteWithResult(a.cb, func() (Reply, error) {
		return retry.DoWithResult(ctx, a.retryConfig, func(ctx context.Context) (Reply, error) {
			return a.complete(ctx, messages)
		})
	})
	if err != nil {
		metrics.AssistantRequests.WithLabelValues("error").Inc()
		logger.Error("Assistant request failed", zap.Error(err))
		return Reply{}, err
	}

	metrics.AssistantRequests.WithLabelValues("ok").Inc()
	metrics.AssistantTokens.WithLabelValues(reply.Model, "prompt").Add(float64(reply.Usage.PromptTokens))
	metrics.AssistantTokens.WithLabelValues(reply.Model, "completion").Add(float64(reply.Usage.CompletionTokens))
	return reply, nil
}

func (a *Assistant) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (Reply, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Reply{}, ErrNoAnswer
	}

	logger.Debug("Assistant completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	model := resp.Model
	if model == "" {
		model = a.model
	}
	return Reply{
		Answer: resp.Choices[0].Message.Content,
		Model:  model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// isClientError reports 4xx responses other than 429, which retrying cannot fix.
func isClientError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
			apiErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 &&
			reqErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return errors.Is(err, ErrNoAnswer)
}
