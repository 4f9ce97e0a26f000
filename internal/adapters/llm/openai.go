package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"tripplanner/internal/adapters/observability"
	"tripplanner/internal/domain"
)

const systemPrompt = "You are a travel planning assistant. Follow the requested output format exactly."

type OpenAI struct {
	c    *openai.Client
	opts Options
}

func NewOpenAI(o Options) (*OpenAI, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if o.Model == "" {
		o.Model = openai.GPT4o
	}
	o.defaults()
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.BaseURL, "/")
	}
	return &OpenAI{c: openai.NewClientWithConfig(cfg), opts: o}, nil
}

// Complete sends one user prompt and returns the first choice's content.
// 429 and 5xx answers are retried with backoff.
func (a *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	}

	var lastErr error
	for i := 0; i <= a.opts.Retries; i++ {
		text, status, err := a.once(ctx, req)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		if !retryable(status) || i == a.opts.Retries || !sleepCtx(ctx, backoff(i)) {
			break
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", lastErr
}

func (a *OpenAI) once(ctx context.Context, req openai.ChatCompletionRequest) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.c.CreateChatCompletion(ctx, req)
	if err != nil {
		status := statusOf(err)
		observability.ObserveExternal("llm", "openai", status, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return "", status, err
		}
		return "", status, fmt.Errorf("%w: openai: %v", domain.ErrUpstream, err)
	}
	observability.ObserveExternal("llm", "openai", http.StatusOK, time.Since(start))
	if len(resp.Choices) == 0 {
		return "", http.StatusOK, fmt.Errorf("%w: openai returned no choices", domain.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, http.StatusOK, nil
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
