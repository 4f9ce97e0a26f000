package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"tripplanner/internal/adapters/observability"
	"tripplanner/internal/domain"
)

type Gemini struct {
	c    *genai.Client
	opts Options
	cfg  *genai.GenerateContentConfig
}

func NewGemini(ctx context.Context, o Options) (*Gemini, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if o.Model == "" {
		o.Model = "gemini-2.0-flash"
	}
	o.defaults()

	cc := &genai.ClientConfig{APIKey: o.APIKey, Backend: genai.BackendGeminiAPI}
	if o.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{
		c:    client,
		opts: o,
		cfg: &genai.GenerateContentConfig{
			Temperature:       genai.Ptr(o.Temperature),
			MaxOutputTokens:   int32(o.MaxTokens),
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	}, nil
}

// Complete sends one prompt and returns the concatenated text parts.
// 429 and 5xx answers are retried with backoff.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i := 0; i <= g.opts.Retries; i++ {
		text, status, err := g.once(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(status) {
			break
		}
		if i == g.opts.Retries || !sleepCtx(ctx, backoff(i)) {
			break
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return "", lastErr
}

func (g *Gemini) once(ctx context.Context, prompt string) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.c.Models.GenerateContent(ctx, g.opts.Model, genai.Text(prompt), g.cfg)
	if err != nil {
		status := geminiStatus(err)
		observability.ObserveExternal("llm", "gemini", status, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return "", status, err
		}
		return "", status, fmt.Errorf("%w: gemini: %v", domain.ErrUpstream, err)
	}
	observability.ObserveExternal("llm", "gemini", http.StatusOK, time.Since(start))
	text := resp.Text()
	if text == "" {
		return "", http.StatusOK, fmt.Errorf("%w: gemini returned no text", domain.ErrUpstream)
	}
	return text, http.StatusOK, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
