// Package llm adapts hosted chat models to domain.TextGenerator.
package llm

import (
	"context"
	"fmt"
	"time"

	"tripplanner/internal/domain"
)

type Options struct {
	Provider    string // openai|gemini
	APIKey      string
	Model       string
	BaseURL     string // optional, mostly for tests
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration // per call
	Retries     int
}

func (o *Options) defaults() {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 2000
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
}

// New returns the generator for o.Provider.
func New(ctx context.Context, o Options) (domain.TextGenerator, error) {
	switch o.Provider {
	case "openai":
		return NewOpenAI(o)
	case "gemini":
		return NewGemini(ctx, o)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", o.Provider)
	}
}

func backoff(i int) time.Duration {
	return time.Duration(500*(1<<i)) * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
