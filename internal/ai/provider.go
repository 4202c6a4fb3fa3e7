package ai

import (
	"context"
	"time"
)

// LLMProvider sends a prompt to an LLM and returns the raw text response.
// Used only by LLMJobScorer; not exported to the rest of the system.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const systemInstruction = "You are a precise recruiter assistant. You answer with a single JSON object."

type timeoutProvider struct {
	inner   LLMProvider
	timeout time.Duration
}

// WithTimeout bounds every Complete call on p by d. A non-positive d returns p.
func WithTimeout(p LLMProvider, d time.Duration) LLMProvider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (p *timeoutProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.Complete(ctx, prompt)
}
