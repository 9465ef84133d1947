// File path: internal/llm/limiter.go
package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// limitedProvider throttles Chat and Embed through one shared token bucket,
// keeping the service inside the backend's request-per-second allowance.
type limitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithRateLimit wraps a provider with a rate limiter. A non-positive rps
// returns the provider unchanged.
func WithRateLimit(p Provider, rps float64, burst int) Provider {
	if p == nil || rps <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	return &limitedProvider{inner: p, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *limitedProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.inner.Chat(ctx, messages)
}

func (l *limitedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.Embed(ctx, input)
}

func (l *limitedProvider) Name() string {
	return l.inner.Name()
}
