package llm

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// rateLimitedClient applies per-user smoothing around model calls. This is
// distinct from the gateway's fixed-window tool budget: it keeps one chatty
// conversation from starving the shared model quota rather than enforcing a
// policy.
type rateLimitedClient struct {
	base   Client
	limit  rate.Limit
	burst  int
	mu     sync.Mutex
	bucket map[string]*rate.Limiter
}

// WrapWithUserRateLimit wraps client with a per-user token bucket when a
// positive limit is supplied. A burst below 1 is coerced to 1.
func WrapWithUserRateLimit(client Client, limit rate.Limit, burst int) Client {
	if limit <= 0 {
		return client
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedClient{
		base:   client,
		limit:  limit,
		burst:  burst,
		bucket: make(map[string]*rate.Limiter),
	}
}

func (c *rateLimitedClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := c.limiterFor(req.User).Wait(ctx); err != nil {
		return nil, err
	}
	return c.base.Complete(ctx, req)
}

func (c *rateLimitedClient) Model() string { return c.base.Model() }

func (c *rateLimitedClient) limiterFor(user string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.bucket[user]
	if !ok {
		limiter = rate.NewLimiter(c.limit, c.burst)
		c.bucket[user] = limiter
	}
	return limiter
}
