package auth

import (
	"errors"
	"sync"
	"time"

	"concord/internal/tools"
)

// Deny reasons returned by Authorize.
var (
	ErrInsufficientRole = errors.New("insufficient role")
	ErrRateLimited      = errors.New("rate limited")
)

// PolicyConfig carries the rate budget. Limit calls per Window, fixed-bucket
// semantics: the window opens at the first counted call and all counters
// reset once Window has elapsed.
type PolicyConfig struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicyConfig mirrors the historical write budget of 10 calls/min.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{Limit: 10, Window: time.Minute}
}

type bucket struct {
	start time.Time
	count int
}

// Policy enforces role floors and per-identity rate budgets. Safe for
// concurrent use; all bucket state sits behind one mutex since the hot path
// is a map lookup and an increment.
//
// Two budgets exist per key: the tool budget (Limit per Window) consumed by
// role-admitted calls, and a denial budget (2*Limit per Window) consumed by
// role denials and failed authentications. A role-denied call therefore does
// not eat into the caller's tool budget, but unlimited probing is still cut
// off.
type Policy struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	calls   map[string]*bucket
	denials map[string]*bucket

	now func() time.Time
}

// NewPolicy builds a Policy. A non-positive limit or window falls back to
// the defaults.
func NewPolicy(cfg PolicyConfig) *Policy {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultPolicyConfig().Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultPolicyConfig().Window
	}
	return &Policy{
		limit:   cfg.Limit,
		window:  cfg.Window,
		calls:   make(map[string]*bucket),
		denials: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Authorize decides whether identity may invoke the given tool. The role
// is ranked before any bucket is consulted: a role-denied call never
// consumes the tool budget, and an admitted role is never refused on the
// strength of the denial window alone.
func (p *Policy) Authorize(id Identity, def tools.ToolDefinition) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()

	if !id.Role.Allows(def.MinRole) {
		if exceeded := p.take(p.denials, id.ClientID, now, 2*p.limit, true); exceeded {
			return ErrRateLimited
		}
		return ErrInsufficientRole
	}

	if exceeded := p.take(p.calls, id.ClientID, now, p.limit, true); exceeded {
		return ErrRateLimited
	}
	return nil
}

// NoteAuthFailure counts a failed authentication attempt against key
// (typically the peer address, since no identity exists yet). It returns
// ErrRateLimited once the denial budget for key is exhausted.
func (p *Policy) NoteAuthFailure(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if exceeded := p.take(p.denials, key, p.now(), 2*p.limit, true); exceeded {
		return ErrRateLimited
	}
	return nil
}

// take checks key's bucket against limit and, when consume is set,
// increments it. Reports whether the bucket is already full. Caller holds
// the mutex.
func (p *Policy) take(buckets map[string]*bucket, key string, now time.Time, limit int, consume bool) bool {
	b, ok := buckets[key]
	if !ok || now.Sub(b.start) >= p.window {
		b = &bucket{start: now}
		buckets[key] = b
	}
	if b.count >= limit {
		return true
	}
	if consume {
		b.count++
	}
	return false
}
