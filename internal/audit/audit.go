// Package audit provides the append-only record of tool invocation
// attempts. Records are write-once: nothing in the running system updates
// or deletes them.
package audit

import (
	"context"
	"errors"
	"time"
)

// ErrWriteFailed wraps any store-side failure to persist a record. The
// caller logs it; the tool action has already happened and its result is
// unaffected.
var ErrWriteFailed = errors.New("audit write failed")

// Outcome classifies one invocation attempt.
type Outcome string

const (
	// OutcomeOK: the executor ran and reported success.
	OutcomeOK Outcome = "ok"
	// OutcomeError: the executor ran and reported failure.
	OutcomeError Outcome = "error"
	// OutcomeDenied: the call was rejected before execution (role or rate).
	// Denied calls are recorded so the trail shows probing attempts.
	OutcomeDenied Outcome = "denied"
)

// Record is one immutable audit entry.
type Record struct {
	ID       string         `json:"id"`
	Time     time.Time      `json:"time"`
	ClientID string         `json:"client_id"`
	Tool     string         `json:"tool"`
	Args     map[string]any `json:"args,omitempty"`
	Outcome  Outcome        `json:"outcome"`
	Detail   string         `json:"detail,omitempty"`
}

// Filter narrows a Query. Zero values mean "no constraint".
type Filter struct {
	ClientID string
	Tool     string
	From     time.Time
	To       time.Time
	Limit    int
}

// Store is the durable audit log. Record must not return until the write
// is durable (or has failed); Query serves operational review.
type Store interface {
	Record(ctx context.Context, rec Record) error
	Query(ctx context.Context, filter Filter) ([]Record, error)
	Close(ctx context.Context) error
}

const maxDetailLen = 200

// Summarize truncates free-form result text to the stored detail length.
func Summarize(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDetailLen {
		return s
	}
	return string(runes[:maxDetailLen])
}
