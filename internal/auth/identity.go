package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"concord/internal/tools"
)

// ErrAuthFailed is returned when a bearer credential resolves to no identity.
var ErrAuthFailed = errors.New("authentication failed")

// Identity is an authenticated caller with its assigned role. Created at
// authentication time; lives for the connection (remote mode) or the
// process (local mode).
type Identity struct {
	ClientID string
	Name     string
	Role     tools.Role
}

// TokenStore maps bearer credentials to identities. Loaded once at startup;
// read-only afterwards.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]Identity
}

type tokenFile struct {
	Keys map[string]tokenEntry `json:"keys"`
}

type tokenEntry struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active *bool  `json:"active,omitempty"`
}

// LoadTokenFile reads the credential file. Inactive entries are skipped.
// File format:
//
//	{"keys": {"<token>": {"name": "alice", "role": "writer", "active": true}}}
func LoadTokenFile(path string) (*TokenStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var file tokenFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}

	store := &TokenStore{tokens: make(map[string]Identity, len(file.Keys))}
	for token, entry := range file.Keys {
		if entry.Active != nil && !*entry.Active {
			continue
		}
		role, err := tools.ParseRole(entry.Role)
		if err != nil {
			return nil, fmt.Errorf("token for %q: %w", entry.Name, err)
		}
		name := entry.Name
		if name == "" {
			name = "unknown"
		}
		store.tokens[token] = Identity{ClientID: name, Name: name, Role: role}
	}
	return store, nil
}

// NewStaticTokenStore builds a store from an in-memory mapping. Used by
// tests and by local mode, which runs a single pre-resolved identity.
func NewStaticTokenStore(tokens map[string]Identity) *TokenStore {
	copied := make(map[string]Identity, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return &TokenStore{tokens: copied}
}

// Resolve maps a bearer token to its Identity or fails with ErrAuthFailed.
func (s *TokenStore) Resolve(token string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	if !ok || token == "" {
		return Identity{}, ErrAuthFailed
	}
	return id, nil
}

// Len returns the number of active credentials.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
