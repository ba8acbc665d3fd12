package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"concord/internal/tools"
)

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}
	return path
}

func TestLoadTokenFile(t *testing.T) {
	path := writeTokenFile(t, `{
		"keys": {
			"tok-alice": {"name": "alice", "role": "admin"},
			"tok-bob":   {"name": "bob", "role": "reader", "active": true},
			"tok-old":   {"name": "retired", "role": "admin", "active": false}
		}
	}`)

	store, err := LoadTokenFile(path)
	if err != nil {
		t.Fatalf("LoadTokenFile: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 active tokens, got %d", store.Len())
	}

	id, err := store.Resolve("tok-alice")
	if err != nil {
		t.Fatalf("resolve alice: %v", err)
	}
	if id.Name != "alice" || id.Role != tools.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if _, err := store.Resolve("tok-old"); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("inactive token must fail auth, got %v", err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	store := NewStaticTokenStore(map[string]Identity{
		"tok": {ClientID: "x", Name: "x", Role: tools.RoleReader},
	})
	if _, err := store.Resolve("nope"); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if _, err := store.Resolve(""); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("empty token must fail auth, got %v", err)
	}
}

func TestLoadTokenFileRejectsUnknownRole(t *testing.T) {
	path := writeTokenFile(t, `{"keys": {"tok": {"name": "x", "role": "root"}}}`)
	if _, err := LoadTokenFile(path); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
