package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing-but-unset"))
	require.Error(t, err, "explicit missing file must fail")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 10, cfg.Limits.Calls)
	assert.Equal(t, time.Minute, cfg.Limits.Window)
	assert.Equal(t, 5, cfg.Loop.MaxRounds)
	assert.Equal(t, 120*time.Second, cfg.Loop.RoundTimeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  provider: groq
  name: llama-3.3-70b-versatile
limits:
  calls: 30
  window: 1m
platform:
  base_url: http://localhost:9000
  token: bot-token
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.Model.Provider)
	assert.Equal(t, 30, cfg.Limits.Calls)
	assert.Equal(t, "bot-token", cfg.Platform.Token)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CONCORD_MODEL_PROVIDER", "ollama")
	t.Setenv("CONCORD_LIMITS_CALLS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, 3, cfg.Limits.Calls)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Error(t, cfg.Validate(false))

	cfg.Platform.Token = "tok"
	cfg.Platform.BaseURL = "http://localhost:9000"
	assert.Error(t, cfg.Validate(false), "api key still missing")

	cfg.Model.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate(false))

	assert.Error(t, cfg.Validate(true), "token file missing in server mode")
	cfg.Server.TokenFile = "tokens.json"
	assert.NoError(t, cfg.Validate(true))
}
