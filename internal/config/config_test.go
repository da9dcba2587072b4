package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "https://chat.example.com/"
  csrf_token: "abc123"
  events_url: "wss://chat.example.com/ws/events"
pacing:
  reveal_delay_ms: 0
ui:
  theme: dark
  send_on_enter: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.API.BaseURL)
	assert.Equal(t, "abc123", cfg.API.CSRFToken)
	assert.Equal(t, "wss://chat.example.com/ws/events", cfg.API.EventsURL)
	assert.Equal(t, time.Duration(0), cfg.Pacing.RevealDelay())
	assert.Equal(t, 800*time.Millisecond, cfg.Pacing.RegenerateDelay())
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.False(t, cfg.UI.SendOnEnter)
	assert.True(t, cfg.UI.SidebarDefaultVisible)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Pacing.RevealDelay())
	assert.FileExists(t, filepath.Join(dir, "chatsync", "config.yaml"))

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "http://file.example.com"
`)
	t.Setenv("CHATSYNC_API_BASE_URL", "http://env.example.com")
	t.Setenv("CHATSYNC_API_CSRF_TOKEN", "from-env")
	t.Setenv("CHATSYNC_PACING_REVEAL_DELAY_MS", "25")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, "from-env", cfg.API.CSRFToken)
	assert.Equal(t, 25*time.Millisecond, cfg.Pacing.RevealDelay())
}

func TestValidateClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UI.SidebarWidth = 5
	cfg.UI.Theme = "neon"
	cfg.API.TimeoutSeconds = 0
	cfg.API.ReconnectAttempts = -3
	cfg.Pacing.RevealDelayMS = -1
	cfg.Logging.Level = "chatty"
	cfg.Export.Directory = ""

	cfg.Validate()

	assert.Equal(t, 20, cfg.UI.SidebarWidth)
	assert.Equal(t, "default", cfg.UI.Theme)
	assert.Equal(t, 1, cfg.API.TimeoutSeconds)
	assert.Equal(t, 0, cfg.API.ReconnectAttempts)
	assert.Equal(t, 0, cfg.Pacing.RevealDelayMS)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ".", cfg.Export.Directory)

	cfg.UI.SidebarWidth = 99
	cfg.Validate()
	assert.Equal(t, 40, cfg.UI.SidebarWidth)
}

func TestValidateExpandsPaths(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	t.Setenv("XDG_DATA_HOME", "")

	cfg := DefaultConfig()
	cfg.Export.Directory = "~/exports"
	cfg.Validate()

	assert.Equal(t, "/home/tester/exports", cfg.Export.Directory)
	assert.Equal(t, "/tmp/cache/chatsync/history.sqlite", cfg.Cache.Path)
	assert.Equal(t, "/home/tester/.local/share/chatsync/chatsync.log", cfg.Logging.File)
}

func TestInvalidBaseURL(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "ftp://nope"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}

func TestInvalidEventsURL(t *testing.T) {
	path := writeConfig(t, `
api:
  events_url: "http://not-a-socket"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.events_url")
}

func TestMalformedYAML(t *testing.T) {
	path := writeConfig(t, "api: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}
