// ABOUTME: Tests for XDG base directory resolution
// ABOUTME: Covers env overrides, HOME fallbacks, and config path expansion

package xdg

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearXDG(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
}

func TestAppDirs_DefaultToHome(t *testing.T) {
	clearXDG(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".config", "chatsync"), ConfigHome())
	assert.Equal(t, filepath.Join(home, ".local", "share", "chatsync"), DataHome())
	assert.Equal(t, filepath.Join(home, ".cache", "chatsync"), CacheHome())
}

func TestAppDirs_RespectEnv(t *testing.T) {
	clearXDG(t)
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	assert.Equal(t, "/tmp/custom-config/chatsync", ConfigHome())
	assert.Equal(t, "/tmp/custom-cache/chatsync", CacheHome())
}

func TestExpandPath(t *testing.T) {
	clearXDG(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tilde", "~/exports", filepath.Join(home, "exports")},
		{"data home", "$XDG_DATA_HOME/chatsync/exports", filepath.Join(home, ".local", "share", "chatsync", "exports")},
		{"config home", "$XDG_CONFIG_HOME/chatsync/config.yaml", filepath.Join(home, ".config", "chatsync", "config.yaml")},
		{"cache home", "$XDG_CACHE_HOME/chatsync/history.sqlite", filepath.Join(home, ".cache", "chatsync", "history.sqlite")},
		{"absolute passes through", "/absolute/path", "/absolute/path"},
		{"relative passes through", "relative/path", "relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func TestExpandPath_MissingHOME(t *testing.T) {
	clearXDG(t)
	t.Setenv("HOME", "")

	got := ExpandPath("$XDG_DATA_HOME/chatsync/db.sqlite")

	assert.NotEqual(t, "$XDG_DATA_HOME/chatsync/db.sqlite", got)
	if filepath.IsAbs(got) {
		assert.NotEqual(t, "/", filepath.Dir(filepath.Dir(filepath.Dir(got))), "should not be rooted at /")
	}
}
