// ABOUTME: XDG Base Directory support for chatsync config, data, and cache paths
// ABOUTME: Resolves app directories and expands ~ and $XDG_* prefixes in config values

package xdg

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "chatsync"

type baseDir struct {
	env      string
	fallback []string
}

var (
	configBase = baseDir{env: "XDG_CONFIG_HOME", fallback: []string{".config"}}
	dataBase   = baseDir{env: "XDG_DATA_HOME", fallback: []string{".local", "share"}}
	cacheBase  = baseDir{env: "XDG_CACHE_HOME", fallback: []string{".cache"}}
)

func (b baseDir) root() string {
	if v := os.Getenv(b.env); v != "" {
		return v
	}
	return filepath.Join(append([]string{getHome()}, b.fallback...)...)
}

// ConfigHome returns ~/.config/chatsync or respects XDG_CONFIG_HOME.
func ConfigHome() string {
	return filepath.Join(configBase.root(), AppName)
}

// DataHome returns ~/.local/share/chatsync or respects XDG_DATA_HOME.
func DataHome() string {
	return filepath.Join(dataBase.root(), AppName)
}

// CacheHome returns ~/.cache/chatsync or respects XDG_CACHE_HOME.
func CacheHome() string {
	return filepath.Join(cacheBase.root(), AppName)
}

// ExpandPath expands a leading ~/ or $XDG_{DATA,CONFIG,CACHE}_HOME in a config path.
// The variables expand to the generic base directory, not the app directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(getHome(), path[2:])
	}

	for _, b := range []baseDir{dataBase, configBase, cacheBase} {
		prefix := "$" + b.env
		if strings.HasPrefix(path, prefix) {
			return strings.Replace(path, prefix, b.root(), 1)
		}
	}

	return path
}

// getHome returns HOME, falling back to the working directory so paths are never rooted at /.
func getHome() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}
