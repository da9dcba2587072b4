// ABOUTME: Configuration loading for the chat client
// ABOUTME: YAML file with CHATSYNC_* environment overrides, defaults written on first run

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harper/chatsync/internal/logger"
	"github.com/harper/chatsync/internal/xdg"
)

// EnvPrefix namespaces environment overrides: api.base_url -> CHATSYNC_API_BASE_URL.
const EnvPrefix = "CHATSYNC"

type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Pacing  PacingConfig  `mapstructure:"pacing" yaml:"pacing"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type APIConfig struct {
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	CSRFToken         string `mapstructure:"csrf_token" yaml:"csrf_token"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	EventsURL         string `mapstructure:"events_url" yaml:"events_url"`
	ReconnectAttempts int    `mapstructure:"reconnect_attempts" yaml:"reconnect_attempts"`
}

// PacingConfig holds cosmetic delays. None of them affect correctness.
type PacingConfig struct {
	RevealDelayMS         int `mapstructure:"reveal_delay_ms" yaml:"reveal_delay_ms"`
	RegenerateDelayMS     int `mapstructure:"regenerate_delay_ms" yaml:"regenerate_delay_ms"`
	HistoryRefreshDelayMS int `mapstructure:"history_refresh_delay_ms" yaml:"history_refresh_delay_ms"`
}

type UIConfig struct {
	Theme                 string `mapstructure:"theme" yaml:"theme"`
	SidebarWidth          int    `mapstructure:"sidebar_width" yaml:"sidebar_width"`
	SidebarDefaultVisible bool   `mapstructure:"sidebar_default_visible" yaml:"sidebar_default_visible"`
	SendOnEnter           bool   `mapstructure:"send_on_enter" yaml:"send_on_enter"`
}

type ExportConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Level   string `mapstructure:"level" yaml:"level"`
	File    string `mapstructure:"file" yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:8000",
			TimeoutSeconds:    30,
			ReconnectAttempts: 5,
		},
		Pacing: PacingConfig{
			RevealDelayMS:         500,
			RegenerateDelayMS:     800,
			HistoryRefreshDelayMS: 500,
		},
		UI: UIConfig{
			Theme:                 "default",
			SidebarWidth:          28,
			SidebarDefaultVisible: true,
			SendOnEnter:           true,
		},
		Export: ExportConfig{
			Directory: ".",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "$XDG_CACHE_HOME/chatsync/history.sqlite",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			File:    "$XDG_DATA_HOME/chatsync/chatsync.log",
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome(), "config.yaml")
}

// Load reads configPath (or DefaultPath), creating it with defaults when it
// does not exist, then applies environment overrides.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath()
	}

	defaults := DefaultConfig()
	v := viper.New()
	setDefaults(v, defaults)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := saveDefault(defaults, configPath); err != nil {
			logger.Warn("could not write default config to %s: %v", configPath, err)
		}
	} else {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Validate()

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid api.base_url: %q (must be an http or https URL)", cfg.API.BaseURL)
	}
	if cfg.API.EventsURL != "" {
		u, err := url.Parse(cfg.API.EventsURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return nil, fmt.Errorf("invalid api.events_url: %q (must be a ws or wss URL)", cfg.API.EventsURL)
		}
	}

	return &cfg, nil
}

// Validate clamps out-of-range values and expands paths.
func (c *Config) Validate() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.API.TimeoutSeconds = clamp(c.API.TimeoutSeconds, 1, 300)
	c.API.ReconnectAttempts = clamp(c.API.ReconnectAttempts, 0, 20)

	c.Pacing.RevealDelayMS = clamp(c.Pacing.RevealDelayMS, 0, 10000)
	c.Pacing.RegenerateDelayMS = clamp(c.Pacing.RegenerateDelayMS, 0, 10000)
	c.Pacing.HistoryRefreshDelayMS = clamp(c.Pacing.HistoryRefreshDelayMS, 0, 10000)

	c.UI.SidebarWidth = clamp(c.UI.SidebarWidth, 20, 40)
	switch c.UI.Theme {
	case "default", "dark", "light":
	default:
		c.UI.Theme = "default"
	}

	c.Logging.Level = logger.ParseLevel(c.Logging.Level).String()

	if c.Export.Directory == "" {
		c.Export.Directory = "."
	}
	c.Export.Directory = xdg.ExpandPath(c.Export.Directory)
	c.Cache.Path = xdg.ExpandPath(c.Cache.Path)
	c.Logging.File = xdg.ExpandPath(c.Logging.File)
}

func (p PacingConfig) RevealDelay() time.Duration {
	return time.Duration(p.RevealDelayMS) * time.Millisecond
}

func (p PacingConfig) RegenerateDelay() time.Duration {
	return time.Duration(p.RegenerateDelayMS) * time.Millisecond
}

func (p PacingConfig) HistoryRefreshDelay() time.Duration {
	return time.Duration(p.HistoryRefreshDelayMS) * time.Millisecond
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.csrf_token", cfg.API.CSRFToken)
	v.SetDefault("api.timeout_seconds", cfg.API.TimeoutSeconds)
	v.SetDefault("api.events_url", cfg.API.EventsURL)
	v.SetDefault("api.reconnect_attempts", cfg.API.ReconnectAttempts)
	v.SetDefault("pacing.reveal_delay_ms", cfg.Pacing.RevealDelayMS)
	v.SetDefault("pacing.regenerate_delay_ms", cfg.Pacing.RegenerateDelayMS)
	v.SetDefault("pacing.history_refresh_delay_ms", cfg.Pacing.HistoryRefreshDelayMS)
	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("ui.sidebar_width", cfg.UI.SidebarWidth)
	v.SetDefault("ui.sidebar_default_visible", cfg.UI.SidebarDefaultVisible)
	v.SetDefault("ui.send_on_enter", cfg.UI.SendOnEnter)
	v.SetDefault("export.directory", cfg.Export.Directory)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("logging.enabled", cfg.Logging.Enabled)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
}

func saveDefault(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
