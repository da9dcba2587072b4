// ABOUTME: Shared setup for every command: .env, config, logging, client, cache, engine
// ABOUTME: The TUI logs to a file; headless commands log to stderr
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/chat"
	"github.com/harper/chatsync/internal/config"
	"github.com/harper/chatsync/internal/db"
	"github.com/harper/chatsync/internal/logger"
)

type globalFlags struct {
	configPath string
	envFile    string
	verbose    bool
}

type app struct {
	cfg    *config.Config
	client *api.Client
	cache  *db.DB
}

func newApp(flags *globalFlags, interactive bool) (*app, error) {
	if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", flags.envFile, err)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	if flags.verbose {
		logger.SetVerbose(true)
	}
	if interactive {
		if !cfg.Logging.Enabled {
			logger.SetOutput(io.Discard)
		} else if err := logger.OpenFile(cfg.Logging.File); err != nil {
			// Never write to the terminal under the TUI.
			logger.SetOutput(io.Discard)
		}
	}

	a := &app{
		cfg: cfg,
		client: api.NewClient(cfg.API.BaseURL,
			api.WithCSRFToken(cfg.API.CSRFToken),
			api.WithTimeout(cfg.API.Timeout())),
	}

	if cfg.Cache.Enabled {
		cache, err := db.Open(cfg.Cache.Path)
		if err != nil {
			logger.Warn("history cache unavailable: %v", err)
		} else {
			a.cache = cache
		}
	}

	logger.Debug("chatsync %s using %s", version, cfg.API.BaseURL)
	return a, nil
}

// engine builds the chat engine. Headless commands pass a nil renderer and
// want no cosmetic delays.
func (a *app) engine(renderer chat.Renderer, paced bool) *chat.Engine {
	opts := chat.Options{
		Backend:   a.client,
		Renderer:  renderer,
		ExportDir: a.cfg.Export.Directory,
	}
	if a.cache != nil {
		opts.Cache = a.cache
	}
	if paced {
		opts.Pacing = chat.Pacing{
			RevealDelay:         a.cfg.Pacing.RevealDelay(),
			RegenerateDelay:     a.cfg.Pacing.RegenerateDelay(),
			HistoryRefreshDelay: a.cfg.Pacing.HistoryRefreshDelay(),
		}
	}
	return chat.NewEngine(opts)
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warn("close cache: %v", err)
		}
	}
	logger.Close()
}
