// ABOUTME: Root cobra command; runs the interactive TUI when no subcommand is given
// ABOUTME: Also starts the live event stream and the renderer pump
package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/logger"
	"github.com/harper/chatsync/internal/tui"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "chatsync",
		Short: "Terminal client for server-backed chat sessions",
		Long: `chatsync keeps a local chat transcript in step with the chat backend.
Run it without arguments for the interactive TUI, or use a subcommand
for scripted access to history, sending, export, and search.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/chatsync/config.yaml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newHistoryCmd(flags),
		newSendCmd(flags),
		newEditCmd(flags),
		newDeleteCmd(flags),
		newExportCmd(flags),
		newSearchCmd(flags),
	)
	return root
}

func runTUI(parent context.Context, flags *globalFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	a, err := newApp(flags, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	renderer := tui.NewProgramRenderer()
	engine := a.engine(renderer, true)
	defer engine.Close()

	var events *api.EventStream
	if a.cfg.API.EventsURL != "" {
		events = api.NewEventStream(a.cfg.API.EventsURL, a.cfg.API.ReconnectAttempts, engine.HandleEvent)
		go func() {
			if err := events.Run(ctx); err != nil {
				logger.Warn("live updates stopped: %v", err)
			}
		}()
	}

	m := tui.NewModel(tui.Options{
		Config:  a.cfg,
		Engine:  engine,
		Events:  events,
		Context: ctx,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go renderer.Run(ctx, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
