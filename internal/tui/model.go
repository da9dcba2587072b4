// ABOUTME: Core Bubbletea model for the chat TUI
// ABOUTME: Holds components, focus, and modal state on top of a chat.Engine
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/chat"
	"github.com/harper/chatsync/internal/config"
	"github.com/harper/chatsync/internal/tui/components"
	"github.com/harper/chatsync/internal/tui/theme"
)

// FocusArea represents which component currently has focus
type FocusArea int

const (
	FocusSidebar FocusArea = iota
	FocusChatView
	FocusInputArea
)

type dialogAction int

const (
	dialogNone dialogAction = iota
	dialogDeleteMessage
	dialogDeleteSession
	dialogExport
)

type Options struct {
	Config *config.Config
	Engine *chat.Engine
	// Events is optional; when set the status bar tracks its connection.
	Events *api.EventStream
	// Context bounds background requests. Defaults to context.Background().
	Context context.Context
}

type Model struct {
	config *config.Config
	theme  theme.Theme
	width  int
	height int

	engine *chat.Engine
	events *api.EventStream
	ctx    context.Context

	sidebar       *components.Sidebar
	chatView      *components.ChatView
	inputArea     *components.InputArea
	statusBar     *components.StatusBar
	helpOverlay   *components.HelpOverlay
	notifications *components.NotificationComponent
	searchBar     *components.SearchBar

	dialog       *components.Dialog
	dialogAction dialogAction
	dialogTarget string

	focusedArea    FocusArea
	sidebarVisible bool
	storeVersion   uint64
	messages       []chat.Message
	inflight       int
	editInFlight   bool
}

func NewModel(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	th := theme.GetTheme(cfg.UI.Theme)

	// Real dimensions arrive with the first WindowSizeMsg.
	m := Model{
		config:         cfg,
		theme:          th,
		engine:         opts.Engine,
		events:         opts.Events,
		ctx:            ctx,
		sidebar:        components.NewSidebar(cfg.UI.SidebarWidth, 24, th),
		chatView:       components.NewChatView(80, 20, th),
		inputArea:      components.NewInputArea(80, 4, th),
		statusBar:      components.NewStatusBar(80, th),
		helpOverlay:    components.NewHelpOverlay(80, 24, th),
		notifications:  components.NewNotificationComponent(80, th),
		searchBar:      components.NewSearchBar(80, th),
		focusedArea:    FocusInputArea,
		sidebarVisible: cfg.UI.SidebarDefaultVisible,
	}
	m.inputArea.Focus()
	if m.events != nil {
		m.statusBar.SetConnectionStatus(components.ConnOffline)
	}
	m.sidebar.SetSessions(m.engine.History.Sessions())
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.inputArea.Init(), m.startCmd()}
	if m.events != nil {
		cmds = append(cmds, connTick())
	}
	return tea.Batch(cmds...)
}
