// ABOUTME: Bridges chat.Renderer callbacks into Bubbletea messages
// ABOUTME: Callbacks never block; a pump goroutine delivers them to the program in order
package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harper/chatsync/internal/chat"
)

type storeChangedMsg struct {
	change chat.Change
}

type sessionChangedMsg struct {
	session chat.Session
}

type historyChangedMsg struct {
	sessions []chat.Session
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramRenderer queues engine notifications. Callbacks can fire from
// inside Update (for example StartNewSession clears the store), so they
// must not wait on the program's event loop.
type ProgramRenderer struct {
	mu    sync.Mutex
	queue []tea.Msg
	wake  chan struct{}
}

func NewProgramRenderer() *ProgramRenderer {
	return &ProgramRenderer{wake: make(chan struct{}, 1)}
}

func (r *ProgramRenderer) MessagesChanged(c chat.Change) {
	r.push(storeChangedMsg{change: c})
}

func (r *ProgramRenderer) SessionChanged(s chat.Session) {
	r.push(sessionChangedMsg{session: s})
}

func (r *ProgramRenderer) HistoryChanged(sessions []chat.Session) {
	r.push(historyChangedMsg{sessions: sessions})
}

func (r *ProgramRenderer) push(msg tea.Msg) {
	r.mu.Lock()
	r.queue = append(r.queue, msg)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run forwards queued notifications to p until ctx is done.
func (r *ProgramRenderer) Run(ctx context.Context, p Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
			r.drain(p)
		}
	}
}

func (r *ProgramRenderer) drain(p Sender) {
	r.mu.Lock()
	batch := r.queue
	r.queue = nil
	r.mu.Unlock()

	for _, msg := range batch {
		p.Send(msg)
	}
}

var _ chat.Renderer = (*ProgramRenderer)(nil)
