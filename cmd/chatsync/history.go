// ABOUTME: history subcommand: list chats or print one chat's transcript
// ABOUTME: Falls back to the cached list when the backend is unreachable
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/harper/chatsync/internal/chat"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history [session-id]",
		Short: "List chats, or print the transcript of one chat",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()
			engine := a.engine(nil, false)
			defer engine.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if err := engine.Sessions.LoadSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				printTranscript(out, engine.Store.Snapshot())
				return nil
			}

			if err := engine.Start(cmd.Context()); err != nil {
				if len(engine.History.Sessions()) == 0 {
					return err
				}
				if at, _ := engine.History.Status(); !at.IsZero() {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: showing cached list from %s: %v\n", at.Local().Format(time.DateTime), err)
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: showing cached list: %v\n", err)
				}
			}
			printSessions(out, engine.History.Sessions())
			return nil
		},
	}
}

func printSessions(w io.Writer, sessions []chat.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No chats yet.")
		return
	}
	idWidth := runewidth.StringWidth("ID")
	for _, s := range sessions {
		idWidth = max(idWidth, runewidth.StringWidth(s.ID))
	}
	fmt.Fprintf(w, "%s  %-28s  %8s  %s\n", runewidth.FillRight("ID", idWidth), "TITLE", "MESSAGES", "UPDATED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  %8d  %s\n",
			runewidth.FillRight(s.ID, idWidth),
			runewidth.FillRight(s.DisplayTitle(), 28),
			s.MessageCount,
			s.UpdatedAt)
	}
}

func printTranscript(w io.Writer, msgs []chat.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "This chat has no messages.")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(w, "[%s] %s: %s\n", m.ID, m.Role.Label(), m.Content)
	}
}
