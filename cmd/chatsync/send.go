// ABOUTME: send and edit subcommands for scripted conversations
// ABOUTME: Both print the confirmed reply and the session it belongs to
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/chatsync/internal/chat"
)

func newSendCmd(flags *globalFlags) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "send <message...>",
		Short: "Send a message, starting a new chat unless --session is given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()
			engine := a.engine(nil, false)
			defer engine.Close()

			if sessionID != "" {
				if err := engine.Sessions.LoadSession(cmd.Context(), sessionID); err != nil {
					return err
				}
			}

			res, err := engine.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s\n", res.SessionID)
			printTranscript(out, []chat.Message{res.UserMessage, res.BotMessage})
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "continue this chat")
	return cmd
}

func newEditCmd(flags *globalFlags) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "edit <message-id> <new text...>",
		Short: "Edit one of your messages and regenerate its reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()
			engine := a.engine(nil, false)
			defer engine.Close()

			if err := engine.Sessions.LoadSession(cmd.Context(), sessionID); err != nil {
				return err
			}
			if _, err := engine.Cascade.BeginEdit(args[0]); err != nil {
				return err
			}
			if _, err := engine.Cascade.ConfirmEdit(cmd.Context(), strings.Join(args[1:], " ")); err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), engine.Store.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "chat containing the message (required)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
