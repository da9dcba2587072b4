// ABOUTME: delete subcommand removing a whole chat or one message pair
// ABOUTME: Prompts for confirmation unless --yes is given
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	var (
		skipConfirm bool
		messageID   string
	)

	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a chat, or with --message one message and its linked reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			what := "chat " + sessionID
			if messageID != "" {
				what = "message " + messageID + " and its linked reply"
			}
			if !skipConfirm && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete "+what+"?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			a, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()
			engine := a.engine(nil, false)
			defer engine.Close()

			if messageID == "" {
				if err := engine.Sessions.DeleteSession(cmd.Context(), sessionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted chat %s\n", sessionID)
				return nil
			}

			if err := engine.Sessions.LoadSession(cmd.Context(), sessionID); err != nil {
				return err
			}
			if err := engine.Cascade.RequestDelete(messageID); err != nil {
				return err
			}
			res, err := engine.Cascade.ConfirmDelete(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted messages %s\n", strings.Join(res.RemovedIDs, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVarP(&messageID, "message", "m", "", "delete only this message pair")
	return cmd
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
