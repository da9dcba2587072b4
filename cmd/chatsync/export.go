// ABOUTME: export and search subcommands
// ABOUTME: export writes a transcript file; search queries every chat on the backend
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/chatsync/internal/api"
	"github.com/harper/chatsync/internal/chat"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a chat as txt, md, or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			if dir == "" {
				dir = a.cfg.Export.Directory
			}
			path, err := chat.NewExporter(a.client, dir).Export(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", api.FormatText, "txt, md, or pdf")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default export.directory)")
	return cmd
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search messages across chats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			hits, err := chat.RemoteSearch(cmd.Context(), a.client, args[0], sessionID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d message(s) containing \"%s\"\n", len(hits), args[0])
			for _, h := range hits {
				fmt.Fprintf(out, "[%s] %s (%s): %s\n", h.SessionID, h.SessionTitle, h.Role.Label(), h.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "limit the search to one chat")
	return cmd
}
