package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear chat sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the messages of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()
		s, err := st.sessions.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("session %s: %w", args[0], err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "[SESSION %s]\n", s.ID)
		fmt.Fprintf(&b, "Started: %s\n", s.CreatedAt.Format(time.RFC3339))
		for _, m := range s.Messages {
			fmt.Fprintf(&b, "\n> %s\n", m.Input)
			fmt.Fprintf(&b, "(%s, %s) %s\n", m.Intent, m.Timestamp.Format(time.Kitchen), m.Output)
		}
		return emit(cmd, b.String(), s)
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()
		if err := st.sessions.Clear(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared session %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}
