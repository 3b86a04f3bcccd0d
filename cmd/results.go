package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List or delete cached analyses",
}

type resultRow struct {
	Key       string    `json:"key"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached analyses, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()
		entries, err := st.results.List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([]resultRow, 0, len(entries))
		var b strings.Builder
		if len(entries) == 0 {
			b.WriteString("(no cached analyses)\n")
		}
		for _, e := range entries {
			rows = append(rows, resultRow{
				Key: e.Key, Source: e.Source, CreatedAt: e.CreatedAt,
				Rows: e.Summary.TotalRows, Columns: e.Summary.TotalColumns,
			})
			fmt.Fprintf(&b, "- %s: %s (%d rows, %d columns, %s)\n",
				e.Key, e.Source, e.Summary.TotalRows, e.Summary.TotalColumns, e.CreatedAt.Format(time.RFC3339))
		}
		return emit(cmd, b.String(), rows)
	},
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a cached analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()
		if err := st.results.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsDeleteCmd)
}
