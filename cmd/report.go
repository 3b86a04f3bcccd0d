package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ace30/insightmate/internal/render"
)

var repQuery string

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Run the full pipeline and print every section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := runFile(cmd.Context(), args[0], repQuery, true)
		if err != nil {
			return err
		}
		md := render.Report(filepath.Base(args[0]), out) + "\n" + render.Cards(out.Cards)
		return emit(cmd, md, out)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repQuery, "query", "q", "", "question to answer specifically")
}
