package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Ace30/insightmate/internal/utils"
)

var chartsCmd = &cobra.Command{
	Use:   "charts <file>",
	Short: "Derive chart-ready data as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := runFile(cmd.Context(), args[0], "", false)
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(out.Charts)
		if err != nil {
			return err
		}
		// Chart data has no Markdown form.
		return emit(cmd, string(b)+"\n", out.Charts)
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}
