package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/render"
)

var anaNoCache bool

// analysisView is the JSON shape of `analyze --json`.
type analysisView struct {
	Key         string           `json:"key"`
	Source      string           `json:"source"`
	DataSummary dataset.Summary  `json:"data_summary"`
	Analysis    *analysis.Result `json:"analysis"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Clean and analyze a dataset, caching the result for chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		out, err := runFile(cmd.Context(), path, "", !anaNoCache)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		var b strings.Builder
		b.WriteString(render.Summary(name, out.DataSummary))
		b.WriteString("\n")
		b.WriteString(render.Analysis(out.Analysis))
		if !anaNoCache {
			fmt.Fprintf(&b, "\nCached as %s\n", out.Key)
		}
		return emit(cmd, b.String(), analysisView{
			Key:         out.Key,
			Source:      name,
			DataSummary: out.DataSummary,
			Analysis:    out.Analysis,
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&anaNoCache, "no-cache", false, "do not store the analysis in the results backend")
}
