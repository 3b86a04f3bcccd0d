package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Ace30/insightmate/internal/insight"
	"github.com/Ace30/insightmate/internal/render"
)

var insQuery string

type insightsView struct {
	Insights *insight.Insight `json:"insights"`
	Cards    []insight.Card   `json:"insight_cards"`
}

var insightsCmd = &cobra.Command{
	Use:   "insights <file>",
	Short: "Write a plain-language narrative of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := runFile(cmd.Context(), args[0], insQuery, false)
		if err != nil {
			return err
		}
		md := render.Insights(out.Insights) + "\n" + render.Cards(out.Cards)
		return emit(cmd, md, insightsView{Insights: out.Insights, Cards: out.Cards})
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVarP(&insQuery, "query", "q", "", "question to answer specifically (e.g. \"any trends?\")")
}
