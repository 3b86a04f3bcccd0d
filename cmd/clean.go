package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ace30/insightmate/internal/cleaning"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/render"
	"github.com/Ace30/insightmate/internal/utils"
)

var (
	cleanDataOut string
	cleanRules   []string
)

type cleanView struct {
	Report      *cleaning.Report `json:"cleaning_report"`
	CleanedData []map[string]any `json:"cleaned_data"`
}

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Run the cleaning rules and report what changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		opt := settings().CleaningOptions()
		if len(cleanRules) > 0 {
			for _, r := range cleanRules {
				if _, ok := cleaningRuleSet[r]; !ok {
					return fmt.Errorf("unknown rule %q (valid: %v)", r, cleaning.DefaultRules)
				}
			}
			opt.Rules = cleanRules
		}
		cleaned, rep, err := cleaning.Clean(t, opt)
		if err != nil {
			return err
		}
		if cleanDataOut != "" {
			var buf bytes.Buffer
			if err := dataset.WriteCSV(&buf, cleaned); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(cleanDataOut, buf.Bytes()); err != nil {
				return fmt.Errorf("write cleaned data: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote cleaned data to %s\n", cleanDataOut)
		}
		md := render.Summary(filepath.Base(args[0]), cleaned.Summary()) + "\n" + render.Cleaning(rep)
		return emit(cmd, md, cleanView{Report: rep, CleanedData: cleaned.Records()})
	},
}

var cleaningRuleSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(cleaning.DefaultRules))
	for _, r := range cleaning.DefaultRules {
		m[r] = struct{}{}
	}
	return m
}()

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanDataOut, "data-out", "", "write the cleaned table as CSV to this path")
	cleanCmd.Flags().StringSliceVar(&cleanRules, "rules", nil, "comma-separated subset of rules to apply")
}
