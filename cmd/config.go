package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/Ace30/insightmate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set InsightMate configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		var b strings.Builder
		fmt.Fprintf(&b, "data_dir: %s\n", c.DataDir)
		fmt.Fprintf(&b, "results_backend: %s\n", c.ResultsBackend)
		fmt.Fprintf(&b, "iqr_multiplier: %.3f\n", c.IQRMultiplier)
		fmt.Fprintf(&b, "cluster_seed: %d\n", c.ClusterSeed)
		fmt.Fprintf(&b, "max_clusters: %d\n", c.MaxClusters)
		fmt.Fprintf(&b, "parallelism: %d\n", c.Parallelism)
		fmt.Fprintf(&b, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(&b, "log_format: %s\n", c.LogFormat)
		if c.CSVDelimiter != "" {
			fmt.Fprintf(&b, "csv_delimiter: %q\n", c.CSVDelimiter)
		}
		if c.DecimalSeparator != "" {
			fmt.Fprintf(&b, "decimal_separator: %q\n", c.DecimalSeparator)
		}
		if c.ThousandsSeparator != "" {
			fmt.Fprintf(&b, "thousands_separator: %q\n", c.ThousandsSeparator)
		}
		if c.SampleRows > 0 {
			fmt.Fprintf(&b, "sample_rows: %d\n", c.SampleRows)
		}
		return emit(cmd, b.String(), c)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Start from the file alone so flag overrides are not persisted.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := c.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
