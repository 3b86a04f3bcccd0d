package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/Ace30/insightmate/internal/config"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
	"github.com/Ace30/insightmate/internal/pipeline"
	"github.com/Ace30/insightmate/internal/render"
	"github.com/Ace30/insightmate/internal/store"
	"github.com/Ace30/insightmate/internal/store/memory"
	"github.com/Ace30/insightmate/internal/store/sqlite"
	"github.com/Ace30/insightmate/internal/utils"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagDataDir string
	flagBackend string

	// Output flags shared by every command
	outJSON bool
	outPath string

	// XLSX sheet selection
	sheetName  string
	sheetIndex int

	// Loaded configuration
	cfg *cfgpkg.Global

	// Process-wide stores for the memory backend.
	memSessions = memory.NewSessionStore()
	memResults  = memory.NewResultStore()
)

var rootCmd = &cobra.Command{
	Use:   "insightmate",
	Short: "InsightMate: clean, analyze and explain tabular data",
	Long: `InsightMate cleans a CSV/TSV/JSON/XLSX dataset, computes statistics, trends,
correlations, anomalies and clusters, derives chart data and writes a plain-language
narrative. Results are cached so follow-up questions can be answered with chat.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.insightmate/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagDataDir, "data-dir", "", "directory for the results database (overrides config)")
	pf.StringVar(&flagBackend, "backend", "", "results backend: memory|sqlite (overrides config)")
	pf.BoolVar(&outJSON, "json", false, "print JSON instead of Markdown")
	pf.StringVarP(&outPath, "output", "o", "", "write output to a file instead of stdout")
	pf.StringVar(&sheetName, "sheet-name", "", "XLSX: sheet name to load")
	pf.IntVar(&sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to in-memory defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{ResultsBackend: cfgpkg.BackendMemory}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if f.Changed("backend") && flagBackend != "" {
		cfg.ResultsBackend = strings.ToLower(flagBackend)
	}

	lo := cfg.LoggingOptions()
	if debug {
		lo.Level = "debug"
	}
	logging.Set(logging.New(lo))
}

func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

// stores bundles the session log and result cache of the configured backend.
type stores struct {
	sessions store.Sessions
	results  store.Results
	close    func() error
}

func openStores() (*stores, error) {
	c := settings()
	switch c.ResultsBackend {
	case cfgpkg.BackendMemory:
		return &stores{sessions: memSessions, results: memResults, close: func() error { return nil }}, nil
	case cfgpkg.BackendSQLite:
		if c.DataDir == "" {
			return nil, errors.New("data_dir is not set")
		}
		db, err := sqlite.Open(c.DataDir)
		if err != nil {
			return nil, err
		}
		logging.Default().Debug("opened results database", "path", db.Path())
		return &stores{sessions: db.Sessions(), results: db.Results(), close: db.Close}, nil
	default:
		return nil, fmt.Errorf("unknown results backend %q", c.ResultsBackend)
	}
}

// loadDataset reads a file and returns its table plus the cache key of its bytes.
func loadDataset(path string) (*dataset.Table, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read dataset: %w", err)
	}
	opt := settings().LoadOptions()
	opt.Sheet, opt.SheetIndex = sheetName, sheetIndex
	t, err := dataset.Load(path, opt)
	if err != nil {
		return nil, "", err
	}
	return t, pipeline.Key(raw), nil
}

func pipelineOptions() pipeline.Options {
	c := settings()
	opt := pipeline.DefaultOptions()
	opt.Cleaning = c.CleaningOptions()
	opt.Analysis = c.AnalysisOptions()
	return opt
}

// runFile loads path and runs the pipeline, caching the analysis when cache is set.
func runFile(ctx context.Context, path, query string, cache bool) (*pipeline.Output, error) {
	t, key, err := loadDataset(path)
	if err != nil {
		return nil, err
	}
	opt := pipelineOptions()
	opt.Query = query
	opt.Key = key
	opt.Source = filepath.Base(path)
	if cache {
		st, err := openStores()
		if err != nil {
			return nil, err
		}
		defer st.close()
		opt.Results = st.results
	}
	return pipeline.Run(ctx, t, opt)
}

// emit writes either the JSON form of v or the Markdown text, to --output or stdout.
func emit(cmd *cobra.Command, markdown string, v any) error {
	var body []byte
	if outJSON {
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		body = append(b, '\n')
	} else {
		body = []byte(markdown)
	}
	if outPath != "" {
		if err := utils.SafeWriteFile(outPath, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", outPath)
		return nil
	}
	w := cmd.OutOrStdout()
	if !outJSON {
		body = []byte(render.StylerFor(w).Apply(string(body)))
	}
	_, err := w.Write(body)
	return err
}
