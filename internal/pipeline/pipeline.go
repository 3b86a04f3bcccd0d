// Package pipeline runs the full data understanding chain:
// clean, analyze, then chart data and narrative from the cleaned table.
package pipeline

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/charts"
	"github.com/Ace30/insightmate/internal/cleaning"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/insight"
	"github.com/Ace30/insightmate/internal/logging"
	"github.com/Ace30/insightmate/internal/store"
)

// Options configures one run.
type Options struct {
	Cleaning cleaning.Options
	Analysis analysis.Options
	// Query, when set, asks the narrative for a query-specific sentence.
	Query string
	// Results, when set, receives the analysis under Key.
	Results store.Results
	Key     string
	Source  string
	Logger  *slog.Logger
}

// DefaultOptions returns the standard cleaning and analysis settings.
func DefaultOptions() Options {
	return Options{
		Cleaning: cleaning.DefaultOptions(),
		Analysis: analysis.DefaultOptions(),
	}
}

// Output holds every artifact of a run.
type Output struct {
	Key         string           `json:"key,omitempty"`
	DataSummary dataset.Summary  `json:"data_summary"`
	Cleaning    *cleaning.Report `json:"cleaning_report"`
	Analysis    *analysis.Result `json:"analysis"`
	Charts      *charts.Payload  `json:"charts"`
	Insights    *insight.Insight `json:"insights"`
	Cards       []insight.Card   `json:"insight_cards"`
	Cleaned     *dataset.Table   `json:"-"`
	Elapsed     time.Duration    `json:"-"`
}

// Run validates t and runs every stage. The input table is not modified.
// Cancellation is honored between stages.
func Run(ctx context.Context, t *dataset.Table, opt Options) (*Output, error) {
	log := opt.Logger
	if log == nil {
		log = logging.Default()
	}
	if t == nil || t.Rows() == 0 || len(t.Columns) == 0 {
		return nil, dataset.ErrEmptyTable
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table: %w", err)
	}
	start := time.Now()
	out := &Output{Key: opt.Key, DataSummary: t.Summary()}

	opt.Cleaning.Logger = orLogger(opt.Cleaning.Logger, log)
	cleaned, rep, err := cleaning.Clean(t, opt.Cleaning)
	if err != nil {
		return nil, err
	}
	out.Cleaned, out.Cleaning = cleaned, rep
	log.Info("cleaning complete", "rows_removed", rep.RowsRemoved, "issues", rep.Summary.TotalIssuesFound)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opt.Analysis.Logger = orLogger(opt.Analysis.Logger, log)
	out.Analysis = analysis.Analyze(cleaned, opt.Analysis)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Charts = charts.Build(cleaned, out.Analysis, log)
		return gctx.Err()
	})
	g.Go(func() error {
		out.Insights = insight.Narrate(cleaned, out.Analysis, opt.Query)
		out.Cards = insight.Cards(cleaned, out.Analysis)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opt.Results != nil && opt.Key != "" {
		err := opt.Results.Put(ctx, store.Entry{
			Key:       opt.Key,
			Source:    opt.Source,
			CreatedAt: time.Now(),
			Summary:   out.DataSummary,
			Analysis:  out.Analysis,
		})
		if err != nil {
			return nil, fmt.Errorf("caching analysis: %w", err)
		}
	}
	out.Elapsed = time.Since(start)
	log.Info("pipeline complete", "elapsed", out.Elapsed)
	return out, nil
}

func orLogger(l, fallback *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return fallback
}

// Key derives the cache key for a dataset from its raw bytes.
func Key(raw []byte) string {
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// Cached looks up an earlier analysis. A miss returns store.ErrNotFound.
func Cached(ctx context.Context, results store.Results, key string) (*store.Entry, error) {
	if results == nil {
		return nil, store.ErrNotFound
	}
	e, err := results.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reading cached analysis: %w", err)
	}
	return e, nil
}
