package analysis

import (
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
)

// Messages carried by skipped facets.
const (
	MsgNoNumericColumns        = "No numeric columns found for statistical analysis"
	MsgCorrelationInsufficient = "Insufficient numeric columns for correlation analysis"
	MsgSeasonality             = "Seasonality detection not implemented yet"
	MsgSegmentation            = "Segmentation analysis not implemented yet"
	MsgForecasting             = "Forecasting not implemented yet"
	MsgClusterColumns          = "Insufficient numeric columns for clustering"
	MsgClusterRows             = "Insufficient clean data for clustering"
	MsgClusterK                = "Insufficient data for clustering"
)

// Options controls analysis behavior.
type Options struct {
	// IQRMultiplier sets the anomaly fence width; 0 means 1.5.
	IQRMultiplier float64
	// MaxClusters caps k for clustering; 0 means 5.
	MaxClusters     int
	ClusterSeed     uint64
	ClusterRestarts int
	ClusterMaxIter  int
	// Parallelism bounds how many facets are computed at once; values below 1 mean sequential.
	Parallelism int
	Logger      *slog.Logger
}

// DefaultOptions returns the standard analysis settings.
func DefaultOptions() Options {
	return Options{
		IQRMultiplier:   1.5,
		MaxClusters:     5,
		ClusterSeed:     42,
		ClusterRestarts: 10,
		ClusterMaxIter:  300,
		Parallelism:     4,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.IQRMultiplier <= 0 {
		o.IQRMultiplier = d.IQRMultiplier
	}
	if o.MaxClusters <= 0 {
		o.MaxClusters = d.MaxClusters
	}
	if o.ClusterRestarts <= 0 {
		o.ClusterRestarts = d.ClusterRestarts
	}
	if o.ClusterMaxIter <= 0 {
		o.ClusterMaxIter = d.ClusterMaxIter
	}
	if o.Parallelism < 1 {
		o.Parallelism = 1
	}
	if o.Logger == nil {
		o.Logger = logging.Default()
	}
	return o
}

// Analyze computes every facet over t. It never fails: a facet that cannot be
// computed is skipped with a reason. The table is not modified.
func Analyze(t *dataset.Table, opt Options) *Result {
	opt = opt.normalized()
	log := opt.Logger
	r := &Result{}

	var g errgroup.Group
	g.SetLimit(opt.Parallelism)
	g.Go(func() error {
		r.BasicStats = guard(log, "basic_stats", func() Facet[ByColumn[ColumnStats]] { return basicStats(t) })
		return nil
	})
	g.Go(func() error {
		r.Trends = guard(log, "trends", func() Facet[ByColumn[Trend]] { return detectTrends(t, log) })
		return nil
	})
	g.Go(func() error {
		r.Correlations = guard(log, "correlations", func() Facet[Correlations] { return analyzeCorrelations(t) })
		return nil
	})
	g.Go(func() error {
		r.Anomalies = guard(log, "anomalies", func() Facet[ByColumn[Anomaly]] { return detectAnomalies(t, opt.IQRMultiplier) })
		return nil
	})
	g.Go(func() error {
		r.Patterns = guard(log, "patterns", func() Facet[Patterns] { return identifyPatterns(t, opt) })
		return nil
	})
	_ = g.Wait()

	r.Segments = Skipped[struct{}](MsgSegmentation)
	r.Forecasts = Skipped[struct{}](MsgForecasting)
	return r
}

// guard turns a panicking facet into a skipped one.
func guard[T any](log *slog.Logger, name string, fn func() Facet[T]) (f Facet[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("analysis facet failed", "facet", name, "error", rec)
			f = Skipped[T](fmt.Sprintf("%s failed: %v", name, rec))
		}
	}()
	return fn()
}
