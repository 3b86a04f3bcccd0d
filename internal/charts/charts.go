// Package charts derives visualization payloads from a table and its analysis.
// It computes no new statistics; every value comes from the table or the result.
package charts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
)

// Error messages for charts that have nothing to draw.
const (
	MsgNoNumeric       = "No numeric columns for summary chart"
	MsgNoCorrelation   = "No correlation data available"
	heatmapDescription = "Heatmap showing correlations between numeric variables"
)

// Chart kinds.
const (
	TypeSummary            = "summary_stats"
	TypeLine               = "line"
	TypeHeatmap            = "heatmap"
	TypeHistogram          = "histogram"
	TypeScatter            = "scatter"
	TypeCorrelationHeatmap = "correlation_heatmap"
)

// Chart is one visualization payload. Data holds one of the typed series below
// or the correlation matrix.
type Chart struct {
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Data        any    `json:"data"`
	Description string `json:"description,omitempty"`
}

type SummaryBar struct {
	Column string        `json:"column"`
	Mean   dataset.Float `json:"mean"`
	Median dataset.Float `json:"median"`
	Std    dataset.Float `json:"std"`
}

// LineSeries is a column in row order with the trend fitted to it.
type LineSeries struct {
	X     []int           `json:"x"`
	Y     []dataset.Float `json:"y"`
	Trend analysis.Trend  `json:"trend"`
}

type Histogram struct {
	Values []dataset.Float `json:"values"`
	Column string          `json:"column"`
}

type AnomalyScatter struct {
	Values    []dataset.Float `json:"values"`
	Anomalies []dataset.Float `json:"anomalies"`
	Bounds    analysis.Bounds `json:"bounds"`
}

type Relationship struct {
	X      []dataset.Float `json:"x"`
	Y      []dataset.Float `json:"y"`
	XLabel string          `json:"x_label"`
	YLabel string          `json:"y_label"`
}

// Entry is a derived chart value or the error that prevented it. A failed entry
// marshals as {"error": message}.
type Entry[T any] struct {
	Value T
	Err   string
}

func ok[T any](v T) Entry[T] { return Entry[T]{Value: v} }

func failed[T any](msg string) Entry[T] { return Entry[T]{Err: msg} }

// OK reports whether the entry holds a value.
func (e Entry[T]) OK() bool { return e.Err == "" }

func (e Entry[T]) MarshalJSON() ([]byte, error) {
	if !e.OK() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Err})
	}
	return json.Marshal(e.Value)
}

func (e *Entry[T]) UnmarshalJSON(b []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if t := bytes.TrimSpace(b); len(t) > 0 && t[0] == '{' {
		if err := json.Unmarshal(t, &probe); err == nil && probe.Error != nil {
			*e = failed[T](*probe.Error)
			return nil
		}
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*e = ok(v)
	return nil
}

// Payload groups every chart kind.
type Payload struct {
	Summary       Entry[Chart]   `json:"summary"`
	Trends        Entry[[]Chart] `json:"trends"`
	Correlations  Entry[Chart]   `json:"correlations"`
	Distributions Entry[[]Chart] `json:"distributions"`
	Anomalies     Entry[[]Chart] `json:"anomalies"`
	Patterns      Entry[[]Chart] `json:"patterns"`
}

// Build derives every chart. A chart that cannot be built becomes an error
// entry and the others are still produced. log may be nil.
func Build(t *dataset.Table, r *analysis.Result, log *slog.Logger) *Payload {
	if log == nil {
		log = logging.Default()
	}
	return &Payload{
		Summary:       guard(log, "summary", func() Entry[Chart] { return summaryChart(r) }),
		Trends:        guard(log, "trends", func() Entry[[]Chart] { return trendCharts(t, r) }),
		Correlations:  guard(log, "correlations", func() Entry[Chart] { return correlationChart(r) }),
		Distributions: guard(log, "distributions", func() Entry[[]Chart] { return distributionCharts(t) }),
		Anomalies:     guard(log, "anomalies", func() Entry[[]Chart] { return anomalyCharts(t, r) }),
		Patterns:      guard(log, "patterns", func() Entry[[]Chart] { return patternCharts(t, r) }),
	}
}

func guard[T any](log *slog.Logger, name string, fn func() Entry[T]) (e Entry[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("chart derivation failed", "chart", name, "error", rec)
			e = failed[T](fmt.Sprintf("%s chart failed: %v", name, rec))
		}
	}()
	return fn()
}

func summaryChart(r *analysis.Result) Entry[Chart] {
	bs, computed := r.BasicStats.Get()
	if !computed || len(bs) == 0 {
		return failed[Chart](MsgNoNumeric)
	}
	bars := make([]SummaryBar, 0, len(bs))
	for _, s := range bs {
		bars = append(bars, SummaryBar{Column: s.Column, Mean: s.Mean, Median: s.Median, Std: s.Std})
	}
	return ok(Chart{Type: TypeSummary, Data: bars})
}

func trendCharts(t *dataset.Table, r *analysis.Result) Entry[[]Chart] {
	out := []Chart{}
	trends, _ := r.Trends.Get()
	for _, tr := range trends {
		c, err := column(t, tr.Column)
		if err != nil {
			return failed[[]Chart](err.Error())
		}
		x := make([]int, c.Len())
		for i := range x {
			x[i] = i
		}
		out = append(out, Chart{
			Type:  TypeLine,
			Title: "Trend Analysis - " + tr.Column,
			Data:  LineSeries{X: x, Y: series(c), Trend: tr},
		})
	}
	return ok(out)
}

func correlationChart(r *analysis.Result) Entry[Chart] {
	corr, computed := r.Correlations.Get()
	if !computed {
		return failed[Chart](MsgNoCorrelation)
	}
	return ok(Chart{Type: TypeHeatmap, Title: "Correlation Matrix", Data: corr.Matrix})
}

func distributionCharts(t *dataset.Table) Entry[[]Chart] {
	out := []Chart{}
	for _, c := range t.NumericColumns() {
		vals := c.Floats()
		if len(vals) == 0 {
			continue
		}
		out = append(out, Chart{
			Type:  TypeHistogram,
			Title: "Distribution - " + c.Name,
			Data:  Histogram{Values: dataset.Floats(vals), Column: c.Name},
		})
	}
	return ok(out)
}

func anomalyCharts(t *dataset.Table, r *analysis.Result) Entry[[]Chart] {
	out := []Chart{}
	anomalies, _ := r.Anomalies.Get()
	for _, a := range anomalies {
		c, err := column(t, a.Column)
		if err != nil {
			return failed[[]Chart](err.Error())
		}
		vals := c.Floats()
		if len(vals) == 0 {
			continue
		}
		out = append(out, Chart{
			Type:  TypeScatter,
			Title: "Anomaly Detection - " + a.Column,
			Data:  AnomalyScatter{Values: dataset.Floats(vals), Anomalies: a.Values, Bounds: a.Bounds},
		})
	}
	return ok(out)
}

func patternCharts(t *dataset.Table, r *analysis.Result) Entry[[]Chart] {
	out := []Chart{}
	if num := t.NumericColumns(); len(num) >= 2 {
		a, b := num[0], num[1]
		out = append(out, Chart{
			Type:        TypeScatter,
			Title:       fmt.Sprintf("Relationship: %s vs %s", a.Name, b.Name),
			Data:        Relationship{X: series(a), Y: series(b), XLabel: a.Name, YLabel: b.Name},
			Description: fmt.Sprintf("Scatter plot showing relationship between %s and %s", a.Name, b.Name),
		})
	}
	if corr, computed := r.Correlations.Get(); computed {
		out = append(out, Chart{
			Type:        TypeCorrelationHeatmap,
			Title:       "Correlation Matrix",
			Data:        corr.Matrix,
			Description: heatmapDescription,
		})
	}
	return ok(out)
}

func column(t *dataset.Table, name string) (*dataset.Column, error) {
	c := t.Column(name)
	if c == nil {
		return nil, fmt.Errorf("column %q not found in table", name)
	}
	if c.Kind != dataset.Numeric {
		return nil, fmt.Errorf("column %q is %s, not numeric", name, c.Kind)
	}
	return c, nil
}

// series returns every row of a numeric column; missing cells are NaN and
// marshal as null.
func series(c *dataset.Column) []dataset.Float {
	out := make([]dataset.Float, c.Len())
	for i, v := range c.Num {
		if c.Null[i] {
			out[i] = dataset.NaN()
			continue
		}
		out[i] = dataset.Float(v)
	}
	return out
}
