// Package insight turns analysis results into plain-English sentences.
//
// Sentence selection is rule based: each facet is checked against ordered
// threshold ladders and the first matching rung picks the template.
package insight

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
)

// Visualization suggestion names.
const (
	VizSummary      = "summary_chart"
	VizTrend        = "trend_chart"
	VizCorrelation  = "correlation_heatmap"
	VizAnomaly      = "anomaly_chart"
	VizDistribution = "distribution_chart"
)

// Insight is the narrative produced for one table and analysis.
type Insight struct {
	Summary                  string   `json:"summary"`
	DetailedInsights         []string `json:"detailed_insights"`
	Recommendations          []string `json:"recommendations"`
	VisualizationSuggestions []string `json:"visualization_suggestions"`
	// QuerySpecificInsight is nil when no query was given or nothing matched it.
	QuerySpecificInsight *string `json:"query_specific_insights"`
	Error                string  `json:"error,omitempty"`
}

var (
	trendWords       = []string{"trend", "pattern", "increase", "decrease"}
	correlationWords = []string{"correlation", "relationship", "connection"}
	anomalyWords     = []string{"anomaly", "outlier", "unusual"}
)

var printer = message.NewPrinter(language.English)

// grouped formats n with thousands separators.
func grouped(n int) string { return printer.Sprintf("%d", n) }

// Narrate builds the summary, detailed insights, recommendations and
// visualization suggestions for t and r. A non-empty query also yields a
// query-specific sentence when one of its keyword sets matches.
func Narrate(t *dataset.Table, r *analysis.Result, query string) (in *Insight) {
	log := logging.Default()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("narration failed", "error", rec)
			in = &Insight{
				Summary:                  "I analyzed your data and found interesting patterns.",
				DetailedInsights:         []string{"The analysis revealed several important patterns in your data."},
				Recommendations:          []string{"Consider exploring specific aspects of your data with targeted questions."},
				VisualizationSuggestions: []string{VizSummary},
				Error:                    fmt.Sprint(rec),
			}
		}
	}()

	in = &Insight{
		Summary: safely(log, "summary",
			"I've analyzed your dataset and found several interesting patterns worth exploring.",
			func() string { return summary(t, r) }),
		DetailedInsights:         detailed(log, r),
		Recommendations:          recommendations(log, t, r),
		VisualizationSuggestions: suggestVisualizations(r),
	}
	if query != "" {
		in.QuerySpecificInsight = safely[*string](log, "query", nil, func() *string { return queryInsight(query, r) })
	}
	return in
}

// safely runs fn and returns fallback if it panics.
func safely[T any](log *slog.Logger, part string, fallback T, fn func() T) (v T) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("insight generation failed", "part", part, "error", rec)
			v = fallback
		}
	}()
	return fn()
}

func summary(t *dataset.Table, r *analysis.Result) string {
	shape := t.Shape()
	parts := []string{fmt.Sprintf("Your dataset contains %s rows and %d columns, with %d numeric variables.",
		grouped(shape.Rows), shape.Cols, len(t.NumericColumns()))}

	if missing := t.MissingPercentage(); missing > 5 {
		parts = append(parts, fmt.Sprintf("Data quality note: %.1f%% of values are missing, which may affect analysis accuracy.", missing))
	} else {
		parts = append(parts, "The data appears to be relatively complete with minimal missing values.")
	}
	if dups := t.DuplicateCount(); dups > 0 {
		parts = append(parts, fmt.Sprintf("Found %d duplicate rows that have been handled in the analysis.", dups))
	}

	var findings []string
	if n := trendCount(r); n > 0 {
		findings = append(findings, fmt.Sprintf("%d significant trend(s)", n))
	}
	if n := len(strongCorrelations(r)); n > 0 {
		findings = append(findings, fmt.Sprintf("%d strong correlation(s)", n))
	}
	if n := anomalyColumns(r); n > 0 {
		findings = append(findings, fmt.Sprintf("%d anomaly/ies", n))
	}
	if len(findings) > 0 {
		parts = append(parts, fmt.Sprintf("Key findings include: %s.", strings.Join(findings, ", ")))
	}
	return strings.Join(parts, " ")
}

func detailed(log *slog.Logger, r *analysis.Result) (out []string) {
	out = []string{}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("detailed insights failed", "error", rec)
			out = append(out, "I found several interesting patterns in your data that could be worth exploring further.")
		}
	}()

	if bs, ok := r.BasicStats.Get(); ok {
		for _, s := range bs {
			if line, ok := statisticsSentence(s); ok {
				out = append(out, line)
			}
		}
	}
	trends, _ := r.Trends.Get()
	for _, tr := range trends {
		out = append(out, trendSentence(tr))
	}
	for _, p := range strongCorrelations(r) {
		out = append(out, correlationSentence(p))
	}
	anomalies, _ := r.Anomalies.Get()
	for _, a := range anomalies {
		out = append(out, anomalySentence(a))
	}
	if p, ok := r.Patterns.Get(); ok {
		out = append(out, clusterSentence(p.Clusters))
	}
	return out
}

// statisticsSentence checks variability before skew. A column with skew between
// 0.5 and 1 and unremarkable variability gets no sentence.
func statisticsSentence(s analysis.ColumnStats) (string, bool) {
	std, skew := float64(s.Std), float64(s.Skewness)
	if std > 0 {
		cv := 0.0
		if mean := float64(s.Mean); mean != 0 {
			cv = std / math.Abs(mean)
		}
		switch {
		case cv > 0.5:
			return fmt.Sprintf("The %s shows high variability with a standard deviation of %.2f, indicating diverse values across your dataset.", s.Column, std), true
		case cv < 0.1:
			return fmt.Sprintf("The %s shows low variability with a standard deviation of %.2f, suggesting consistent values.", s.Column, std), true
		}
	}
	switch {
	case math.Abs(skew) > 1:
		direction := "negatively skewed"
		if skew > 0 {
			direction = "positively skewed"
		}
		return fmt.Sprintf("The %s is %s with a skewness of %.2f, indicating an asymmetric distribution.", s.Column, direction, skew), true
	case math.Abs(skew) < 0.5:
		return fmt.Sprintf("The %s follows a relatively normal distribution with a skewness of %.2f.", s.Column, skew), true
	}
	return "", false
}

func trendSentence(tr analysis.Trend) string {
	slope := float64(tr.Slope)
	if math.Abs(slope) <= 0.1 {
		return fmt.Sprintf("The %s shows a relatively stable pattern over time.", tr.Column)
	}
	strength := "moderate"
	if math.Abs(slope) > 0.5 {
		strength = "strong"
	}
	direction := "downward"
	if tr.Direction == "increasing" {
		direction = "upward"
	}
	return fmt.Sprintf("There's a %s %s trend in %s with a slope of %.3f.", strength, direction, tr.Column, slope)
}

func correlationSentence(p analysis.PairCorr) string {
	r := float64(p.Correlation)
	switch {
	case math.Abs(r) > 0.8 && r > 0:
		return fmt.Sprintf("There's a very strong positive correlation (%.2f) between %s and %s, suggesting they move together.", r, p.Variable1, p.Variable2)
	case math.Abs(r) > 0.8:
		return fmt.Sprintf("There's a very strong negative correlation (%.2f) between %s and %s, suggesting an inverse relationship.", r, p.Variable1, p.Variable2)
	case math.Abs(r) > 0.6 && r > 0:
		return fmt.Sprintf("There's a strong positive correlation (%.2f) between %s and %s.", r, p.Variable1, p.Variable2)
	case math.Abs(r) > 0.6:
		return fmt.Sprintf("There's a strong negative correlation (%.2f) between %s and %s.", r, p.Variable1, p.Variable2)
	}
	return fmt.Sprintf("There's a moderate correlation (%.2f) between %s and %s.", r, p.Variable1, p.Variable2)
}

func anomalySentence(a analysis.Anomaly) string {
	pct := float64(a.Percentage)
	switch {
	case pct > 10:
		return fmt.Sprintf("I detected %d anomalies in %s, representing %.1f%% of the data. These may need investigation.", a.Count, a.Column, pct)
	case pct > 2:
		return fmt.Sprintf("I found %d potential outliers in %s (%.1f%% of data) that may warrant attention.", a.Count, a.Column, pct)
	}
	return fmt.Sprintf("The data in %s appears relatively clean with only %d potential outliers (%.1f%% of data).", a.Column, a.Count, pct)
}

func clusterSentence(f analysis.Facet[analysis.Clusters]) string {
	c, ok := f.Get()
	if !ok {
		return f.Reason
	}
	if c.K > 1 {
		return fmt.Sprintf("The data shows %d distinct clusters, suggesting natural groupings in your dataset.", c.K)
	}
	return "The clustering analysis suggests the data is relatively homogeneous without clear natural groupings."
}

func recommendations(log *slog.Logger, t *dataset.Table, r *analysis.Result) (out []string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("recommendations failed", "error", rec)
			out = append(out, "Consider exploring the data further with specific questions.")
		}
	}()
	if t.MissingPercentage() > 10 {
		out = append(out, "Consider data imputation strategies for missing values to improve analysis accuracy.")
	}
	if anomalyColumns(r) > 0 {
		out = append(out, "Investigate the detected anomalies to understand their causes and potential impact.")
	}
	if len(strongCorrelations(r)) > 0 {
		out = append(out, "Explore the strong correlations further to understand causal relationships.")
	}
	if trendCount(r) > 0 {
		out = append(out, "Monitor the identified trends to understand their implications for future planning.")
	}
	if len(out) == 0 {
		out = append(out,
			"Consider exploring specific aspects of your data with targeted questions.",
			"Use the interactive visualizations to gain deeper insights into your data patterns.",
		)
	}
	return out
}

func suggestVisualizations(r *analysis.Result) []string {
	out := []string{VizSummary}
	if trendCount(r) > 0 {
		out = append(out, VizTrend)
	}
	if len(strongCorrelations(r)) > 0 {
		out = append(out, VizCorrelation)
	}
	if anomalyColumns(r) > 0 {
		out = append(out, VizAnomaly)
	}
	if p, ok := r.Patterns.Get(); ok && len(p.Distributions) > 0 {
		out = append(out, VizDistribution)
	}
	return out
}

// queryInsight matches the query against the keyword sets in priority order.
// The first set that matches decides the answer, even when its facet is empty.
func queryInsight(query string, r *analysis.Result) *string {
	q := strings.ToLower(query)
	var s string
	switch {
	case containsAny(q, trendWords):
		n := trendCount(r)
		if n == 0 {
			return nil
		}
		s = fmt.Sprintf("Based on your question about trends, I found %d significant trend(s) in your data.", n)
	case containsAny(q, correlationWords):
		n := len(strongCorrelations(r))
		if n == 0 {
			return nil
		}
		s = fmt.Sprintf("Regarding correlations, I identified %d strong correlation(s) in your data.", n)
	case containsAny(q, anomalyWords):
		anomalies, _ := r.Anomalies.Get()
		if len(anomalies) == 0 {
			return nil
		}
		total := 0
		for _, a := range anomalies {
			total += a.Count
		}
		s = fmt.Sprintf("Concerning anomalies, I detected %d potential outliers across your dataset.", total)
	default:
		return nil
	}
	return &s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func trendCount(r *analysis.Result) int {
	trends, _ := r.Trends.Get()
	return len(trends)
}

func anomalyColumns(r *analysis.Result) int {
	anomalies, _ := r.Anomalies.Get()
	return len(anomalies)
}

func strongCorrelations(r *analysis.Result) []analysis.PairCorr {
	c, _ := r.Correlations.Get()
	return c.StrongCorrelations
}
