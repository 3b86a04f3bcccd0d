// Package render formats pipeline artifacts as compact Markdown reports.
package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/cleaning"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/insight"
	"github.com/Ace30/insightmate/internal/pipeline"
)

const maxPairs = 10

// Report renders every section of a pipeline run.
func Report(name string, out *pipeline.Output) string {
	if out == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(Summary(name, out.DataSummary))
	if out.Cleaning != nil {
		b.WriteString("\n")
		b.WriteString(Cleaning(out.Cleaning))
	}
	if out.Analysis != nil {
		b.WriteString("\n")
		b.WriteString(Analysis(out.Analysis))
	}
	if out.Insights != nil {
		b.WriteString("\n")
		b.WriteString(Insights(out.Insights))
	}
	return b.String()
}

// Summary renders the dataset overview and schema.
func Summary(name string, s dataset.Summary) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		fmt.Fprintf(&b, "File: %s\n", name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", s.TotalRows)
	fmt.Fprintf(&b, "Columns: %d\n\n", s.TotalColumns)

	b.WriteString("[SCHEMA]\n")
	for _, col := range slices.Sorted(maps.Keys(s.DataTypes)) {
		missPct := 0.0
		if s.TotalRows > 0 {
			missPct = float64(s.MissingValues[col]) * 100.0 / float64(s.TotalRows)
		}
		fmt.Fprintf(&b, "- %s: %s (missing %d, %.1f%%)\n", safeName(col), s.DataTypes[col], s.MissingValues[col], missPct)
	}
	return b.String()
}

// Cleaning renders what each cleaning rule did.
func Cleaning(rep *cleaning.Report) string {
	var b strings.Builder
	b.WriteString("[CLEANING]\n")
	fmt.Fprintf(&b, "Shape: %dx%d -> %dx%d (rows removed %d, columns removed %d)\n",
		rep.OriginalShape.Rows, rep.OriginalShape.Cols, rep.FinalShape.Rows, rep.FinalShape.Cols,
		rep.RowsRemoved, rep.ColumnsRemoved)
	for _, s := range rep.Steps {
		if s.Error != "" {
			fmt.Fprintf(&b, "- %s: failed (%s)\n", s.Rule, safeVal(s.Error))
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", s.Rule, stepDetail(s))
	}
	fmt.Fprintf(&b, "Issues found: %d, fixes applied: %d\n", rep.Summary.TotalIssuesFound, rep.Summary.TotalFixesApplied)
	if rep.Summary.DataQualityImprovement != "" {
		fmt.Fprintf(&b, "Quality: %s\n", rep.Summary.DataQualityImprovement)
	}
	if len(rep.Summary.Recommendations) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, r := range rep.Summary.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}

func stepDetail(s cleaning.Step) string {
	switch r := s.Report.(type) {
	case *cleaning.MissingValues:
		n := 0
		for _, c := range r.MissingCounts {
			n += c
		}
		d := fmt.Sprintf("%d missing cells in %d columns", n, len(r.MissingCounts))
		if len(r.ColumnsRemoved) > 0 {
			d += fmt.Sprintf("; dropped %s", strings.Join(r.ColumnsRemoved, ", "))
		}
		if len(r.UnfilledColumns) > 0 {
			d += fmt.Sprintf("; unfilled %s", strings.Join(r.UnfilledColumns, ", "))
		}
		return d
	case *cleaning.Duplicates:
		return fmt.Sprintf("%d duplicate rows removed", r.DuplicatesRemoved)
	case *cleaning.Outliers:
		return fmt.Sprintf("capped outliers in %d columns", len(r.Handled))
	}
	return "applied"
}

// Analysis renders the computed facets; skipped facets are listed under NOTES.
func Analysis(r *analysis.Result) string {
	var b strings.Builder
	var notes []string
	note := func(facet, reason string) { notes = append(notes, fmt.Sprintf("%s: %s", facet, reason)) }

	b.WriteString("[STATISTICS]\n")
	if stats, ok := r.BasicStats.Get(); ok {
		for _, s := range stats {
			name := safeName(s.Column)
			if s.Unit != "" {
				name = fmt.Sprintf("%s [%s]", name, s.Unit)
			}
			fmt.Fprintf(&b, "- %s: n=%d, mean %s, median %s, std %s, min %s, max %s\n",
				name, s.Count, num(s.Mean), num(s.Median), num(s.Std), num(s.Min), num(s.Max))
		}
	} else {
		note("basic_stats", r.BasicStats.Reason)
	}

	if trends, ok := r.Trends.Get(); ok && len(trends) > 0 {
		b.WriteString("\n[TRENDS]\n")
		for _, t := range trends {
			fmt.Fprintf(&b, "- %s: %s (slope %s over %d points", safeName(t.Column), t.Direction, num(t.Slope), t.Points)
			if t.DateColumn != "" {
				fmt.Fprintf(&b, ", ordered by %s", t.DateColumn)
			}
			b.WriteString(")\n")
		}
	} else if !ok {
		note("trends", r.Trends.Reason)
	}

	if corr, ok := r.Correlations.Get(); ok {
		if len(corr.StrongCorrelations) > 0 {
			b.WriteString("\n[CORRELATIONS]\n")
			for _, p := range corr.StrongCorrelations[:min(len(corr.StrongCorrelations), maxPairs)] {
				fmt.Fprintf(&b, "- %s ~ %s: r=%.3f (%s)\n", p.Variable1, p.Variable2, float64(p.Correlation), p.Strength)
			}
		} else if corr.Highest != nil {
			b.WriteString("\n[CORRELATIONS]\n")
			fmt.Fprintf(&b, "- strongest: %s ~ %s: r=%.3f\n", corr.Highest.Variable1, corr.Highest.Variable2, float64(corr.Highest.Correlation))
		}
	} else {
		note("correlations", r.Correlations.Reason)
	}

	if anomalies, ok := r.Anomalies.Get(); ok && len(anomalies) > 0 {
		b.WriteString("\n[ANOMALIES]\n")
		for _, a := range anomalies {
			fmt.Fprintf(&b, "- %s: %d outside [%s, %s] (%.1f%%)\n",
				safeName(a.Column), a.Count, num(a.Bounds.Lower), num(a.Bounds.Upper), float64(a.Percentage))
		}
	} else if !ok {
		note("anomalies", r.Anomalies.Reason)
	}

	if p, ok := r.Patterns.Get(); ok {
		if len(p.Distributions) > 0 {
			b.WriteString("\n[DISTRIBUTIONS]\n")
			for _, d := range p.Distributions {
				fmt.Fprintf(&b, "- %s: %s (p10 %s, p50 %s, p90 %s)\n", safeName(d.Column), d.Type,
					num(d.Percentiles.P10), num(d.Percentiles.P50), num(d.Percentiles.P90))
			}
		}
		if cl, ok := p.Clusters.Get(); ok {
			b.WriteString("\n[CLUSTERS]\n")
			fmt.Fprintf(&b, "k=%d over %s (used %d rows, excluded %d)\n", cl.K, strings.Join(cl.Columns, ", "), cl.PointsUsed, cl.PointsExcluded)
			for i, n := range cl.Sizes {
				fmt.Fprintf(&b, "- cluster %d: %d rows\n", i, n)
			}
		} else {
			note("clusters", p.Clusters.Reason)
		}
	} else {
		note("patterns", r.Patterns.Reason)
	}

	if len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

// Insights renders the narrative.
func Insights(in *insight.Insight) string {
	var b strings.Builder
	b.WriteString("[INSIGHTS]\n")
	b.WriteString(in.Summary)
	b.WriteString("\n")
	for _, d := range in.DetailedInsights {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	if in.QuerySpecificInsight != nil {
		b.WriteString("\n[QUERY]\n")
		b.WriteString(*in.QuerySpecificInsight)
		b.WriteString("\n")
	}
	if len(in.Recommendations) > 0 {
		b.WriteString("\n[RECOMMENDATIONS]\n")
		for _, r := range in.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if len(in.VisualizationSuggestions) > 0 {
		fmt.Fprintf(&b, "\nSuggested charts: %s\n", strings.Join(in.VisualizationSuggestions, ", "))
	}
	return b.String()
}

// Cards renders insight cards, one per line.
func Cards(cards []insight.Card) string {
	var b strings.Builder
	b.WriteString("[CARDS]\n")
	for _, c := range cards {
		fmt.Fprintf(&b, "- (%s) %s: %s\n", c.Severity, c.Title, safeVal(c.Description))
	}
	return b.String()
}

func num(f dataset.Float) string {
	if !f.Valid() {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", float64(f))
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
