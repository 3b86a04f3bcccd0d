package insight

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/dataset"
)

func TestStatisticsLadder(t *testing.T) {
	cases := []struct {
		name            string
		mean, std, skew float64
		want            string
	}{
		{"high variability", 10, 10, 0, "The c shows high variability with a standard deviation of 10.00, indicating diverse values across your dataset."},
		{"low variability", 100, 0.5, 3, "The c shows low variability with a standard deviation of 0.50, suggesting consistent values."},
		{"zero mean reads as low variability", 0, 5, 3, "The c shows low variability with a standard deviation of 5.00, suggesting consistent values."},
		{"positive skew", 10, 3, 1.5, "The c is positively skewed with a skewness of 1.50, indicating an asymmetric distribution."},
		{"negative skew", 10, 3, -2, "The c is negatively skewed with a skewness of -2.00, indicating an asymmetric distribution."},
		{"normal", 10, 3, -0.2, "The c follows a relatively normal distribution with a skewness of -0.20."},
		{"gap between 0.5 and 1", 10, 3, 0.7, ""},
		{"undefined skew", 10, 3, math.NaN(), ""},
	}
	for _, tc := range cases {
		got, ok := statisticsSentence(analysis.ColumnStats{
			Column: "c", Mean: dataset.Float(tc.mean), Std: dataset.Float(tc.std), Skewness: dataset.Float(tc.skew),
		})
		if got != tc.want || ok != (tc.want != "") {
			t.Fatalf("%s: got %q (%v), want %q", tc.name, got, ok, tc.want)
		}
	}
}

func TestTrendCorrelationAnomalyLadders(t *testing.T) {
	trends := map[float64]string{
		0.05: "The sales shows a relatively stable pattern over time.",
		0.1:  "The sales shows a relatively stable pattern over time.",
		0.3:  "There's a moderate upward trend in sales with a slope of 0.300.",
		2:    "There's a strong upward trend in sales with a slope of 2.000.",
		-2:   "There's a strong downward trend in sales with a slope of -2.000.",
	}
	for slope, want := range trends {
		dir := "decreasing"
		if slope > 0 {
			dir = "increasing"
		}
		if got := trendSentence(analysis.Trend{Column: "sales", Direction: dir, Slope: dataset.Float(slope)}); got != want {
			t.Fatalf("slope %v: got %q", slope, got)
		}
	}

	corrs := map[float64]string{
		0.95:  "There's a very strong positive correlation (0.95) between a and b, suggesting they move together.",
		-0.9:  "There's a very strong negative correlation (-0.90) between a and b, suggesting an inverse relationship.",
		0.75:  "There's a strong positive correlation (0.75) between a and b.",
		-0.75: "There's a strong negative correlation (-0.75) between a and b.",
		0.55:  "There's a moderate correlation (0.55) between a and b.",
	}
	for r, want := range corrs {
		if got := correlationSentence(analysis.PairCorr{Variable1: "a", Variable2: "b", Correlation: dataset.Float(r)}); got != want {
			t.Fatalf("r %v: got %q", r, got)
		}
	}

	anomalies := map[float64]string{
		20: "I detected 4 anomalies in v, representing 20.0% of the data. These may need investigation.",
		5:  "I found 4 potential outliers in v (5.0% of data) that may warrant attention.",
		2:  "The data in v appears relatively clean with only 4 potential outliers (2.0% of data).",
	}
	for pct, want := range anomalies {
		if got := anomalySentence(analysis.Anomaly{Column: "v", Count: 4, Percentage: dataset.Float(pct)}); got != want {
			t.Fatalf("pct %v: got %q", pct, got)
		}
	}
}

func TestClusterSentence(t *testing.T) {
	if got := clusterSentence(analysis.Computed(analysis.Clusters{K: 3})); !strings.HasPrefix(got, "The data shows 3 distinct clusters") {
		t.Fatalf("got %q", got)
	}
	if got := clusterSentence(analysis.Skipped[analysis.Clusters](analysis.MsgClusterRows)); got != analysis.MsgClusterRows {
		t.Fatalf("skipped clusters should pass the reason through, got %q", got)
	}
}

func richResult() *analysis.Result {
	return &analysis.Result{
		BasicStats: analysis.Computed(analysis.ByColumn[analysis.ColumnStats]{
			{Column: "sales", Mean: 100, Std: 80, Skewness: 0.2},
		}),
		Trends: analysis.Computed(analysis.ByColumn[analysis.Trend]{
			{Column: "sales", Direction: "increasing", Slope: 12.5, Strength: 12.5},
		}),
		Correlations: analysis.Computed(analysis.Correlations{
			StrongCorrelations: []analysis.PairCorr{{Variable1: "sales", Variable2: "cost", Correlation: 0.91, Strength: "strong"}},
			Highest:            &analysis.PairCorr{Variable1: "sales", Variable2: "cost", Correlation: 0.91, Strength: "strong"},
		}),
		Anomalies: analysis.Computed(analysis.ByColumn[analysis.Anomaly]{
			{Column: "sales", Count: 2, Percentage: 8},
			{Column: "cost", Count: 1, Percentage: 4},
		}),
		Patterns: analysis.Computed(analysis.Patterns{
			Clusters:      analysis.Skipped[analysis.Clusters](analysis.MsgClusterRows),
			Distributions: analysis.ByColumn[analysis.Distribution]{{Column: "sales", Type: "normal"}},
		}),
	}
}

func emptyResult() *analysis.Result {
	return &analysis.Result{
		BasicStats:   analysis.Skipped[analysis.ByColumn[analysis.ColumnStats]](analysis.MsgNoNumericColumns),
		Trends:       analysis.Computed(analysis.ByColumn[analysis.Trend]{}),
		Correlations: analysis.Skipped[analysis.Correlations](analysis.MsgCorrelationInsufficient),
		Anomalies:    analysis.Computed(analysis.ByColumn[analysis.Anomaly]{}),
		Patterns:     analysis.Computed(analysis.Patterns{Clusters: analysis.Skipped[analysis.Clusters](analysis.MsgClusterColumns)}),
	}
}

func TestNarrateRichResult(t *testing.T) {
	vals := make([]float64, 1234)
	for i := range vals {
		vals[i] = float64(i)
	}
	vals[0] = math.NaN()
	tbl, err := dataset.New(dataset.NumericColumn("sales", vals...))
	if err != nil {
		t.Fatal(err)
	}
	in := Narrate(tbl, richResult(), "")

	wantSummary := "Your dataset contains 1,234 rows and 1 columns, with 1 numeric variables. " +
		"The data appears to be relatively complete with minimal missing values. " +
		"Key findings include: 1 significant trend(s), 1 strong correlation(s), 2 anomaly/ies."
	if in.Summary != wantSummary {
		t.Fatalf("summary:\n got %q\nwant %q", in.Summary, wantSummary)
	}
	wantDetail := []string{
		"The sales shows high variability with a standard deviation of 80.00, indicating diverse values across your dataset.",
		"There's a strong upward trend in sales with a slope of 12.500.",
		"There's a very strong positive correlation (0.91) between sales and cost, suggesting they move together.",
		"I found 2 potential outliers in sales (8.0% of data) that may warrant attention.",
		"I found 1 potential outliers in cost (4.0% of data) that may warrant attention.",
		analysis.MsgClusterRows,
	}
	if !slices.Equal(in.DetailedInsights, wantDetail) {
		t.Fatalf("detailed insights:\n%q", in.DetailedInsights)
	}
	if len(in.Recommendations) != 3 || !strings.HasPrefix(in.Recommendations[0], "Investigate the detected anomalies") {
		t.Fatalf("recommendations = %q", in.Recommendations)
	}
	wantViz := []string{VizSummary, VizTrend, VizCorrelation, VizAnomaly, VizDistribution}
	if !slices.Equal(in.VisualizationSuggestions, wantViz) {
		t.Fatalf("viz = %v", in.VisualizationSuggestions)
	}
	if in.QuerySpecificInsight != nil {
		t.Fatalf("no query, got %q", *in.QuerySpecificInsight)
	}
}

func TestNarrateSparseTable(t *testing.T) {
	tbl, err := dataset.New(
		dataset.TextColumn("name", "a", "", "a"),
		dataset.TextColumn("city", "x", "", "x"),
	)
	if err != nil {
		t.Fatal(err)
	}
	in := Narrate(tbl, emptyResult(), "")
	for _, want := range []string{
		"Data quality note: 33.3% of values are missing",
		"Found 1 duplicate rows that have been handled in the analysis.",
	} {
		if !strings.Contains(in.Summary, want) {
			t.Fatalf("summary %q missing %q", in.Summary, want)
		}
	}
	if strings.Contains(in.Summary, "Key findings") {
		t.Fatalf("no findings expected: %q", in.Summary)
	}
	wantRecs := []string{"Consider data imputation strategies for missing values to improve analysis accuracy."}
	if !slices.Equal(in.Recommendations, wantRecs) {
		t.Fatalf("recommendations = %q", in.Recommendations)
	}
	if !slices.Equal(in.VisualizationSuggestions, []string{VizSummary}) {
		t.Fatalf("viz = %v", in.VisualizationSuggestions)
	}
}

func TestRecommendationFallback(t *testing.T) {
	tbl, _ := dataset.New(dataset.TextColumn("name", "a", "b"))
	recs := Narrate(tbl, emptyResult(), "").Recommendations
	if len(recs) != 2 || !strings.HasPrefix(recs[1], "Use the interactive visualizations") {
		t.Fatalf("recommendations = %q", recs)
	}
}

func TestQueryInsight(t *testing.T) {
	r := richResult()
	cases := map[string]string{
		"Is there a TREND here?":         "Based on your question about trends, I found 1 significant trend(s) in your data.",
		"what is the relationship?":      "Regarding correlations, I identified 1 strong correlation(s) in your data.",
		"anything unusual":               "Concerning anomalies, I detected 3 potential outliers across your dataset.",
		"what is the average":            "",
		"patterns and outliers, please!": "Based on your question about trends, I found 1 significant trend(s) in your data.",
	}
	for q, want := range cases {
		got := queryInsight(q, r)
		if (got == nil) != (want == "") || (got != nil && *got != want) {
			t.Fatalf("query %q: got %v, want %q", q, got, want)
		}
	}

	// trend words win even when there are no trends to report
	noTrends := richResult()
	noTrends.Trends = analysis.Computed(analysis.ByColumn[analysis.Trend]{})
	if got := queryInsight("trend and correlation", noTrends); got != nil {
		t.Fatalf("got %q, want nil", *got)
	}
}

func TestNarrateRecoversFromPanics(t *testing.T) {
	tbl, _ := dataset.New(dataset.NumericColumn("x", 1, 2))
	in := Narrate(tbl, nil, "trend")
	if in.Error == "" || in.Summary != "I analyzed your data and found interesting patterns." {
		t.Fatalf("insight = %+v", in)
	}
}

func TestCards(t *testing.T) {
	tbl, err := dataset.New(
		dataset.NumericColumn("sales", 1, math.NaN(), 3, 4),
		dataset.NumericColumn("cost", 1, 2, 3, 4),
	)
	if err != nil {
		t.Fatal(err)
	}
	cards := Cards(tbl, richResult())
	types := make([]string, len(cards))
	for i, c := range cards {
		types[i] = c.Type
	}
	wantTypes := []string{"data_overview", "data_quality", "trend", "anomaly", "anomaly", "correlation"}
	if !slices.Equal(types, wantTypes) {
		t.Fatalf("card types = %v", types)
	}
	if cards[0].Description != "Your dataset contains 4 rows and 2 columns" {
		t.Fatalf("overview = %q", cards[0].Description)
	}
	if cards[1].Description != "1 missing values (12.5% of total data)" || cards[1].Severity != SeverityWarning {
		t.Fatalf("quality = %+v", cards[1])
	}
	if cards[2].Description != "sales shows a increasing trend with strength 12.500" {
		t.Fatalf("trend = %q", cards[2].Description)
	}
	if cards[3].Severity != SeverityWarning || cards[4].Severity != SeverityInfo {
		t.Fatalf("anomaly severities = %s, %s", cards[3].Severity, cards[4].Severity)
	}
	if cards[5].Description != "Strong correlation (0.910) between sales and cost" {
		t.Fatalf("correlation = %q", cards[5].Description)
	}
}
