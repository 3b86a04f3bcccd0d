// Package chat classifies free-text questions about a dataset and answers
// them from previously computed analysis context.
package chat

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent is the classified purpose of a question.
type Intent string

const (
	Trend        Intent = "trend"
	Correlation  Intent = "correlation"
	Anomaly      Intent = "anomaly"
	Summary      Intent = "summary"
	Comparison   Intent = "comparison"
	Forecast     Intent = "forecast"
	Distribution Intent = "distribution"
	Top          Intent = "top"
	Bottom       Intent = "bottom"
	General      Intent = "general"
	Complex      Intent = "complex"
	Failed       Intent = "error"
)

// intentPatterns are tested in this order; the order is also the order of
// sub-intents reported for a complex question.
var intentPatterns = []struct {
	intent Intent
	re     *regexp.Regexp
}{
	{Trend, regexp.MustCompile(`\b(trend|trends|pattern|patterns|increase|decrease|growing|declining)\b`)},
	{Correlation, regexp.MustCompile(`\b(correlation|correlate|relationship|related|connection)\b`)},
	{Anomaly, regexp.MustCompile(`\b(anomaly|anomalies|outlier|outliers|unusual|strange|odd)\b`)},
	{Summary, regexp.MustCompile(`\b(summary|summarize|overview|total|average|mean|median)\b`)},
	{Comparison, regexp.MustCompile(`\b(compare|comparison|versus|vs|difference|different)\b`)},
	{Forecast, regexp.MustCompile(`\b(forecast|predict|prediction|future|next|upcoming)\b`)},
	{Distribution, regexp.MustCompile(`\b(distribution|spread|range|histogram|frequency)\b`)},
	{Top, regexp.MustCompile(`\b(top|best|highest|maximum|peak|leading)\b`)},
	{Bottom, regexp.MustCompile(`\b(bottom|worst|lowest|minimum|least|poor)\b`)},
}

var visualizations = map[Intent][]string{
	Trend:        {"line_chart", "area_chart"},
	Correlation:  {"scatter_plot", "heatmap"},
	Anomaly:      {"scatter_plot", "box_plot"},
	Summary:      {"bar_chart", "pie_chart"},
	Comparison:   {"bar_chart", "grouped_bar_chart"},
	Forecast:     {"line_chart", "area_chart"},
	Distribution: {"histogram", "box_plot"},
	Top:          {"bar_chart", "horizontal_bar_chart"},
	Bottom:       {"bar_chart", "horizontal_bar_chart"},
	General:      {"summary_table", "basic_charts"},
}

const maxColumnCandidates = 5

var (
	wordRe   = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\b`)
	numberRe = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`)
	daysRe   = regexp.MustCompile(`\b(\d+)\s*days?\b`)
	weeksRe  = regexp.MustCompile(`\b(\d+)\s*weeks?\b`)
	monthsRe = regexp.MustCompile(`\b(\d+)\s*months?\b`)
	yearsRe  = regexp.MustCompile(`\b(\d+)\s*years?\b`)
)

// Parameters are the lightweight values pulled out of a question.
type Parameters struct {
	// Columns are word tokens that may name columns.
	Columns []string  `json:"columns,omitempty"`
	Numbers []float64 `json:"numbers,omitempty"`
	Days    *int      `json:"days,omitempty"`
	Weeks   *int      `json:"weeks,omitempty"`
	Months  *int      `json:"months,omitempty"`
	Years   *int      `json:"years,omitempty"`
}

// Empty reports whether nothing was extracted.
func (p Parameters) Empty() bool {
	return len(p.Columns) == 0 && len(p.Numbers) == 0 &&
		p.Days == nil && p.Weeks == nil && p.Months == nil && p.Years == nil
}

// ParsedQuery is the classification of one question.
type ParsedQuery struct {
	OriginalMessage string     `json:"original_message"`
	Intent          Intent     `json:"type"`
	SubTypes        []Intent   `json:"sub_types,omitempty"`
	Parameters      Parameters `json:"parameters"`
	Visualizations  []string   `json:"visualizations"`
	Confidence      float64    `json:"confidence"`
}

// Classify matches every intent pattern against the lowercased text. No match
// is General, one match is that intent, several make a Complex query carrying
// all of them.
func Classify(text string) ParsedQuery {
	lower := strings.ToLower(text)
	q := ParsedQuery{OriginalMessage: text, Intent: General}

	var matched []Intent
	for _, p := range intentPatterns {
		if p.re.MatchString(lower) {
			matched = append(matched, p.intent)
		}
	}
	switch len(matched) {
	case 0:
	case 1:
		q.Intent = matched[0]
	default:
		q.Intent = Complex
		q.SubTypes = matched
	}

	q.Parameters = extractParameters(lower)
	q.Visualizations = Visualizations(q.Intent)
	q.Confidence = confidence(q)
	return q
}

// Visualizations returns the chart kinds suited to an intent.
func Visualizations(i Intent) []string {
	if v, ok := visualizations[i]; ok {
		return append([]string(nil), v...)
	}
	return []string{"summary_table"}
}

func extractParameters(text string) Parameters {
	var p Parameters
	if words := wordRe.FindAllString(text, -1); len(words) > 0 {
		p.Columns = words[:min(len(words), maxColumnCandidates)]
	}
	for _, m := range numberRe.FindAllString(text, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			p.Numbers = append(p.Numbers, v)
		}
	}
	p.Days = firstCount(daysRe, text)
	p.Weeks = firstCount(weeksRe, text)
	p.Months = firstCount(monthsRe, text)
	p.Years = firstCount(yearsRe, text)
	return p
}

func firstCount(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// confidence starts at 0.5 and is nudged by how specific the query is.
func confidence(q ParsedQuery) float64 {
	c := 0.5
	if q.Intent != General {
		c += 0.2
	}
	if !q.Parameters.Empty() {
		c += 0.1
	}
	if len(q.Visualizations) > 0 {
		c += 0.1
	}
	if len(q.SubTypes) > 1 {
		c -= 0.1
	}
	return max(0, min(1, c))
}
