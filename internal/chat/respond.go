package chat

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
)

// Context is the previously computed analysis a response may draw on. Any
// field may be nil.
type Context struct {
	Trends       analysis.ByColumn[analysis.Trend]   `json:"trends,omitempty"`
	Correlations *analysis.Correlations              `json:"correlations,omitempty"`
	Anomalies    analysis.ByColumn[analysis.Anomaly] `json:"anomalies,omitempty"`
	DataSummary  *dataset.Summary                    `json:"data_summary,omitempty"`
}

// ContextFrom builds a response context from an analysis and a table summary.
// Skipped facets are left out.
func ContextFrom(r *analysis.Result, s *dataset.Summary) *Context {
	c := &Context{DataSummary: s}
	if r == nil {
		return c
	}
	if tr, ok := r.Trends.Get(); ok {
		c.Trends = tr
	}
	if corr, ok := r.Correlations.Get(); ok {
		c.Correlations = &corr
	}
	if an, ok := r.Anomalies.Get(); ok {
		c.Anomalies = an
	}
	return c
}

// Response is the answer to one classified question.
type Response struct {
	Text        string   `json:"response"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
}

const (
	maxCorrelationDetails = 3
	fallbackResponse      = "I understand you're asking about your data. Let me analyze it and provide you with insights."
)

// StaticSuggestions are starter questions offered before any conversation.
var StaticSuggestions = []string{
	"What are the main trends in my data?",
	"Show me the top performing categories",
	"Identify any anomalies or outliers",
	"What factors contribute most to sales?",
	"Generate a summary report",
	"Compare performance across different periods",
	"Find correlations between variables",
	"What insights can you extract from this data?",
}

var printer = message.NewPrinter(language.English)

// Respond answers q from ctx, which may be nil. Forecast, distribution and
// complex questions get the general answer.
func Respond(q ParsedQuery, ctx *Context) Response {
	return Response{
		Text:        respondText(q.Intent, ctx),
		Suggestions: FollowUps(q.Intent),
		Confidence:  q.Confidence,
	}
}

func respondText(intent Intent, ctx *Context) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Default().Error("response generation failed", "intent", intent, "error", rec)
			text = fallbackResponse
		}
	}()
	if ctx == nil {
		ctx = &Context{}
	}
	switch intent {
	case Trend:
		return trendResponse(ctx)
	case Correlation:
		return correlationResponse(ctx)
	case Anomaly:
		return anomalyResponse(ctx)
	case Summary:
		return summaryResponse(ctx)
	case Comparison:
		return "I can help you compare different aspects of your data. Please specify what you'd like to compare and upload your dataset."
	case Top:
		return "I can identify the top performers in your data. Please upload your dataset and specify which metric you'd like to analyze."
	case Bottom:
		return "I can identify areas that need attention in your data. Please upload your dataset for analysis."
	}
	return "I'm here to help you analyze your data! Please upload your dataset and ask me specific questions about trends, correlations, anomalies, or any other insights you're looking for."
}

func trendResponse(ctx *Context) string {
	if len(ctx.Trends) == 0 {
		return "I can help you identify trends in your data. Please upload your dataset and I'll analyze the patterns over time."
	}
	details := make([]string, 0, len(ctx.Trends))
	for _, t := range ctx.Trends {
		details = append(details, fmt.Sprintf("%s shows a %s trend (strength: %.3f)", t.Column, t.Direction, float64(t.Strength)))
	}
	return fmt.Sprintf("I found %d trend(s) in your data. %s", len(ctx.Trends), strings.Join(details, ". "))
}

func correlationResponse(ctx *Context) string {
	if ctx.Correlations == nil || len(ctx.Correlations.StrongCorrelations) == 0 {
		return "I can analyze correlations between variables in your data. Please upload your dataset for correlation analysis."
	}
	strong := ctx.Correlations.StrongCorrelations
	details := make([]string, 0, maxCorrelationDetails)
	for _, p := range strong[:min(len(strong), maxCorrelationDetails)] {
		details = append(details, fmt.Sprintf("%s and %s (r=%.3f)", p.Variable1, p.Variable2, float64(p.Correlation)))
	}
	return fmt.Sprintf("I identified %d strong correlation(s). %s", len(strong), strings.Join(details, ". "))
}

func anomalyResponse(ctx *Context) string {
	if len(ctx.Anomalies) == 0 {
		return "I can detect anomalies and outliers in your data. Please upload your dataset for anomaly detection."
	}
	details := make([]string, 0, len(ctx.Anomalies))
	for _, a := range ctx.Anomalies {
		details = append(details, fmt.Sprintf("%s: %d anomalies (%.1f%%)", a.Column, a.Count, float64(a.Percentage)))
	}
	return fmt.Sprintf("I detected %d column(s) with anomalies. %s", len(ctx.Anomalies), strings.Join(details, ". "))
}

func summaryResponse(ctx *Context) string {
	s := ctx.DataSummary
	if s == nil {
		return "I can provide a comprehensive summary of your data. Please upload your dataset for analysis."
	}
	missing := 0
	for _, n := range s.MissingValues {
		missing += n
	}
	return fmt.Sprintf("Your dataset contains %s rows and %d columns. There are %s missing values across all columns.",
		printer.Sprintf("%d", s.TotalRows), s.TotalColumns, printer.Sprintf("%d", missing))
}

// FollowUps suggests what to ask next after a question of the given intent.
func FollowUps(i Intent) []string {
	switch i {
	case Trend:
		return []string{
			"What factors are driving these trends?",
			"Are there any seasonal patterns?",
			"How do these trends compare to industry benchmarks?",
		}
	case Correlation:
		return []string{
			"What might be causing these correlations?",
			"Are there any confounding variables?",
			"How strong are these relationships?",
		}
	case Anomaly:
		return []string{
			"What could be causing these anomalies?",
			"Should we investigate these outliers further?",
			"Are these anomalies significant?",
		}
	}
	return []string{
		"What are the main trends in my data?",
		"Show me the top performing categories",
		"Identify any anomalies or outliers",
		"What factors contribute most to the key metrics?",
	}
}
