package insight

import (
	"fmt"

	"github.com/Ace30/insightmate/internal/analysis"
	"github.com/Ace30/insightmate/internal/dataset"
)

// Severity levels for cards.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Card is a short typed finding for dashboards.
type Card struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Cards lists an overview card, a data quality card when cells are missing,
// one card per trend and per anomalous column, and one for the highest
// correlation.
func Cards(t *dataset.Table, r *analysis.Result) []Card {
	shape := t.Shape()
	cards := []Card{{
		Type:        "data_overview",
		Title:       "Dataset Overview",
		Description: fmt.Sprintf("Your dataset contains %s rows and %d columns", grouped(shape.Rows), shape.Cols),
		Severity:    SeverityInfo,
	}}

	if missing := t.MissingCount(); missing > 0 {
		pct := t.MissingPercentage()
		cards = append(cards, Card{
			Type:        "data_quality",
			Title:       "Missing Data Detected",
			Description: fmt.Sprintf("%s missing values (%.1f%% of total data)", grouped(missing), pct),
			Severity:    severity(pct > 10),
		})
	}

	trends, _ := r.Trends.Get()
	for _, tr := range trends {
		cards = append(cards, Card{
			Type:        "trend",
			Title:       "Trend in " + tr.Column,
			Description: fmt.Sprintf("%s shows a %s trend with strength %.3f", tr.Column, tr.Direction, float64(tr.Strength)),
			Severity:    SeverityInfo,
		})
	}

	anomalies, _ := r.Anomalies.Get()
	for _, a := range anomalies {
		pct := float64(a.Percentage)
		cards = append(cards, Card{
			Type:        "anomaly",
			Title:       "Anomalies in " + a.Column,
			Description: fmt.Sprintf("Found %d anomalies (%.1f%% of data) in %s", a.Count, pct, a.Column),
			Severity:    severity(pct > 5),
		})
	}

	if c, ok := r.Correlations.Get(); ok && c.Highest != nil {
		h := c.Highest
		cards = append(cards, Card{
			Type:        "correlation",
			Title:       "Strong Correlation Found",
			Description: fmt.Sprintf("Strong correlation (%.3f) between %s and %s", float64(h.Correlation), h.Variable1, h.Variable2),
			Severity:    SeverityInfo,
		})
	}
	return cards
}

func severity(warn bool) string {
	if warn {
		return SeverityWarning
	}
	return SeverityInfo
}
