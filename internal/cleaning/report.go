package cleaning

import (
	"github.com/Ace30/insightmate/internal/dataset"
)

// Report describes a cleaning run.
type Report struct {
	OriginalShape  dataset.Shape `json:"original_shape"`
	FinalShape     dataset.Shape `json:"final_shape"`
	Steps          []Step        `json:"cleaning_steps"`
	RowsRemoved    int           `json:"rows_removed"`
	ColumnsRemoved int           `json:"columns_removed"`
	Summary        Summary       `json:"summary"`
}

// Step is the outcome of one rule: its findings, or the error that stopped it.
type Step struct {
	Rule   string `json:"rule"`
	Report any    `json:"report,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the findings of all rules.
type Summary struct {
	TotalIssuesFound       int      `json:"total_issues_found"`
	TotalFixesApplied      int      `json:"total_fixes_applied"`
	DataQualityImprovement string   `json:"data_quality_improvement"`
	Recommendations        []string `json:"recommendations"`
}

// StepReport returns the typed findings of the named rule, if it ran successfully.
func StepReport[T any](r *Report, rule string) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	for _, s := range r.Steps {
		if s.Rule != rule || s.Error != "" {
			continue
		}
		v, ok := s.Report.(T)
		return v, ok
	}
	return zero, false
}

// MissingValues reports per-column missing counts and how each was imputed.
type MissingValues struct {
	MissingCounts     map[string]int    `json:"missing_counts"`
	ImputationMethods map[string]string `json:"imputation_methods"`
	ColumnsRemoved    []string          `json:"columns_removed"`
	UnfilledColumns   []string          `json:"unfilled_columns"`

	order []string
}

type Duplicates struct {
	DuplicatesRemoved int           `json:"duplicates_removed"`
	PercentageRemoved dataset.Float `json:"percentage_removed"`
}

type Bounds struct {
	Lower dataset.Float `json:"lower"`
	Upper dataset.Float `json:"upper"`
}

type OutlierFinding struct {
	Count      int           `json:"count"`
	Percentage dataset.Float `json:"percentage"`
	Bounds     Bounds        `json:"bounds"`
}

// Outliers reports capped columns; percentages are relative to the row count.
type Outliers struct {
	Detected map[string]OutlierFinding `json:"outliers_detected"`
	Handled  map[string]string         `json:"outliers_handled"`

	order []string
}

type TypeConversions struct {
	Conversions map[string]string `json:"type_conversions"`
	Errors      map[string]string `json:"conversion_errors"`
}

type Standardization struct {
	InconsistenciesFixed map[string]int    `json:"inconsistencies_fixed"`
	Applied              map[string]string `json:"standardization_applied"`
}

type Formatting struct {
	Fixes map[string]string `json:"formatting_fixes"`
}
