package cleaning

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
)

// ErrCleaning wraps stage-level failures; individual rule failures are recorded in the report instead.
var ErrCleaning = errors.New("cleaning failed")

// Rule names, in the order they are applied.
const (
	RuleMissingValues      = "missing_values"
	RuleDuplicates         = "duplicates"
	RuleOutliers           = "outliers"
	RuleDataTypes          = "data_types"
	RuleInconsistentValues = "inconsistent_values"
	RuleFormatting         = "formatting"
)

// DefaultRules lists every rule in application order.
var DefaultRules = []string{
	RuleMissingValues, RuleDuplicates, RuleOutliers,
	RuleDataTypes, RuleInconsistentValues, RuleFormatting,
}

// Options controls cleaning behavior.
type Options struct {
	// Rules restricts which rules run; order is always that of DefaultRules.
	Rules []string
	// IQRMultiplier widens or narrows the outlier fence; 0 means 1.5.
	IQRMultiplier float64
	Logger        *slog.Logger
}

// DefaultOptions returns the standard rule set with a 1.5 IQR fence.
func DefaultOptions() Options {
	return Options{Rules: slices.Clone(DefaultRules), IQRMultiplier: 1.5}
}

type ruleFunc func(t *dataset.Table, opt Options) (any, error)

var rules = map[string]ruleFunc{
	RuleMissingValues:      handleMissingValues,
	RuleDuplicates:         handleDuplicates,
	RuleOutliers:           handleOutliers,
	RuleDataTypes:          fixDataTypes,
	RuleInconsistentValues: handleInconsistentValues,
	RuleFormatting:         fixFormatting,
}

// Clean applies the cleaning rules to a copy of t and returns the cleaned table
// with a report of what each rule found and changed. The input is never modified.
func Clean(t *dataset.Table, opt Options) (*dataset.Table, *Report, error) {
	if t == nil {
		return nil, nil, fmt.Errorf("%w: nil table", ErrCleaning)
	}
	if err := t.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCleaning, err)
	}
	if opt.IQRMultiplier <= 0 {
		opt.IQRMultiplier = 1.5
	}
	if opt.Rules == nil {
		opt.Rules = DefaultRules
	}
	log := opt.Logger
	if log == nil {
		log = logging.Default()
	}

	work := t.Clone()
	rep := &Report{OriginalShape: t.Shape()}
	for _, name := range DefaultRules {
		if !slices.Contains(opt.Rules, name) {
			continue
		}
		next := work.Clone()
		findings, err := runRule(rules[name], next, opt)
		if err != nil {
			log.Error("cleaning rule failed", "rule", name, "error", err)
			rep.Steps = append(rep.Steps, Step{Rule: name, Error: err.Error()})
			continue
		}
		work = next
		rep.Steps = append(rep.Steps, Step{Rule: name, Report: findings})
		log.Debug("cleaning rule applied", "rule", name)
	}

	rep.FinalShape = work.Shape()
	rep.RowsRemoved = rep.OriginalShape.Rows - rep.FinalShape.Rows
	rep.ColumnsRemoved = rep.OriginalShape.Cols - rep.FinalShape.Cols
	rep.Summary = summarize(rep)
	return work, rep, nil
}

func runRule(fn ruleFunc, t *dataset.Table, opt Options) (findings any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(t, opt)
}
