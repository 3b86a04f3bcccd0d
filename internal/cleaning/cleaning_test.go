package cleaning

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
)

var nan = math.NaN()

func quiet(rules ...string) Options {
	opt := DefaultOptions()
	opt.Logger = logging.Discard()
	if len(rules) > 0 {
		opt.Rules = rules
	}
	return opt
}

func mustTable(t *testing.T, cols ...*dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(cols...)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return tbl
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	in := mustTable(t,
		dataset.NumericColumn("v", 1, nan, 3, 100),
		dataset.TextColumn("s", " A ", "b", "", "b"),
	)
	_, _, err := Clean(in, quiet())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if !in.Columns[0].Null[1] || in.Columns[0].Num[3] != 100 || in.Columns[1].Str[0] != " A " {
		t.Fatalf("input table was modified")
	}
}

func TestMissingValuesImputation(t *testing.T) {
	in := mustTable(t,
		dataset.NumericColumn("num", 1, nan, 3, 10),
		dataset.TextColumn("cat", "b", "a", "", "b"),
		dataset.NumericColumn("empty", nan, nan, nan, nan),
	)
	out, rep, err := Clean(in, quiet(RuleMissingValues))
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if got := out.Column("num").Num[1]; got != 3 {
		t.Fatalf("median fill = %v, want 3", got)
	}
	if got := out.Column("cat").Str[2]; got != "b" {
		t.Fatalf("mode fill = %q, want b", got)
	}
	mv, ok := StepReport[*MissingValues](rep, RuleMissingValues)
	if !ok {
		t.Fatalf("missing values report not found")
	}
	if len(mv.UnfilledColumns) != 1 || mv.UnfilledColumns[0] != "empty" {
		t.Fatalf("unfilled = %v", mv.UnfilledColumns)
	}
	if out.Column("empty").Missing() != 4 {
		t.Fatalf("all-null column should stay null")
	}
	if mv.ImputationMethods["cat"] != "mode" || mv.ImputationMethods["num"] != "median" {
		t.Fatalf("methods = %v", mv.ImputationMethods)
	}
	found := false
	for _, r := range rep.Summary.Recommendations {
		if strings.Contains(r, "Column empty is entirely empty") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no recommendation for empty column: %v", rep.Summary.Recommendations)
	}
}

func TestModeTieBreaksLexically(t *testing.T) {
	c := dataset.TextColumn("c", "pear", "apple", "pear", "apple", "")
	if got := mode(c); got != "apple" {
		t.Fatalf("mode = %q", got)
	}
	if got := mode(dataset.TextColumn("c", "", "")); got != "Unknown" {
		t.Fatalf("empty mode = %q", got)
	}
}

func TestForwardBackwardFill(t *testing.T) {
	c := &dataset.Column{Name: "b", Kind: dataset.Bool, Bool: []bool{false, true, false, false}, Null: []bool{true, false, true, false}}
	fillForwardBackward(c)
	if c.Missing() != 0 || !c.Bool[0] || !c.Bool[2] {
		t.Fatalf("fill result = %v", c.Bool)
	}
}

func TestDuplicatesAccounting(t *testing.T) {
	in := mustTable(t,
		dataset.NumericColumn("a", 1, 2, 1, 3, 2),
		dataset.TextColumn("b", "x", "y", "x", "z", "y"),
	)
	out, rep, err := Clean(in, quiet(RuleDuplicates))
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	d, _ := StepReport[*Duplicates](rep, RuleDuplicates)
	if d.DuplicatesRemoved != 2 || float64(d.PercentageRemoved) != 40 {
		t.Fatalf("duplicates = %+v", d)
	}
	if out.Rows() != 3 || rep.RowsRemoved != 2 {
		t.Fatalf("rows = %d removed = %d", out.Rows(), rep.RowsRemoved)
	}
	if out.Column("b").Str[2] != "z" {
		t.Fatalf("first occurrences not kept in order")
	}
	if rep.Summary.TotalFixesApplied != 2 || rep.Summary.DataQualityImprovement != "significant" {
		t.Fatalf("summary = %+v", rep.Summary)
	}
}

func TestOutlierCappingIsIdempotent(t *testing.T) {
	in := mustTable(t, dataset.NumericColumn("v", 1, 2, 3, 4, 100))
	once, rep, err := Clean(in, quiet(RuleOutliers))
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	o, _ := StepReport[*Outliers](rep, RuleOutliers)
	f := o.Detected["v"]
	if f.Count != 1 || float64(f.Percentage) != 20 || float64(f.Bounds.Upper) != 7 {
		t.Fatalf("finding = %+v", f)
	}
	if once.Column("v").Num[4] != 7 {
		t.Fatalf("value not capped: %v", once.Column("v").Num)
	}
	twice, rep2, err := Clean(once, quiet(RuleOutliers))
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	o2, _ := StepReport[*Outliers](rep2, RuleOutliers)
	if len(o2.Detected) != 0 {
		t.Fatalf("second pass detected %v", o2.Detected)
	}
	for i, v := range twice.Column("v").Num {
		if v != once.Column("v").Num[i] {
			t.Fatalf("second pass changed values")
		}
	}
	if !strings.Contains(rep.Summary.Recommendations[0], "Review outliers in v (1 outliers detected)") {
		t.Fatalf("recommendations = %v", rep.Summary.Recommendations)
	}
}

func TestTypeCoercion(t *testing.T) {
	in := mustTable(t,
		dataset.TextColumn("answer", "yes", "no", "yes", "no", "yes"),
		dataset.TextColumn("maybe", "yes", "maybe", "yes", "maybe", "yes"),
		dataset.TextColumn("num", "1", "2", "3", "4", "x"),
		dataset.TextColumn("when", "2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01", "2024-05-01"),
	)
	out, rep, err := Clean(in, quiet(RuleDataTypes))
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if c := out.Column("answer"); c.Kind != dataset.Bool || !c.Bool[0] || c.Bool[1] {
		t.Fatalf("answer = %+v", c)
	}
	if out.Column("maybe").Kind != dataset.Text {
		t.Fatalf("yes/maybe should stay text")
	}
	if c := out.Column("num"); c.Kind != dataset.Numeric || !c.Null[4] || c.Num[2] != 3 {
		t.Fatalf("num = %+v", c)
	}
	if out.Column("when").Kind != dataset.Datetime {
		t.Fatalf("when kind = %v", out.Column("when").Kind)
	}
	tc, _ := StepReport[*TypeConversions](rep, RuleDataTypes)
	if tc.Conversions["answer"] != "text -> boolean" || tc.Conversions["num"] != "text -> numeric" {
		t.Fatalf("conversions = %v", tc.Conversions)
	}
}

func TestStandardizationAndFormatting(t *testing.T) {
	in := mustTable(t,
		dataset.TextColumn("region", "  North   Region ", "south"),
		dataset.TextColumn("Unit Price", "$1,200.50", "$3.00"),
	)
	out, rep, err := Clean(in, quiet())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if got := out.Column("region").Str[0]; got != "north region" {
		t.Fatalf("region = %q", got)
	}
	price := out.Column("Unit Price")
	if price.Kind != dataset.Text || price.Str[0] != "1200.50" || price.Str[1] != "3.00" {
		t.Fatalf("price = %+v", price)
	}
	f, _ := StepReport[*Formatting](rep, RuleFormatting)
	if f.Fixes["Unit Price"] != "currency_cleaning" {
		t.Fatalf("fixes = %v", f.Fixes)
	}
}

func TestRuleFailureIsRecorded(t *testing.T) {
	saved := rules[RuleOutliers]
	defer func() { rules[RuleOutliers] = saved }()
	rules[RuleOutliers] = func(t *dataset.Table, _ Options) (any, error) {
		t.Columns[0].Num[0] = -1
		panic("boom")
	}

	in := mustTable(t, dataset.NumericColumn("v", 5, 6, 7))
	out, rep, err := Clean(in, quiet())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if out.Column("v").Num[0] != 5 {
		t.Fatalf("failed rule leaked a partial change")
	}
	var step *Step
	for i := range rep.Steps {
		if rep.Steps[i].Rule == RuleOutliers {
			step = &rep.Steps[i]
		}
	}
	if step == nil || !strings.Contains(step.Error, "boom") {
		t.Fatalf("outlier step = %+v", step)
	}
	if len(rep.Steps) != len(DefaultRules) {
		t.Fatalf("later rules did not run: %d steps", len(rep.Steps))
	}
}

func TestSummaryRecommendations(t *testing.T) {
	in := mustTable(t,
		dataset.NumericColumn("a", 1, nan, nan, 4),
		dataset.NumericColumn("b", nan, 2, nan, 4),
	)
	_, rep, err := Clean(in, quiet())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if rep.Summary.TotalIssuesFound != 4 {
		t.Fatalf("issues = %d", rep.Summary.TotalIssuesFound)
	}
	if rep.Summary.Recommendations[0] != "Consider investigating missing values in a (2 missing values)" {
		t.Fatalf("recommendation = %q", rep.Summary.Recommendations[0])
	}

	clean := mustTable(t, dataset.NumericColumn("a", 1, 2, 3))
	_, rep, _ = Clean(clean, quiet())
	if rep.Summary.DataQualityImprovement != "minimal" || rep.Summary.Recommendations[0] != "Data quality is good. No major issues detected." {
		t.Fatalf("summary = %+v", rep.Summary)
	}
}

func TestCleanRejectsInvalidTable(t *testing.T) {
	bad := &dataset.Table{Columns: []*dataset.Column{dataset.NumericColumn("a", 1), dataset.NumericColumn("a", 2)}}
	if _, _, err := Clean(bad, quiet()); !errors.Is(err, ErrCleaning) || !errors.Is(err, dataset.ErrDuplicateColumn) {
		t.Fatalf("want wrapped ErrCleaning, got %v", err)
	}
}
